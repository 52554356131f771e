package dashboard

import (
	"context"
	"slices"
	"strings"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// SupportContext provides the support slice.
var SupportContext = provider.Create[*Support]("Support")

// UseSupport returns the support slice of the mounted dashboard.
func UseSupport(ctx context.Context) (*Support, error) {
	return SupportContext.Use(ctx)
}

// Support lists support tickets.
type Support struct {
	*resource.Resource[[]Ticket]
	client   *api.Client
	identity session.Identity
}

func newSupport(scope *provider.Scope, deps *Deps) *Support {
	s := &Support{client: deps.Client, identity: deps.Identity}
	s.Resource = newResource(scope, deps, "support", "load support tickets", s.fetch, []Ticket{})
	return s
}

func (s *Support) fetch(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := s.client.Get(ctx, "/support/tickets", &tickets); err != nil {
		return nil, err
	}
	return nonNil(tickets), nil
}

// CreateTicket opens a ticket; newest first.
func (s *Support) CreateTicket(ctx context.Context, subject, message string) (Ticket, error) {
	const action = "create support ticket"
	var created Ticket
	err := s.Mutate(ctx, action, func(ctx context.Context, cur []Ticket) ([]Ticket, error) {
		if err := requireUser(action, s.identity); err != nil {
			return cur, err
		}
		in := TicketInput{
			UserID:  s.identity.UserID,
			Subject: strings.TrimSpace(subject),
			Message: strings.TrimSpace(message),
		}
		if in.Subject == "" || in.Message == "" {
			return cur, dasherrors.Precondition(action, "subject and message are required")
		}
		if err := s.client.Post(ctx, "/support/tickets", in, &created); err != nil {
			return cur, err
		}
		return append([]Ticket{created}, slices.Clone(cur)...), nil
	})
	return created, err
}
