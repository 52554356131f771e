package dashboard

import (
	"context"
	"net/url"
	"slices"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// BookingsContext provides the bookings slice.
var BookingsContext = provider.Create[*Bookings]("Bookings")

// UseBookings returns the bookings slice of the mounted dashboard.
func UseBookings(ctx context.Context) (*Bookings, error) {
	return BookingsContext.Use(ctx)
}

// Bookings lists the provider's bookings.
type Bookings struct {
	*resource.Resource[[]Booking]
	client   *api.Client
	identity session.Identity
}

func newBookings(scope *provider.Scope, deps *Deps) *Bookings {
	b := &Bookings{client: deps.Client, identity: deps.Identity}
	b.Resource = newResource(scope, deps, "bookings", "load bookings", b.fetch, []Booking{})
	return b
}

func (b *Bookings) fetch(ctx context.Context) ([]Booking, error) {
	const op = "load bookings"
	if err := requireUser(op, b.identity); err != nil {
		return nil, err
	}
	q := url.Values{"providerId": {b.identity.UserID}}
	var bookings []Booking
	if err := b.client.Get(ctx, "/bookings?"+q.Encode(), &bookings); err != nil {
		return nil, err
	}
	return nonNil(bookings), nil
}

var bookingTransitions = map[string][]string{
	BookingPending:  {BookingAccepted, BookingRejected, BookingCancelled},
	BookingAccepted: {BookingCompleted, BookingCancelled},
}

// UpdateStatus moves booking id to status.
func (b *Bookings) UpdateStatus(ctx context.Context, id, status string) error {
	const action = "update booking"
	return b.Mutate(ctx, action, func(ctx context.Context, cur []Booking) ([]Booking, error) {
		i := slices.IndexFunc(cur, func(bk Booking) bool { return bk.ID == id })
		if i < 0 {
			return cur, dasherrors.Precondition(action, "unknown booking "+id)
		}
		if !slices.Contains(bookingTransitions[cur[i].Status], status) {
			return cur, dasherrors.Precondition(action, "booking is "+cur[i].Status)
		}
		body := map[string]string{"status": status}
		if err := b.client.Patch(ctx, "/bookings/"+api.PathEscape(id)+"/status", body, nil); err != nil {
			return cur, err
		}
		next := slices.Clone(cur)
		next[i].Status = status
		return next, nil
	})
}
