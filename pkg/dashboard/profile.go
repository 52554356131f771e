package dashboard

import (
	"context"
	"strings"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// ProfileContext provides the profile slice.
var ProfileContext = provider.Create[*Profile]("Profile")

// UseProfile returns the profile slice of the mounted dashboard.
func UseProfile(ctx context.Context) (*Profile, error) {
	return ProfileContext.Use(ctx)
}

// Profile is the signed-in provider's profile.
type Profile struct {
	*resource.Resource[ProfileData]
	client   *api.Client
	identity session.Identity
}

func newProfile(scope *provider.Scope, deps *Deps) *Profile {
	p := &Profile{client: deps.Client, identity: deps.Identity}
	p.Resource = newResource(scope, deps, "profile", "load profile", p.fetch, ProfileData{})
	return p
}

func (p *Profile) fetch(ctx context.Context) (ProfileData, error) {
	const op = "load profile"
	if err := requireUser(op, p.identity); err != nil {
		return ProfileData{}, err
	}
	var data ProfileData
	err := p.client.Get(ctx, "/providers/"+api.PathEscape(p.identity.UserID), &data)
	return data, err
}

// UpdateProfile patches the editable fields and stores the result.
func (p *Profile) UpdateProfile(ctx context.Context, u ProfileUpdate) error {
	const action = "update profile"
	return p.Mutate(ctx, action, func(ctx context.Context, cur ProfileData) (ProfileData, error) {
		if err := requireUser(action, p.identity); err != nil {
			return cur, err
		}
		if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
			return cur, dasherrors.Precondition(action, "name cannot be empty")
		}
		var updated ProfileData
		if err := p.client.Patch(ctx, "/providers/"+api.PathEscape(p.identity.UserID), u, &updated); err != nil {
			return cur, err
		}
		return updated, nil
	})
}
