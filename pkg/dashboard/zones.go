package dashboard

import (
	"context"
	"slices"
	"strings"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// ZonesContext provides the zones slice.
var ZonesContext = provider.Create[*Zones]("Zones")

// UseZones returns the zones slice of the mounted dashboard.
func UseZones(ctx context.Context) (*Zones, error) {
	return ZonesContext.Use(ctx)
}

// Zones is the list of serviceable zones.
type Zones struct {
	*resource.Resource[[]Zone]
	client *api.Client
}

func newZones(scope *provider.Scope, deps *Deps) *Zones {
	z := &Zones{client: deps.Client}
	z.Resource = newResource(scope, deps, "zones", "load zones", z.fetch, []Zone{})
	return z
}

func (z *Zones) fetch(ctx context.Context) ([]Zone, error) {
	var zones []Zone
	if err := z.client.Get(ctx, "/zones", &zones); err != nil {
		return nil, err
	}
	return nonNil(zones), nil
}

// CreateZone adds a zone and appends it to the list.
func (z *Zones) CreateZone(ctx context.Context, in ZoneInput) (Zone, error) {
	const action = "create zone"
	var created Zone
	err := z.Mutate(ctx, action, func(ctx context.Context, cur []Zone) ([]Zone, error) {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return cur, dasherrors.Precondition(action, "zone name is required")
		}
		if err := z.client.Post(ctx, "/zones", in, &created); err != nil {
			return cur, err
		}
		return append(slices.Clone(cur), created), nil
	})
	return created, err
}

// ToggleZone sets whether zone id is active.
func (z *Zones) ToggleZone(ctx context.Context, id string, active bool) error {
	const action = "update zone"
	return z.Mutate(ctx, action, func(ctx context.Context, cur []Zone) ([]Zone, error) {
		i := slices.IndexFunc(cur, func(zone Zone) bool { return zone.ID == id })
		if i < 0 {
			return cur, dasherrors.Precondition(action, "unknown zone "+id)
		}
		body := map[string]bool{"isActive": active}
		if err := z.client.Patch(ctx, "/zones/"+api.PathEscape(id), body, nil); err != nil {
			return cur, err
		}
		next := slices.Clone(cur)
		next[i].Active = active
		return next, nil
	})
}
