package dashboard

import (
	"context"

	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// StatsContext provides the stats slice.
var StatsContext = provider.Create[*Stats]("Stats")

// UseStats returns the stats slice of the mounted dashboard.
func UseStats(ctx context.Context) (*Stats, error) {
	return StatsContext.Use(ctx)
}

// Stats are the dashboard's summary numbers. Read only.
type Stats struct {
	*resource.Resource[StatsData]
	client *api.Client
}

func newStats(scope *provider.Scope, deps *Deps) *Stats {
	s := &Stats{client: deps.Client}
	s.Resource = newResource(scope, deps, "stats", "load dashboard stats", s.fetch, StatsData{})
	return s
}

func (s *Stats) fetch(ctx context.Context) (StatsData, error) {
	var data StatsData
	err := s.client.Get(ctx, "/dashboard/stats", &data)
	return data, err
}
