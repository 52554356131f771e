package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
	"github.com/vango-dev/dashkit/pkg/upload"
)

// Deps are the collaborators every slice is built from.
type Deps struct {
	// Client talks to the backend. Required.
	Client *api.Client

	// Identity is the signed-in user. Slices keyed by user fail their
	// operations with a precondition error while it is zero.
	Identity session.Identity

	// Uploader stores gallery images. Gallery.Upload fails with a
	// precondition error when nil.
	Uploader upload.Uploader

	// Upload limits the gallery pre-check. Default: upload.DefaultConfig().
	Upload *upload.Config

	// StaleTime is applied to every slice. Zero disables staleness.
	StaleTime time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Dashboard owns every slice of one signed-in user.
type Dashboard struct {
	scope    *provider.Scope
	identity session.Identity
	logger   *slog.Logger

	Zones    *Zones
	Payout   *Payout
	Wallet   *Wallet
	Gallery  *Gallery
	Bookings *Bookings
	Coupons  *Coupons
	Checkout *Checkout
	Support  *Support
	Stats    *Stats
	Profile  *Profile
}

// Mount creates a Scope under parent, constructs every slice inside it and
// provides each into the returned context. Nothing is fetched yet.
// Closing the Dashboard aborts in-flight requests and freezes all slices.
func Mount(parent context.Context, deps Deps) (context.Context, *Dashboard) {
	if deps.Upload == nil {
		deps.Upload = upload.DefaultConfig()
	}
	scope := provider.NewScope(parent)
	d := &Dashboard{
		scope:    scope,
		identity: deps.Identity,
		logger:   deps.logger().With("user", deps.Identity.UserID),
	}
	deps.Logger = d.logger

	d.Zones = newZones(scope, &deps)
	d.Wallet = newWallet(scope, &deps)
	d.Payout = newPayout(scope, &deps, d.Wallet)
	d.Gallery = newGallery(scope, &deps)
	d.Bookings = newBookings(scope, &deps)
	d.Coupons = newCoupons(scope, &deps)
	d.Checkout = newCheckout(scope, &deps)
	d.Support = newSupport(scope, &deps)
	d.Stats = newStats(scope, &deps)
	d.Profile = newProfile(scope, &deps)

	if deps.StaleTime > 0 {
		d.Zones.StaleTime(deps.StaleTime)
		d.Wallet.StaleTime(deps.StaleTime)
		d.Payout.StaleTime(deps.StaleTime)
		d.Gallery.StaleTime(deps.StaleTime)
		d.Bookings.StaleTime(deps.StaleTime)
		d.Coupons.StaleTime(deps.StaleTime)
		d.Checkout.StaleTime(deps.StaleTime)
		d.Support.StaleTime(deps.StaleTime)
		d.Stats.StaleTime(deps.StaleTime)
		d.Profile.StaleTime(deps.StaleTime)
	}

	ctx := scope.Context()
	ctx = ZonesContext.Provide(ctx, d.Zones)
	ctx = WalletContext.Provide(ctx, d.Wallet)
	ctx = PayoutContext.Provide(ctx, d.Payout)
	ctx = GalleryContext.Provide(ctx, d.Gallery)
	ctx = BookingsContext.Provide(ctx, d.Bookings)
	ctx = CouponsContext.Provide(ctx, d.Coupons)
	ctx = CheckoutContext.Provide(ctx, d.Checkout)
	ctx = SupportContext.Provide(ctx, d.Support)
	ctx = StatsContext.Provide(ctx, d.Stats)
	ctx = ProfileContext.Provide(ctx, d.Profile)
	ctx = DashboardContext.Provide(ctx, d)

	d.logger.Debug("dashboard mounted")
	return ctx, d
}

// DashboardContext provides the whole Dashboard.
var DashboardContext = provider.Create[*Dashboard]("Dashboard")

// UseDashboard returns the mounted Dashboard.
func UseDashboard(ctx context.Context) (*Dashboard, error) {
	return DashboardContext.Use(ctx)
}

// Identity returns the user the dashboard was mounted for.
func (d *Dashboard) Identity() session.Identity {
	return d.identity
}

// Closed reports whether the dashboard was closed.
func (d *Dashboard) Closed() bool {
	return d.scope.Closed()
}

// Close aborts in-flight requests and closes every slice.
func (d *Dashboard) Close() error {
	err := d.scope.Close()
	d.logger.Debug("dashboard closed")
	return err
}

// Slices returns every slice by name.
func (d *Dashboard) Slices() map[string]resource.Observable {
	return map[string]resource.Observable{
		d.Zones.Name():    d.Zones,
		d.Payout.Name():   d.Payout,
		d.Wallet.Name():   d.Wallet,
		d.Gallery.Name():  d.Gallery,
		d.Bookings.Name(): d.Bookings,
		d.Coupons.Name():  d.Coupons,
		d.Checkout.Name(): d.Checkout,
		d.Support.Name():  d.Support,
		d.Stats.Name():    d.Stats,
		d.Profile.Name():  d.Profile,
	}
}

// Slice returns one slice by name.
func (d *Dashboard) Slice(name string) (resource.Observable, bool) {
	s, ok := d.Slices()[name]
	return s, ok
}

// Names returns the slice names in sorted order.
func (d *Dashboard) Names() []string {
	slices := d.Slices()
	names := make([]string, 0, len(slices))
	for name := range slices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Refresh fetches every slice concurrently. Each slice records its own
// outcome; the first error is returned once all requests have settled.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var g errgroup.Group
	for _, s := range d.Slices() {
		g.Go(func() error {
			return s.Refresh(ctx)
		})
	}
	return g.Wait()
}
