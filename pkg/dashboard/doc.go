// Package dashboard holds the provider dashboard's slices of remote state.
//
// Each slice (zones, payout, wallet, gallery, bookings, coupons, checkout,
// support, stats, profile) owns one resource.Resource and is published
// through its own provider.Context. Mount creates all of them under one
// Scope:
//
//	ctx, d := dashboard.Mount(parent, dashboard.Deps{
//	    Client:   client,
//	    Identity: id,
//	    Uploader: store,
//	})
//	defer d.Close()
//
//	zones, err := dashboard.UseZones(ctx)
//	if err != nil {
//	    return err // not mounted
//	}
//	_ = zones.Fetch(ctx)
//
// Failures never escape as panics. Each operation records a user-facing
// message on its slice and returns the classified error for logging.
package dashboard
