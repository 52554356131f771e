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

// CouponsContext provides the coupons slice.
var CouponsContext = provider.Create[*Coupons]("Coupons")

// UseCoupons returns the coupons slice of the mounted dashboard.
func UseCoupons(ctx context.Context) (*Coupons, error) {
	return CouponsContext.Use(ctx)
}

// Coupons lists discount codes.
type Coupons struct {
	*resource.Resource[[]Coupon]
	client *api.Client
}

func newCoupons(scope *provider.Scope, deps *Deps) *Coupons {
	c := &Coupons{client: deps.Client}
	c.Resource = newResource(scope, deps, "coupons", "load coupons", c.fetch, []Coupon{})
	return c
}

func (c *Coupons) fetch(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	if err := c.client.Get(ctx, "/coupons", &coupons); err != nil {
		return nil, err
	}
	return nonNil(coupons), nil
}

// CreateCoupon adds a coupon. Codes are upper-cased.
func (c *Coupons) CreateCoupon(ctx context.Context, in Coupon) (Coupon, error) {
	const action = "create coupon"
	var created Coupon
	err := c.Mutate(ctx, action, func(ctx context.Context, cur []Coupon) ([]Coupon, error) {
		in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
		switch {
		case in.Code == "":
			return cur, dasherrors.Precondition(action, "code is required")
		case in.DiscountValue <= 0:
			return cur, dasherrors.Precondition(action, "discount must be positive")
		case in.DiscountType == "percentage" && in.DiscountValue > 100:
			return cur, dasherrors.Precondition(action, "percentage discount cannot exceed 100")
		}
		if slices.ContainsFunc(cur, func(cp Coupon) bool { return cp.Code == in.Code }) {
			return cur, dasherrors.Precondition(action, "code "+in.Code+" already exists")
		}
		in.Active = true
		if err := c.client.Post(ctx, "/coupons", in, &created); err != nil {
			return cur, err
		}
		return append(slices.Clone(cur), created), nil
	})
	return created, err
}

// DeactivateCoupon disables a coupon by code.
func (c *Coupons) DeactivateCoupon(ctx context.Context, code string) error {
	const action = "deactivate coupon"
	return c.Mutate(ctx, action, func(ctx context.Context, cur []Coupon) ([]Coupon, error) {
		i := slices.IndexFunc(cur, func(cp Coupon) bool { return cp.Code == code })
		if i < 0 {
			return cur, dasherrors.Precondition(action, "unknown coupon "+code)
		}
		if err := c.client.Patch(ctx, "/coupons/"+api.PathEscape(code), map[string]bool{"isActive": false}, nil); err != nil {
			return cur, err
		}
		next := slices.Clone(cur)
		next[i].Active = false
		return next, nil
	})
}
