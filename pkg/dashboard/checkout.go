package dashboard

import (
	"context"
	"slices"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// CheckoutContext provides the checkout slice.
var CheckoutContext = provider.Create[*Checkout]("Checkout")

// UseCheckout returns the checkout slice of the mounted dashboard.
func UseCheckout(ctx context.Context) (*Checkout, error) {
	return CheckoutContext.Use(ctx)
}

// Checkout lists the user's orders.
type Checkout struct {
	*resource.Resource[[]Order]
	client   *api.Client
	identity session.Identity
}

func newCheckout(scope *provider.Scope, deps *Deps) *Checkout {
	c := &Checkout{client: deps.Client, identity: deps.Identity}
	c.Resource = newResource(scope, deps, "checkout", "load orders", c.fetch, []Order{})
	return c
}

func (c *Checkout) fetch(ctx context.Context) ([]Order, error) {
	const op = "load orders"
	if err := requireUser(op, c.identity); err != nil {
		return nil, err
	}
	var orders []Order
	if err := c.client.Get(ctx, "/checkout/orders/"+api.PathEscape(c.identity.UserID), &orders); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

// CreateOrder opens a payment order.
func (c *Checkout) CreateOrder(ctx context.Context, in OrderInput) (Order, error) {
	const action = "create order"
	var order Order
	err := c.Mutate(ctx, action, func(ctx context.Context, cur []Order) ([]Order, error) {
		if err := requireUser(action, c.identity); err != nil {
			return cur, err
		}
		if in.Amount <= 0 {
			return cur, dasherrors.Precondition(action, "amount must be positive")
		}
		in.UserID = c.identity.UserID
		if in.Currency == "" {
			in.Currency = "INR"
		}
		if err := c.client.Post(ctx, "/checkout/create-order", in, &order); err != nil {
			return cur, err
		}
		return append(slices.Clone(cur), order), nil
	})
	return order, err
}

// VerifyPayment confirms a payment and marks its order paid.
func (c *Checkout) VerifyPayment(ctx context.Context, v PaymentVerification) error {
	const action = "verify payment"
	return c.Mutate(ctx, action, func(ctx context.Context, cur []Order) ([]Order, error) {
		if v.OrderID == "" || v.PaymentID == "" || v.Signature == "" {
			return cur, dasherrors.Precondition(action, "payment details are incomplete")
		}
		if err := c.client.Post(ctx, "/checkout/verify", v, nil); err != nil {
			return cur, err
		}
		next := slices.Clone(cur)
		for i := range next {
			if next[i].OrderID == v.OrderID {
				next[i].Status = "paid"
				next[i].PaymentID = v.PaymentID
			}
		}
		return next, nil
	})
}
