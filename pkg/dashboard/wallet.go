package dashboard

import (
	"context"

	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// WalletContext provides the wallet slice.
var WalletContext = provider.Create[*Wallet]("Wallet")

// UseWallet returns the wallet slice of the mounted dashboard.
func UseWallet(ctx context.Context) (*Wallet, error) {
	return WalletContext.Use(ctx)
}

// Wallet is the provider's balance. It is read only; Payout refreshes it.
type Wallet struct {
	*resource.Resource[WalletData]
	client   *api.Client
	identity session.Identity
}

func newWallet(scope *provider.Scope, deps *Deps) *Wallet {
	w := &Wallet{client: deps.Client, identity: deps.Identity}
	w.Resource = newResource(scope, deps, "wallet", "load wallet", w.fetch, WalletData{Transactions: []Transaction{}})
	return w
}

func (w *Wallet) fetch(ctx context.Context) (WalletData, error) {
	const op = "load wallet"
	if err := requireUser(op, w.identity); err != nil {
		return WalletData{}, err
	}
	var data WalletData
	if err := w.client.Get(ctx, "/wallet/"+api.PathEscape(w.identity.UserID), &data); err != nil {
		return WalletData{}, err
	}
	data.Transactions = nonNil(data.Transactions)
	return data, nil
}
