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

// PayoutContext provides the payout slice.
var PayoutContext = provider.Create[*Payout]("Payout")

// UsePayout returns the payout slice of the mounted dashboard.
func UsePayout(ctx context.Context) (*Payout, error) {
	return PayoutContext.Use(ctx)
}

// Payout holds the provider's registered beneficiary.
type Payout struct {
	*resource.Resource[PayoutData]
	client   *api.Client
	identity session.Identity
	wallet   *Wallet
}

func newPayout(scope *provider.Scope, deps *Deps, wallet *Wallet) *Payout {
	p := &Payout{client: deps.Client, identity: deps.Identity, wallet: wallet}
	p.Resource = newResource(scope, deps, "payout", "load payout details", p.fetch, PayoutData{})
	return p
}

func (p *Payout) fetch(ctx context.Context) (PayoutData, error) {
	const op = "load payout details"
	if err := requireUser(op, p.identity); err != nil {
		return PayoutData{}, err
	}
	var details BankDetails
	if err := p.client.Get(ctx, "/payout/beneficiary/"+api.PathEscape(p.identity.UserID), &details); err != nil {
		return PayoutData{}, err
	}
	cur := p.Data()
	cur.SavedBankDetails = &details
	return cur, nil
}

// Validate checks a beneficiary before it is sent.
func (in BeneficiaryInput) Validate() error {
	const op = "add beneficiary"
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return dasherrors.Precondition(op, "user id is required")
	case strings.TrimSpace(in.AccountNumber) == "":
		return dasherrors.Precondition(op, "account number is required")
	case strings.Trim(in.AccountNumber, "0123456789") != "":
		return dasherrors.Precondition(op, "account number must be numeric")
	case strings.TrimSpace(in.IFSC) == "":
		return dasherrors.Precondition(op, "IFSC code is required")
	case strings.TrimSpace(in.BankName) == "":
		return dasherrors.Precondition(op, "bank name is required")
	case strings.TrimSpace(in.BranchName) == "":
		return dasherrors.Precondition(op, "branch name is required")
	}
	return nil
}

// AddBeneficiary registers a bank account and stores the gateway's answer
// together with the saved details as the slice data.
func (p *Payout) AddBeneficiary(ctx context.Context, in BeneficiaryInput) (PayoutData, error) {
	const action = "add beneficiary"
	var out PayoutData
	err := p.Mutate(ctx, action, func(ctx context.Context, cur PayoutData) (PayoutData, error) {
		if in.UserID == "" {
			in.UserID = p.identity.UserID
		}
		in.IFSC = strings.ToUpper(strings.TrimSpace(in.IFSC))
		if err := in.Validate(); err != nil {
			return cur, err
		}
		if err := p.client.Post(ctx, "/payout/add-beneficiary", in, &out); err != nil {
			return cur, err
		}
		if out.SavedBankDetails == nil && out.CashfreeResponse == nil {
			return cur, dasherrors.New(dasherrors.KindMalformed, "POST /payout/add-beneficiary").WithDetail("missing beneficiary details")
		}
		return out, nil
	})
	return out, err
}

// RequestPayout asks for a withdrawal and refreshes the wallet once the
// request was accepted.
func (p *Payout) RequestPayout(ctx context.Context, amount float64) error {
	const action = "request payout"
	err := p.Mutate(ctx, action, func(ctx context.Context, cur PayoutData) (PayoutData, error) {
		if err := requireUser(action, p.identity); err != nil {
			return cur, err
		}
		if amount <= 0 {
			return cur, dasherrors.Precondition(action, "amount must be positive")
		}
		if cur.SavedBankDetails == nil {
			return cur, dasherrors.Precondition(action, "no bank account registered")
		}
		if p.wallet != nil && p.wallet.IsReady() && amount > p.wallet.Data().Balance {
			return cur, dasherrors.Precondition(action, "amount exceeds wallet balance")
		}
		req := PayoutRequest{UserID: p.identity.UserID, Amount: amount}
		if err := p.client.Post(ctx, "/payout/request", req, nil); err != nil {
			return cur, err
		}
		return cur, nil
	})
	if err != nil || p.wallet == nil {
		return err
	}
	// The payout itself succeeded; a failed wallet refresh is recorded on
	// the wallet slice.
	p.wallet.Invalidate()
	_ = p.wallet.Refetch(ctx)
	return nil
}
