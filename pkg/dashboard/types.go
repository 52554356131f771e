package dashboard

import (
	"encoding/json"
	"time"
)

// Zone is a serviceable area.
type Zone struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	City     string   `json:"city,omitempty"`
	Pincodes []string `json:"pincodes,omitempty"`
	Active   bool     `json:"isActive"`
}

// ZoneInput creates a zone.
type ZoneInput struct {
	Name     string   `json:"name"`
	City     string   `json:"city,omitempty"`
	Pincodes []string `json:"pincodes,omitempty"`
}

// BeneficiaryInput registers a bank account for payouts.
type BeneficiaryInput struct {
	UserID        string `json:"userId"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName"`
}

// BankDetails is the bank account stored for a provider.
type BankDetails struct {
	ID            string `json:"_id,omitempty"`
	UserID        string `json:"userId"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName"`
	BranchName    string `json:"branchName"`
	BeneficiaryID string `json:"beneficiaryId,omitempty"`
}

// PayoutData is the payout slice: the payment gateway's answer and the
// saved bank details. CashfreeResponse is kept verbatim.
type PayoutData struct {
	CashfreeResponse json.RawMessage `json:"cashfreeResponse,omitempty"`
	SavedBankDetails *BankDetails    `json:"savedBankDetails,omitempty"`
}

// PayoutRequest asks for a withdrawal from the wallet.
type PayoutRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// Transaction is one wallet movement.
type Transaction struct {
	ID        string    `json:"_id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status,omitempty"`
	Note      string    `json:"description,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// WalletData is a provider's balance and history.
type WalletData struct {
	UserID       string        `json:"userId"`
	Balance      float64       `json:"balance"`
	Pending      float64       `json:"pendingAmount"`
	Transactions []Transaction `json:"transactions"`
}

// GalleryData is a provider's image gallery.
type GalleryData struct {
	UserID string   `json:"userId"`
	Images []string `json:"images"`
}

// Booking is a customer booking of a provider's service.
type Booking struct {
	ID          string    `json:"_id"`
	CustomerID  string    `json:"customerId"`
	ProviderID  string    `json:"providerId"`
	ServiceName string    `json:"serviceName"`
	Status      string    `json:"status"`
	Amount      float64   `json:"amount"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Address     string    `json:"address,omitempty"`
}

// Booking statuses accepted by UpdateStatus.
const (
	BookingPending   = "pending"
	BookingAccepted  = "accepted"
	BookingRejected  = "rejected"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Coupon is a discount code.
type Coupon struct {
	Code          string    `json:"code"`
	DiscountType  string    `json:"discountType"`
	DiscountValue float64   `json:"discountValue"`
	MinOrder      float64   `json:"minOrderValue,omitempty"`
	ExpiresAt     time.Time `json:"expiryDate"`
	Active        bool      `json:"isActive"`
}

// Order is a checkout order.
type Order struct {
	ID        string  `json:"_id,omitempty"`
	OrderID   string  `json:"orderId"`
	UserID    string  `json:"userId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	PlanName  string  `json:"planName,omitempty"`
	PaymentID string  `json:"paymentId,omitempty"`
}

// OrderInput creates an order.
type OrderInput struct {
	UserID   string  `json:"userId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	PlanName string  `json:"planName,omitempty"`
}

// PaymentVerification confirms a payment against an order.
type PaymentVerification struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// Ticket is a support ticket.
type Ticket struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketInput opens a support ticket.
type TicketInput struct {
	UserID  string `json:"userId"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// StatsData are the summary cards of the dashboard home.
type StatsData struct {
	TotalBookings     int     `json:"totalBookings"`
	PendingBookings   int     `json:"pendingBookings"`
	CompletedBookings int     `json:"completedBookings"`
	TotalEarnings     float64 `json:"totalEarnings"`
	ActiveProviders   int     `json:"activeProviders"`
	ActiveZones       int     `json:"activeZones"`
}

// ProfileData is a provider's public profile.
type ProfileData struct {
	UserID      string   `json:"userId"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Services    []string `json:"services,omitempty"`
	ZoneID      string   `json:"zoneId,omitempty"`
	Description string   `json:"description,omitempty"`
	Verified    bool     `json:"isVerified"`
}

// ProfileUpdate changes editable profile fields. Nil fields are left as
// they are.
type ProfileUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Services    []string `json:"services,omitempty"`
	ZoneID      *string  `json:"zoneId,omitempty"`
	Description *string  `json:"description,omitempty"`
}
