// Package billing abstracts the payment gateway behind a neutral Provider
// interface. Services and handlers never touch gateway SDK types directly.
package billing

import (
	"context"
	"time"
)

// Provider defines the payment gateway operations the shop needs.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout session for a staged
	// order. The session's metadata must round-trip unchanged through the
	// gateway; it carries the order reference back on the webhook.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// GetCheckoutSession retrieves a session with its payment and customer
	// detail expanded.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// CreateRefund refunds a completed payment, fully or partially.
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CheckoutLineItem is one purchasable line presented on the hosted checkout
// page. UnitAmountCents is in the smallest currency unit.
type CheckoutLineItem struct {
	Name            string
	Description     string
	UnitAmountCents int64
	Quantity        int64
	ImageURL        string
}

// CreateCheckoutSessionParams contains parameters for opening a checkout
// session.
type CreateCheckoutSessionParams struct {
	LineItems []CheckoutLineItem

	// SuccessURL receives the customer after payment. It should carry the
	// gateway's session-id placeholder so the confirm endpoint can resolve
	// the session.
	SuccessURL string
	CancelURL  string

	// AllowedCountries restricts shipping address collection (ISO 3166-1
	// alpha-2).
	AllowedCountries []string

	// CustomerEmail prefills the checkout form when known.
	CustomerEmail string

	// Metadata is attached to the session and echoed back on webhooks.
	Metadata map[string]string
}

// PostalAddress is a gateway-neutral shipping address.
type PostalAddress struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// CheckoutSession is a gateway-neutral view of a hosted checkout session.
type CheckoutSession struct {
	ID               string
	URL              string
	AmountTotalCents int64
	Currency         string
	PaymentStatus    string
	PaymentIntentID  string
	Metadata         map[string]string

	CustomerEmail   string
	CustomerName    string
	ShippingName    string
	ShippingAddress *PostalAddress

	CreatedAt time.Time
}

// Paid reports whether the session's payment has completed.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required"
}

// RefundParams contains parameters for refunding a payment. AmountCents of
// zero refunds the full charge.
type RefundParams struct {
	PaymentIntentID string
	AmountCents     int64
	Reason          string
	Metadata        map[string]string
}

// Refund is a gateway-neutral view of a refund.
type Refund struct {
	ID          string
	Status      string
	AmountCents int64
	CreatedAt   time.Time
}
