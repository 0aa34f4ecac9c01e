package billing

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	config StripeConfig
}

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the Stripe secret key (sk_test_... or sk_live_...).
	APIKey string

	// WebhookSecret is the webhook signing secret (whsec_...).
	WebhookSecret string
}

// Validate checks that required configuration is present.
func (c *StripeConfig) Validate() error {
	if c.APIKey == "" {
		return ErrInvalidAPIKey
	}
	if c.WebhookSecret == "" {
		return errors.New("billing: webhook secret is required")
	}
	return nil
}

// IsTestMode reports whether the API key is a test mode key.
func (c *StripeConfig) IsTestMode() bool {
	return len(c.APIKey) > 7 && c.APIKey[:8] == "sk_test_"
}

// NewStripeProvider creates a Stripe billing provider and sets the global SDK
// key.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	stripe.Key = config.APIKey
	return &StripeProvider{config: config}, nil
}

// CreateCheckoutSession opens a hosted checkout session in payment mode with
// free shipping and address collection restricted to the allowed countries.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, li := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			productData.Description = stripe.String(li.Description)
		}
		if li.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{li.ImageURL})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount:  stripe.Int64(li.UnitAmountCents),
				ProductData: productData,
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata:   params.Metadata,
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
					Type:        stripe.String("fixed_amount"),
					DisplayName: stripe.String("Free shipping"),
					FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(0),
						Currency: stripe.String(string(stripe.CurrencyUSD)),
					},
				},
			},
		},
	}
	if len(params.AllowedCountries) > 0 {
		sessionParams.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(params.AllowedCountries),
		}
	}
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	sessionParams.Context = ctx

	sess, err := session.New(sessionParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return fromStripeSession(sess), nil
}

// GetCheckoutSession retrieves a session with payment intent and customer
// details expanded.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	getParams.AddExpand("payment_intent")
	getParams.AddExpand("customer_details")

	sess, err := session.Get(sessionID, getParams)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStripeErr(err)
	}
	return fromStripeSession(sess), nil
}

// CreateRefund refunds against a payment intent. A zero amount refunds the
// full remaining charge.
func (p *StripeProvider) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
		Metadata:      params.Metadata,
	}
	refundParams.Context = ctx
	if params.AmountCents > 0 {
		refundParams.Amount = stripe.Int64(params.AmountCents)
	}
	if params.Reason != "" {
		refundParams.Reason = stripe.String(params.Reason)
	}

	r, err := refund.New(refundParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}
	return &Refund{
		ID:          r.ID,
		Status:      string(r.Status),
		AmountCents: r.Amount,
		CreatedAt:   time.Unix(r.Created, 0),
	}, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the
// payload.
func (p *StripeProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	if _, err := webhook.ConstructEvent(payload, signature, secret); err != nil {
		return ErrInvalidWebhookSignature
	}
	return nil
}

func fromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:               sess.ID,
		URL:              sess.URL,
		AmountTotalCents: sess.AmountTotal,
		Currency:         string(sess.Currency),
		PaymentStatus:    string(sess.PaymentStatus),
		Metadata:         sess.Metadata,
		CreatedAt:        time.Unix(sess.Created, 0),
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if cd := sess.CustomerDetails; cd != nil {
		out.CustomerEmail = cd.Email
		out.CustomerName = cd.Name
		if cd.Address != nil {
			out.ShippingAddress = fromStripeAddress(cd.Address)
		}
	}
	// The collected shipping address wins over the billing address fallback.
	if ci := sess.CollectedInformation; ci != nil && ci.ShippingDetails != nil {
		out.ShippingName = ci.ShippingDetails.Name
		if ci.ShippingDetails.Address != nil {
			out.ShippingAddress = fromStripeAddress(ci.ShippingDetails.Address)
		}
	}
	return out
}

func fromStripeAddress(a *stripe.Address) *PostalAddress {
	return &PostalAddress{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func wrapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &GatewayError{
			Message:       stripeErr.Msg,
			Code:          string(stripeErr.Code),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
	}
	return err
}
