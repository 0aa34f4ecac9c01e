package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is an in-memory billing provider for tests. Default behavior
// simulates a successful payment flow; each method can be overridden per test
// via its Func field.
type MockProvider struct {
	CreateCheckoutSessionFunc  func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)
	GetCheckoutSessionFunc     func(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateRefundFunc           func(ctx context.Context, params RefundParams) (*Refund, error)
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) error

	// Sessions stores created sessions for retrieval.
	Sessions map[string]*CheckoutSession

	// Refunds stores issued refunds keyed by refund ID.
	Refunds map[string]*Refund

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

// NewMockProvider creates a mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		Refunds:  make(map[string]*Refund),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession creates a mock checkout session in the unpaid state.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%d items)", len(params.LineItems)))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	var total int64
	for _, li := range params.LineItems {
		total += li.UnitAmountCents * li.Quantity
	}
	sess := &CheckoutSession{
		ID:               "cs_test_" + uuid.NewString(),
		URL:              "https://checkout.example.com/pay/" + uuid.NewString(),
		AmountTotalCents: total,
		Currency:         "usd",
		PaymentStatus:    "unpaid",
		Metadata:         params.Metadata,
		CustomerEmail:    params.CustomerEmail,
		CreatedAt:        time.Now(),
	}
	m.Sessions[sess.ID] = sess
	return sess, nil
}

// GetCheckoutSession retrieves a stored session.
func (m *MockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetCheckoutSession(%s)", sessionID))

	if m.GetCheckoutSessionFunc != nil {
		return m.GetCheckoutSessionFunc(ctx, sessionID)
	}

	sess, ok := m.Sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// CompletePayment marks a stored session as paid, as the gateway would after
// a successful charge.
func (m *MockProvider) CompletePayment(sessionID string) *CheckoutSession {
	sess, ok := m.Sessions[sessionID]
	if !ok {
		return nil
	}
	sess.PaymentStatus = "paid"
	if sess.PaymentIntentID == "" {
		sess.PaymentIntentID = "pi_" + uuid.NewString()
	}
	return sess
}

// CreateRefund issues a mock refund in the succeeded state.
func (m *MockProvider) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateRefund(%s, %d)", params.PaymentIntentID, params.AmountCents))

	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, params)
	}

	r := &Refund{
		ID:          "re_" + uuid.NewString(),
		Status:      "succeeded",
		AmountCents: params.AmountCents,
		CreatedAt:   time.Now(),
	}
	m.Refunds[r.ID] = r
	return r, nil
}

// VerifyWebhookSignature accepts any non-empty signature by default.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}
	if signature == "" {
		return ErrInvalidWebhookSignature
	}
	return nil
}
