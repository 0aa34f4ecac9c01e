package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

// GuestUserID marks checkouts started without an account.
const GuestUserID = "guest"

// stagedOrderTTL bounds how long an unpaid session keeps its staging record.
// The gateway's hosted sessions expire within a day, so anything older is
// abandoned.
const stagedOrderTTL = 24 * time.Hour

// CheckoutService opens hosted checkout sessions for customer carts.
type CheckoutService interface {
	// CreateSession validates the cart, stages the order detail, and opens a
	// hosted checkout session at the gateway. The returned URL is where the
	// customer pays.
	CreateSession(ctx context.Context, userID string, cart domain.Cart) (*CheckoutSessionInfo, error)

	// SweepExpiredStagedOrders removes staging records whose sessions can no
	// longer complete. Returns the count removed.
	SweepExpiredStagedOrders(ctx context.Context) (int64, error)
}

// CheckoutSessionInfo is what the storefront needs to redirect the customer.
type CheckoutSessionInfo struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
}

// CheckoutConfig carries the storefront-facing URLs and shipping policy.
type CheckoutConfig struct {
	// BaseURL is the public storefront origin, used to build redirect URLs
	// and absolutize relative image paths for the gateway.
	BaseURL string

	// AllowedCountries restricts shipping address collection.
	AllowedCountries []string
}

type checkoutService struct {
	catalog *store.CatalogStore
	orders  *store.OrderStore
	billing billing.Provider
	config  CheckoutConfig
	metrics *telemetry.BusinessMetrics
	log     zerolog.Logger
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(catalog *store.CatalogStore, orders *store.OrderStore, provider billing.Provider, config CheckoutConfig, metrics *telemetry.BusinessMetrics, log zerolog.Logger) CheckoutService {
	return &checkoutService{
		catalog: catalog,
		orders:  orders,
		billing: provider,
		config:  config,
		metrics: metrics,
		log:     log,
	}
}

func (s *checkoutService) CreateSession(ctx context.Context, userID string, cart domain.Cart) (*CheckoutSessionInfo, error) {
	const op = "checkout.CreateSession"
	s.metrics.CheckoutStarted.Inc()

	if err := cart.Validate(); err != nil {
		s.metrics.CheckoutFailed.Inc()
		return nil, err
	}
	if userID == "" {
		userID = GuestUserID
	}

	products, scents, err := s.resolveCartRefs(ctx, op, cart)
	if err != nil {
		s.metrics.CheckoutFailed.Inc()
		return nil, err
	}

	orderID := GenerateOrderID()

	staged := make([]model.StagedItem, 0, len(cart.Lines))
	lineItems := make([]billing.CheckoutLineItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product := products[line.ProductID]
		scent := scents[line.ScentID]

		staged = append(staged, model.StagedItem{
			ProductID: line.ProductID,
			ScentID:   line.ScentID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			AudioURL:  line.AudioURL,
			QRCodeID:  GenerateQRCodeID(),
		})

		imageURL := line.ImageURL
		if imageURL == "" && len(product.Images) > 0 {
			imageURL = product.Images[0]
		}
		lineItems = append(lineItems, billing.CheckoutLineItem{
			Name:            product.Name,
			Description:     fmt.Sprintf("Scent: %s", scent.Name),
			UnitAmountCents: ToCents(line.UnitPrice),
			Quantity:        int64(line.Quantity),
			ImageURL:        s.absoluteURL(imageURL),
		})
	}

	orderData, err := json.Marshal(staged)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Failed to encode order detail")
	}
	tmp := &model.TemporaryOrder{
		OrderID:   orderID,
		UserID:    userID,
		OrderData: string(orderData),
		ExpiresAt: time.Now().Add(stagedOrderTTL),
	}
	if err := s.orders.StageOrder(ctx, tmp); err != nil {
		return nil, err
	}

	sess, err := s.billing.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		LineItems:        lineItems,
		SuccessURL:       s.config.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        s.config.BaseURL + "/checkout/cancel",
		AllowedCountries: s.config.AllowedCountries,
		Metadata: map[string]string{
			"orderId": orderID,
			"userId":  userID,
		},
	})
	if err != nil {
		// The staging record is useless without a session; drop it so the
		// customer can retry cleanly.
		if delErr := s.orders.DeleteStagedOrder(ctx, orderID); delErr != nil {
			s.log.Error().Err(delErr).Str("order_id", orderID).Msg("orphaned staged order")
		}
		s.metrics.CheckoutFailed.Inc()
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Payment provider request failed")
	}

	s.metrics.SessionsCreated.Inc()
	s.log.Info().
		Str("order_id", orderID).
		Str("session_id", sess.ID).
		Str("user_id", userID).
		Int("lines", len(cart.Lines)).
		Msg("checkout session created")

	return &CheckoutSessionInfo{SessionID: sess.ID, URL: sess.URL, OrderID: orderID}, nil
}

func (s *checkoutService) SweepExpiredStagedOrders(ctx context.Context) (int64, error) {
	return s.orders.DeleteExpiredStagedOrders(ctx, time.Now())
}

// resolveCartRefs loads the products and scents the cart references and
// rejects the cart if any are missing.
func (s *checkoutService) resolveCartRefs(ctx context.Context, op string, cart domain.Cart) (map[string]model.Product, map[string]model.Scent, error) {
	productIDs := make([]string, 0, len(cart.Lines))
	scentIDs := make([]string, 0, len(cart.Lines))
	seenP := map[string]bool{}
	seenS := map[string]bool{}
	for _, line := range cart.Lines {
		if !seenP[line.ProductID] {
			seenP[line.ProductID] = true
			productIDs = append(productIDs, line.ProductID)
		}
		if !seenS[line.ScentID] {
			seenS[line.ScentID] = true
			scentIDs = append(scentIDs, line.ScentID)
		}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, err
	}
	scents, err := s.catalog.GetScentsByIDs(ctx, scentIDs)
	if err != nil {
		return nil, nil, err
	}

	productMap := make(map[string]model.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	scentMap := make(map[string]model.Scent, len(scents))
	for _, sc := range scents {
		scentMap[sc.ID] = sc
	}

	var missing []string
	for _, id := range productIDs {
		if _, ok := productMap[id]; !ok {
			missing = append(missing, "product:"+id)
		}
	}
	for _, id := range scentIDs {
		if _, ok := scentMap[id]; !ok {
			missing = append(missing, "scent:"+id)
		}
	}
	if len(missing) > 0 {
		return nil, nil, domain.Errorf(domain.EINVALID, op,
			"Cart references unknown items: %s", strings.Join(missing, ", "))
	}
	return productMap, scentMap, nil
}

// absoluteURL prefixes relative image paths with the storefront origin. The
// gateway rejects relative URLs on line items.
func (s *checkoutService) absoluteURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return s.config.BaseURL + "/" + strings.TrimPrefix(u, "/")
}

// GenerateOrderID builds an order identifier from the current time plus a
// random suffix. The timestamp keeps IDs roughly sortable; the suffix makes
// concurrent checkouts collision-free.
func GenerateOrderID() string {
	return fmt.Sprintf("ord_%d_%s", time.Now().UnixMilli(), randomHex(6))
}

// GenerateQRCodeID mints the opaque token printed on a candle.
func GenerateQRCodeID() string {
	return "qr_" + randomHex(16)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	return hex.EncodeToString(b)
}

// ToCents converts a dollar amount to the smallest currency unit. Rounding
// happens only here, at the gateway boundary.
func ToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// FromCents converts the smallest currency unit back to dollars.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
