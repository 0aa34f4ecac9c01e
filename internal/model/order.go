package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
)

// TemporaryOrder is the staging record bridging checkout-session creation and
// order materialization. The gateway carries only the OrderID in its session
// metadata; the full line-item detail lives here until the payment completes.
// Consumed (read once, then deleted) at materialization time.
type TemporaryOrder struct {
	OrderID   string    `gorm:"primaryKey;size:64" json:"orderId"`
	UserID    string    `gorm:"not null" json:"userId"` // "guest" for anonymous checkouts
	OrderData string    `gorm:"type:text;not null" json:"orderData"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// StagedItem is one line of a TemporaryOrder's serialized OrderData.
// UnitPrice is the price snapshot captured at staging; QRCodeID is the token
// minted at checkout time and reused verbatim as the QR code value.
type StagedItem struct {
	ProductID string  `json:"productId"`
	ScentID   string  `json:"scentId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	AudioURL  string  `json:"audioUrl,omitempty"`
	QRCodeID  string  `json:"qrCodeId"`
}

// Order is a materialized, paid order. ID equals the orderId generated at
// checkout-session time, which is what makes materialization idempotent: a
// second create for the same session hits the primary key.
type Order struct {
	ID              string             `gorm:"primaryKey;size:64" json:"id"`
	UserID          string             `gorm:"not null;index" json:"userId"`
	Status          domain.OrderStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	Total           float64            `gorm:"not null" json:"total"`
	PaymentIntentID string             `gorm:"size:128" json:"-"`
	Items           []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	ShippingAddress *Address           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"shippingAddress,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// OrderItem is one purchased line. Price is the unit price snapshotted from
// the staged data, not a live reference to the current product price.
// Immutable after creation except for its reverse relation to at most one
// Return.
type OrderItem struct {
	ID        string  `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string  `gorm:"size:64;not null;index" json:"orderId"`
	ProductID string  `gorm:"size:36;not null" json:"productId"`
	ScentID   string  `gorm:"size:36;not null" json:"scentId"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Price     float64 `gorm:"not null" json:"price"`
	AudioURL  string  `json:"audioUrl,omitempty"`
	// Product is nil when the catalog entry has since been deleted.
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QRCode    *QRCode `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE" json:"qrCode,omitempty"`
	Return    *Return `gorm:"foreignKey:OrderItemID" json:"return,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// QRCode maps the opaque token embedded in a physical candle back to its
// order item. Code is globally unique and never reused.
type QRCode struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Code        string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	OrderItemID string    `gorm:"size:36;uniqueIndex;not null" json:"orderItemId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (q *QRCode) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// Address is the shipping address owned exclusively by one order.
type Address struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OrderID string `gorm:"size:64;uniqueIndex;not null" json:"orderId"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
