package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
)

// Return tracks a customer-initiated return for a single order item. The
// uniqueIndex on OrderItemID enforces the at-most-one-return-per-item rule at
// the database level; the service surfaces the violation as a conflict.
type Return struct {
	ID           string              `gorm:"primaryKey;size:36" json:"id"`
	OrderItemID  string              `gorm:"size:36;uniqueIndex;not null" json:"orderItemId"`
	Reason       string              `gorm:"not null" json:"reason"`
	Description  string              `json:"description,omitempty"`
	Status       domain.ReturnStatus `gorm:"size:32;not null;default:'REQUESTED'" json:"status"`
	RefundStatus domain.RefundStatus `gorm:"size:16;not null;default:'PENDING'" json:"refundStatus"`

	RefundAmount   *float64   `json:"refundAmount,omitempty"`
	StripeRefundID string     `gorm:"size:128" json:"stripeRefundId,omitempty"`
	RefundedAt     *time.Time `json:"refundedAt,omitempty"`

	AdminNote          string     `json:"adminNote,omitempty"`
	ReturnInstructions string     `json:"returnInstructions,omitempty"`
	ReturnAddress      string     `json:"returnAddress,omitempty"`
	ReturnDeadline     *time.Time `json:"returnDeadline,omitempty"`

	TrackingNumber string `gorm:"size:64" json:"trackingNumber,omitempty"`
	Carrier        string `gorm:"size:64" json:"carrier,omitempty"`
	TrackingURL    string `json:"trackingUrl,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func (r *Return) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
