package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// QRCodeStore resolves the opaque tokens printed on candles.
type QRCodeStore struct {
	db *gorm.DB
}

func NewQRCodeStore(db *gorm.DB) *QRCodeStore {
	return &QRCodeStore{db: db}
}

// GetByCode resolves a token to its QR record and owning order item.
func (s *QRCodeStore) GetByCode(ctx context.Context, code string) (*model.QRCode, *model.OrderItem, error) {
	const op = "QRCodeStore.GetByCode"

	var qr model.QRCode
	err := s.db.WithContext(ctx).First(&qr, "code = ?", code).Error
	if IsNotFound(err) {
		return nil, nil, domain.Errorf(domain.ENOTFOUND, op, "QR code not found")
	}
	if err != nil {
		return nil, nil, wrapErr(op, err)
	}

	var item model.OrderItem
	err = s.db.WithContext(ctx).First(&item, "id = ?", qr.OrderItemID).Error
	if IsNotFound(err) {
		return nil, nil, domain.Errorf(domain.ENOTFOUND, op, "QR code not found")
	}
	if err != nil {
		return nil, nil, wrapErr(op, err)
	}
	return &qr, &item, nil
}
