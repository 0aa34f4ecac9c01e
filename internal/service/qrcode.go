package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

// QRLookupResult is everything the unlock experience needs to render: the
// purchased product, the chosen scent, the optional personal audio message,
// and the animation palette derived from the scent and category.
type QRLookupResult struct {
	Product  *model.Product `json:"product"`
	Scent    *model.Scent   `json:"scent"`
	AudioURL string         `json:"audioUrl,omitempty"`
	Animation struct {
		Color string `json:"color"`
		Icon  string `json:"icon"`
	} `json:"animation"`
}

// QRCodeService resolves candle tokens for the unlock experience.
type QRCodeService interface {
	// Lookup resolves a token. Unknown tokens yield a plain not-found; the
	// response must not reveal whether a token was ever valid.
	Lookup(ctx context.Context, code string) (*QRLookupResult, error)
}

type qrCodeService struct {
	qrcodes *store.QRCodeStore
	catalog *store.CatalogStore
	metrics *telemetry.BusinessMetrics
	log     zerolog.Logger
}

// NewQRCodeService creates a QRCodeService.
func NewQRCodeService(qrcodes *store.QRCodeStore, catalog *store.CatalogStore, metrics *telemetry.BusinessMetrics, log zerolog.Logger) QRCodeService {
	return &qrCodeService{qrcodes: qrcodes, catalog: catalog, metrics: metrics, log: log}
}

func (s *qrCodeService) Lookup(ctx context.Context, code string) (*QRLookupResult, error) {
	const op = "qrcode.Lookup"
	s.metrics.QRLookups.Inc()

	if code == "" {
		s.metrics.QRLookupMisses.Inc()
		return nil, ErrQRCodeNotFound
	}

	_, item, err := s.qrcodes.GetByCode(ctx, code)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			s.metrics.QRLookupMisses.Inc()
			return nil, ErrQRCodeNotFound
		}
		return nil, err
	}

	result := &QRLookupResult{AudioURL: item.AudioURL}

	// The catalog rows may have been deleted since purchase; the unlock page
	// still renders with what survives.
	if product, err := s.catalog.GetProduct(ctx, item.ProductID); err == nil {
		result.Product = product
		if product.Category != nil {
			result.Animation.Icon = product.Category.Icon
		}
	} else if domain.ErrorCode(err) != domain.ENOTFOUND {
		return nil, err
	}
	if scent, err := s.catalog.GetScent(ctx, item.ScentID); err == nil {
		result.Scent = scent
		result.Animation.Color = scent.Color
	} else if domain.ErrorCode(err) != domain.ENOTFOUND {
		return nil, err
	}

	return result, nil
}
