// Package store implements data access on top of the ORM. Stores translate
// database failures into domain errors; services never see driver errors.
package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
)

// Stores bundles every store over a shared database handle.
type Stores struct {
	Catalog  *CatalogStore
	Orders   *OrderStore
	Returns  *ReturnStore
	QRCodes  *QRCodeStore
	Users    *UserStore
	Sessions *SessionStore
	Stats    *StatsStore
}

// New builds the full store set over db.
func New(db *gorm.DB) *Stores {
	return &Stores{
		Catalog:  NewCatalogStore(db),
		Orders:   NewOrderStore(db),
		Returns:  NewReturnStore(db),
		QRCodes:  NewQRCodeStore(db),
		Users:    NewUserStore(db),
		Sessions: NewSessionStore(db),
		Stats:    NewStatsStore(db),
	}
}

// wrapErr converts an unexpected database failure into an internal domain
// error, keeping the driver error attached for logging.
func wrapErr(op string, err error) error {
	return domain.WrapError(err, domain.EINTERNAL, op, "Database operation failed")
}

// IsDuplicateKey reports whether err is a primary key or unique index
// violation. TranslateError covers the common case; the string checks catch
// drivers that surface the raw constraint error.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports whether err is the ORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
