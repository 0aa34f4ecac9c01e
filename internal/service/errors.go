package service

import (
	"github.com/wickshop/ember/internal/domain"
)

// Catalog errors.
var (
	ErrProductNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrScentNotFound    = domain.Errorf(domain.ENOTFOUND, "", "Scent not found")
	ErrCategoryNotFound = domain.Errorf(domain.ENOTFOUND, "", "Category not found")
	ErrQRCodeNotFound   = domain.Errorf(domain.ENOTFOUND, "", "QR code not found")
)

// Checkout and payment errors.
var (
	ErrPaymentNotSucceeded = domain.Errorf(domain.EPAYMENT, "", "Payment has not succeeded")
)

// Account errors.
var (
	ErrInvalidCredentials = domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid email or password")
	ErrEmailTaken         = domain.Errorf(domain.ECONFLICT, "", "An account with this email already exists")
)
