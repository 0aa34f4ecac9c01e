package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/service"
)

// QRCodeHandler serves the public candle unlock endpoint.
type QRCodeHandler struct {
	qrcodes service.QRCodeService
}

// NewQRCodeHandler creates a QRCodeHandler.
func NewQRCodeHandler(qrcodes service.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{qrcodes: qrcodes}
}

// Lookup handles GET /api/qr/:code. No auth: the token itself is the
// capability.
func (h *QRCodeHandler) Lookup(c echo.Context) error {
	result, err := h.qrcodes.Lookup(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
