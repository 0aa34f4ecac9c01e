// Package storefront holds the customer-facing API handlers.
package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/service"
	"github.com/wickshop/ember/internal/store"
)

// ProductHandler serves the public catalog.
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c echo.Context) error {
	page, perPage := handler.Paging(c)
	filter := store.ProductFilter{
		CategoryID: c.QueryParam("category"),
		ScentID:    c.QueryParam("scent"),
		Search:     c.QueryParam("q"),
		SortBy:     c.QueryParam("sort"),
		Page:       page,
		PerPage:    perPage,
	}

	products, total, err := h.catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, handler.NewListResponse(products, total, page, perPage))
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// ListScents handles GET /api/scents.
func (h *ProductHandler) ListScents(c echo.Context) error {
	scents, err := h.catalog.ListScents(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, scents)
}

// ListCategories handles GET /api/categories.
func (h *ProductHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}
