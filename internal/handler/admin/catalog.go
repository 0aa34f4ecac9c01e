// Package admin holds the back-office API handlers. Every route here sits
// behind RequireAdmin.
package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/service"
	"github.com/wickshop/ember/internal/store"
)

// CatalogHandler manages products, scents, and categories.
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts handles GET /api/admin/products.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	page, perPage := handler.Paging(c)
	products, total, err := h.catalog.ListProducts(c.Request().Context(), store.ProductFilter{
		CategoryID: c.QueryParam("category"),
		Search:     c.QueryParam("q"),
		SortBy:     c.QueryParam("sort"),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, handler.NewListResponse(products, total, page, perPage))
}

// CreateProduct handles POST /api/admin/products.
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var params service.ProductParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}
	product, err := h.catalog.CreateProduct(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/admin/products/:id.
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var params service.ProductParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}
	product, err := h.catalog.UpdateProduct(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/admin/products/:id.
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	if err := h.catalog.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateScent handles POST /api/admin/scents.
func (h *CatalogHandler) CreateScent(c echo.Context) error {
	var params service.ScentParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}
	scent, err := h.catalog.CreateScent(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, scent)
}

// UpdateScent handles PUT /api/admin/scents/:id.
func (h *CatalogHandler) UpdateScent(c echo.Context) error {
	var params service.ScentParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}
	scent, err := h.catalog.UpdateScent(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, scent)
}

// DeleteScent handles DELETE /api/admin/scents/:id.
func (h *CatalogHandler) DeleteScent(c echo.Context) error {
	if err := h.catalog.DeleteScent(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateCategory handles POST /api/admin/categories.
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var params service.CategoryParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}
	category, err := h.catalog.CreateCategory(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/admin/categories/:id.
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	var params service.CategoryParams
	if err := handler.BindAndValidate(c, &params); err != nil {
		return err
	}
	category, err := h.catalog.UpdateCategory(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/admin/categories/:id.
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	if err := h.catalog.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
