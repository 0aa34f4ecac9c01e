// Package server assembles the HTTP router.
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/handler/admin"
	"github.com/wickshop/ember/internal/handler/storefront"
	"github.com/wickshop/ember/internal/handler/webhook"
	"github.com/wickshop/ember/internal/middleware"
	"github.com/wickshop/ember/internal/service"
	"github.com/wickshop/ember/internal/telemetry"
)

// Deps bundles everything the router needs.
type Deps struct {
	Log zerolog.Logger

	Users     service.UserService
	Catalog   service.CatalogService
	Checkout  service.CheckoutService
	Orders    service.OrderService
	Returns   service.ReturnService
	Dashboard service.DashboardService
	QRCodes   service.QRCodeService

	Provider      billing.Provider
	WebhookSecret string

	Metrics       *telemetry.BusinessMetrics
	HTTPMetrics   *middleware.HTTPMetrics
	SecureCookies bool
}

// New builds the echo instance with all routes registered.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(deps.Log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(deps.Log))
	if deps.HTTPMetrics != nil {
		e.Use(deps.HTTPMetrics.Middleware())
	}
	e.Use(middleware.WithUser(deps.Users))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	products := storefront.NewProductHandler(deps.Catalog)
	checkout := storefront.NewCheckoutHandler(deps.Checkout, deps.Orders)
	orders := storefront.NewOrderHandler(deps.Orders, deps.Returns)
	qrcodes := storefront.NewQRCodeHandler(deps.QRCodes)
	auth := storefront.NewAuthHandler(deps.Users, deps.SecureCookies)

	api := e.Group("/api")
	api.GET("/products", products.List)
	api.GET("/products/:id", products.Get)
	api.GET("/scents", products.ListScents)
	api.GET("/categories", products.ListCategories)
	api.GET("/qr/:code", qrcodes.Lookup)

	api.POST("/auth/signup", auth.Signup)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/logout", auth.Logout)
	api.GET("/auth/me", auth.Me, middleware.RequireAuth)

	api.POST("/checkout/session", checkout.CreateSession)
	api.POST("/checkout/confirm", checkout.Confirm)

	api.GET("/orders", orders.List, middleware.RequireAuth)
	api.GET("/orders/:id", orders.Get, middleware.RequireAuth)
	api.GET("/orders/:id/returns", orders.ListOrderReturns, middleware.RequireAuth)
	api.POST("/returns", orders.CreateReturn, middleware.RequireAuth)

	adminCatalog := admin.NewCatalogHandler(deps.Catalog)
	adminOrders := admin.NewOrderHandler(deps.Orders)
	adminReturns := admin.NewReturnHandler(deps.Returns)
	adminUsers := admin.NewUserHandler(deps.Users)
	adminDashboard := admin.NewDashboardHandler(deps.Dashboard)

	back := api.Group("/admin", middleware.RequireAdmin)
	back.GET("/dashboard", adminDashboard.Overview)

	back.GET("/products", adminCatalog.ListProducts)
	back.POST("/products", adminCatalog.CreateProduct)
	back.PUT("/products/:id", adminCatalog.UpdateProduct)
	back.DELETE("/products/:id", adminCatalog.DeleteProduct)

	back.POST("/scents", adminCatalog.CreateScent)
	back.PUT("/scents/:id", adminCatalog.UpdateScent)
	back.DELETE("/scents/:id", adminCatalog.DeleteScent)

	back.POST("/categories", adminCatalog.CreateCategory)
	back.PUT("/categories/:id", adminCatalog.UpdateCategory)
	back.DELETE("/categories/:id", adminCatalog.DeleteCategory)

	back.GET("/orders", adminOrders.List)
	back.GET("/orders/:id", adminOrders.Get)
	back.PATCH("/orders/:id/status", adminOrders.UpdateStatus)

	back.GET("/returns", adminReturns.List)
	back.GET("/returns/:id", adminReturns.Get)
	back.PATCH("/returns/:id/status", adminReturns.UpdateStatus)
	back.PATCH("/returns/:id/tracking", adminReturns.UpdateTracking)
	back.POST("/returns/:id/refund", adminReturns.ProcessRefund)
	back.DELETE("/returns/:id", adminReturns.Delete)

	back.GET("/users", adminUsers.List)
	back.GET("/users/:id", adminUsers.Get)
	back.PATCH("/users/:id", adminUsers.Update)
	back.DELETE("/users/:id", adminUsers.Delete)

	stripeWebhook := webhook.NewStripeHandler(deps.Provider, deps.Orders, deps.WebhookSecret, deps.Metrics, deps.Log)
	e.POST("/webhooks/stripe", stripeWebhook.Handle)

	return e
}
