package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/commerce-core/internal/application/cart"
	"github.com/jhoicas/commerce-core/internal/application/order"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/application/stock"
	"github.com/jhoicas/commerce-core/internal/application/sweeper"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *stock.Ledger
	Engine    *reservation.Engine
	CartUC    *cart.UseCase
	OrderUC   *order.UseCase
	Sweeper   *sweeper.Sweeper
	Products  repository.ProductRepository
	Settings  ports.Settings
	Clock     ports.Clock
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido, superficie mínima)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Products)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)

	// Stock ledger (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger)
	stockGroup.Post("/movements", stockHandler.RecordMovement)
	stockGroup.Post("/movements/:id/cancel", stockHandler.CancelMovement)
	stockGroup.Get("/:product_id", stockHandler.GetSummary)
	stockGroup.Get("/:product_id/movements", stockHandler.ListMovements)

	// Reservations (protegido)
	reservations := protected.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.Engine, deps.Settings)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/finalize", reservationHandler.Finalize)

	// Carts (protegido)
	carts := protected.Group("/carts")
	cartHandler := NewCartHandler(deps.CartUC)
	carts.Post("/items", cartHandler.AddItem)
	carts.Get("/:id", cartHandler.Get)
	carts.Put("/:id/items/:item_id", cartHandler.UpdateItem)
	carts.Delete("/:id/items/:item_id", cartHandler.RemoveItem)
	carts.Post("/:id/checkout", cartHandler.Checkout)

	// Orders (protegido)
	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders.Get("/:id", orderHandler.Get)
	orders.Get("/:id/notes", orderHandler.Notes)
	orders.Post("/:id/transition", orderHandler.Transition)

	// Admin (protegido + rol admin dentro del handler)
	admin := protected.Group("/admin")
	sweepHandler := NewSweepHandler(deps.Sweeper, deps.Clock)
	admin.Post("/sweep", sweepHandler.Run)
}
