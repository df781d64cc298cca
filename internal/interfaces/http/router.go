package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-billing/internal/application/auth"
	"github.com/jhoicas/invorya-billing/internal/application/billing"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DocumentUC *billing.DocumentUseCase
	PaymentUC  *billing.PaymentUseCase
	ConvertUC  *billing.ConvertEstimateUseCase
	AuthUC     *auth.AuthUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Alta de empresa (público: bootstrap de cuenta)
	api.Post("/companies", authHandler.CreateCompany)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Documentos: estimates y facturas (protegido)
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Put("/:id/items", documentHandler.UpdateItems)
	documents.Post("/:id/transition", documentHandler.Transition)
	documents.Delete("/:id", RequireRole(entity.RoleAdmin, entity.RoleContador), documentHandler.Delete)

	// Pagos y conversión (protegido)
	paymentHandler := NewPaymentHandler(deps.PaymentUC, deps.ConvertUC)
	invoices := protected.Group("/invoices")
	invoices.Post("/:id/payments", paymentHandler.ApplyPayment)
	invoices.Post("/:id/payments/:paymentId/refund", RequireRole(entity.RoleAdmin, entity.RoleContador), paymentHandler.RefundPayment)

	estimates := protected.Group("/estimates")
	estimates.Post("/:id/convert", paymentHandler.Convert)
}
