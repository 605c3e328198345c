package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Services bundles the handlers' dependencies for router construction.
type Services struct {
	Holds       HoldCreator
	Checkout    CheckoutStarter
	Settlements SettlementHandler
	Products    ProductCatalog
}

// NewRouter wires all routes behind the logging and CORS middleware.
func NewRouter(svcs Services, logger zerolog.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(func(next http.Handler) http.Handler {
		return CORS(corsOrigins, next)
	})

	r.Get("/health", HealthHandler)
	r.Post("/holds", HandleCreateHold(svcs.Holds))
	r.Post("/orders", HandleCheckout(svcs.Checkout))
	r.Post("/payments/webhook", HandlePaymentWebhook(svcs.Settlements))
	r.Post("/products", HandleCreateProduct(svcs.Products))
	r.Get("/products", HandleListProducts(svcs.Products))
	r.Get("/products/{id}", HandleGetProduct(svcs.Products))
	r.NotFound(NotFoundHandler().ServeHTTP)

	return r
}
