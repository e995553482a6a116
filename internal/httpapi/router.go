package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andreasstove999/retail-backend/internal/metrics"
)

type RouterDeps struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Cart    *CartHandler
	Order   *OrderHandler

	Resolver PrincipalResolver
	Metrics  *metrics.Metrics

	// CORSAllowOrigins enables the CORS middleware when non-empty.
	CORSAllowOrigins []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(d.CORSAllowOrigins) > 0 {
		r.Use(CORS(d.CORSAllowOrigins))
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/health", healthHandler)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", d.Auth.Register)
		r.Post("/login", d.Auth.Login)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", d.Catalog.List)
		r.Get("/search", d.Catalog.Search)
		r.Get("/category/{category}", d.Catalog.ListByCategory)
		r.Get("/{productId}", d.Catalog.Get)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Resolver), RequireAdmin)
			r.Post("/", d.Catalog.Create)
			r.Put("/{productId}", d.Catalog.Update)
			r.Delete("/{productId}", d.Catalog.Delete)
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(RequireAuth(d.Resolver))
		r.Get("/", d.Cart.Get)
		r.Post("/items", d.Cart.AddItem)
		r.Delete("/items/{itemId}", d.Cart.RemoveItem)
		r.Delete("/", d.Cart.Clear)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(RequireAuth(d.Resolver))
		r.Post("/", d.Order.Create)
		r.Get("/", d.Order.List)
		r.Get("/{orderId}", d.Order.Get)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Put("/{orderId}/status", d.Order.UpdateStatus)
		})
	})

	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(RequireAuth(d.Resolver), RequireAdmin)
		r.Get("/", d.Order.AdminList)
		r.Get("/status/{status}", d.Order.AdminListByStatus)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "retail-backend",
	})
}
