package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Catalog        ProductCatalog
	Sessions       SessionProvider
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())

	products := NewProductHandler(cfg.Catalog, cfg.RequestTimeout, cfg.Logger)
	carts := NewCartHandler(cfg.Catalog, validate, cfg.RequestTimeout, cfg.Logger)
	orders := NewOrdersHandler(cfg.RequestTimeout, cfg.Logger)
	health := newResponder(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", products.ListProducts)
		r.Get("/products/{id}", products.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Sessions, cfg.Logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Delete("/", carts.ClearCart)
				r.Post("/toggle", carts.ToggleCart)
				r.Post("/items", carts.AddItem)
				r.Put("/items/{product_id}", carts.UpdateQuantity)
				r.Delete("/items/{product_id}", carts.RemoveItem)
				r.Put("/lines/{key}", carts.UpdateLine)
				r.Delete("/lines/{key}", carts.RemoveLine)
			})
			r.Put("/location", carts.SetLocation)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orders.CreateOrder)
				r.Get("/current", orders.CurrentOrder)
				r.Delete("/current", orders.ClearOrder)
			})
		})
	})

	return r
}
