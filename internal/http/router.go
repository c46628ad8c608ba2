package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Sessions       Sessions
	Catalog        catalog.Source
	Geo            GeoLookup
	Orders         OrderHistory
	RequestTimeout time.Duration
	MaxBodySize    int64
	Log            logrus.FieldLogger
}

// NewRouter wires every route of the storefront API.
func NewRouter(cfg RouterConfig) http.Handler {
	products := NewProductHandler(cfg.Catalog, cfg.RequestTimeout, cfg.Log)
	carts := NewCartHandler(cfg.Sessions, cfg.Catalog, cfg.RequestTimeout, cfg.MaxBodySize, cfg.Log)
	wishlists := NewWishlistHandler(cfg.Sessions, cfg.Catalog, cfg.RequestTimeout, cfg.MaxBodySize, cfg.Log)
	accounts := NewAuthHandler(cfg.Sessions, cfg.RequestTimeout, cfg.MaxBodySize, cfg.Log)
	addresses := NewAddressHandler(cfg.Sessions, cfg.Geo, cfg.RequestTimeout, cfg.MaxBodySize, cfg.Log)
	history := NewOrdersHandler(cfg.Orders, cfg.RequestTimeout, cfg.Log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/categories", products.Categories)
			r.Get("/categories/top", products.TopCategories)
			r.Get("/category/{name}", products.ByCategory)
			r.Get("/{id}", products.Get)
			r.Get("/{id}/related", products.Related)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{id}", carts.UpdateQuantity)
			r.Delete("/items/{id}", carts.RemoveItem)
			r.Post("/checkout", carts.Checkout)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlists.List)
			r.Delete("/", wishlists.Clear)
			r.Post("/items", wishlists.AddItem)
			r.Delete("/items/{id}", wishlists.RemoveItem)
			r.Get("/contains/{productID}", wishlists.Contains)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", accounts.Register)
			r.Post("/login", accounts.Login)
			r.Post("/logout", accounts.Logout)
			r.Get("/session", accounts.Session)
		})

		r.Get("/profile", accounts.GetProfile)
		r.Put("/profile", accounts.UpdateProfile)
		r.Put("/profile/password", accounts.ChangePassword)

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", addresses.List)
			r.Post("/", addresses.Create)
			r.Get("/{id}", addresses.Get)
			r.Put("/{id}", addresses.Update)
			r.Delete("/{id}", addresses.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", history.ListOrders)
			r.Get("/{order_id}", history.GetOrder)
		})

		if cfg.Geo != nil {
			r.Route("/geo/countries", func(r chi.Router) {
				r.Get("/", addresses.Countries)
				r.Get("/{country}/states", addresses.States)
				r.Get("/{country}/cities", addresses.Cities)
			})
		}
	})

	return otelhttp.NewHandler(r, "storefront")
}
