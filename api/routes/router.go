package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakthi-t/bookscart/api/controllers"
	"github.com/sakthi-t/bookscart/api/middleware"
	"github.com/sakthi-t/bookscart/internal/accounts"
	"github.com/sakthi-t/bookscart/internal/assistant"
	"github.com/sakthi-t/bookscart/internal/auth"
	"github.com/sakthi-t/bookscart/internal/books"
	"github.com/sakthi-t/bookscart/internal/cart"
	"github.com/sakthi-t/bookscart/internal/checkout"
	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/auth/session"
	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/metrics"
	pkgredis "github.com/sakthi-t/bookscart/pkg/redis"
)

// cacheStore is the slice of the redis client the HTTP layer depends on.
type cacheStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Services groups the domain services mounted on the router.
type Services struct {
	Auth      auth.Service
	Register  auth.RegisterService
	Books     books.Service
	Cart      cart.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Accounts  accounts.Service
	Assistant assistant.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache cacheStore,
	sessions session.AccessSessionChecker,
	reg *metrics.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if reg != nil {
		r.Use(middleware.Metrics(reg.HTTP))
	}
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	limits := cfg.AuthRateLimit
	loginPolicy := middleware.CredentialPolicy{
		Name:     "login",
		Window:   limits.LoginWindow,
		PerIP:    limits.LoginIPLimit,
		PerEmail: limits.LoginEmailLimit,
	}
	registerPolicy := middleware.CredentialPolicy{
		Name:     "register",
		Window:   limits.RegisterWindow,
		PerIP:    limits.RegisterIPLimit,
		PerEmail: limits.RegisterEmailLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.CredentialRateLimit(registerPolicy, cache, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
			r.With(middleware.CredentialRateLimit(loginPolicy, cache, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		})

		r.Get("/books/featured", controllers.BooksFeatured(svcs.Books, logg))
		r.Get("/books", controllers.BooksSearch(svcs.Books, logg))
		r.Get("/books/{slug}", controllers.BookDetail(svcs.Books, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(cache, logg))

			r.Post("/books/{slug}/add-to-cart", controllers.CartAddItem(svcs.Cart, logg))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Cart, logg))
				r.Get("/count", controllers.CartCount(svcs.Cart, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
				r.Get("/", controllers.OrderHistory(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			})
			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileFetch(svcs.Accounts, logg))
				r.Put("/", controllers.ProfileUpdate(svcs.Accounts, logg))
			})
			r.With(middleware.UserRateLimit(
				"assistant",
				cfg.AssistantRateLimit.Window,
				cfg.AssistantRateLimit.Limit,
				cache,
				logg,
			)).Post("/assistant/chat", controllers.AssistantChat(svcs.Assistant, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(cache, logg))

		r.Route("/books", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Post("/", controllers.AdminCreateBook(svcs.Books, logg))
			r.Patch("/{bookId}", controllers.AdminUpdateBook(svcs.Books, logg))
			r.Delete("/{bookId}", controllers.AdminDeleteBook(svcs.Books, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/stats", controllers.AdminOrderStats(svcs.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(svcs.Orders, logg))
		})
	})

	return r
}
