package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/handler"
	mw "github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/ws"
)

// Deps are the long-lived components the routes are built from.
type Deps struct {
	Config     *config.Config
	Pool       service.TxBeginner
	Queries    *database.Queries
	Hub        *ws.Hub
	Cache      *cache.Store
	Dispatcher *events.Dispatcher
	// Options carries the stock policy, gateway and clock. Notifier and
	// Logger are filled in from Dispatcher and Logger when unset.
	Options service.Options
	Logger  logrus.FieldLogger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and shop scoping as needed.
func New(d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	opts := d.Options
	if opts.Notifier == nil && d.Dispatcher != nil {
		opts.Notifier = d.Dispatcher
	}
	if opts.Logger == nil {
		opts.Logger = d.Logger
	}
	if opts.Currency == "" {
		opts.Currency = d.Config.PaymentCurrency
	}

	newStore := func(db database.DBTX) service.Store {
		return database.New(db)
	}
	shops := service.NewShopService(d.Pool, newStore, opts)
	tables := service.NewTableService(d.Pool, newStore, opts)
	reservations := service.NewReservationService(d.Pool, newStore, opts)
	orders := service.NewOrderService(d.Pool, newStore, opts)
	kitchen := service.NewKitchenService(d.Pool, newStore, opts)

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/shops/{sid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, d.Config.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d.Config.JWTSecret))

		shopHandler := handler.NewShopHandler(shops, d.Queries, d.Cache)
		r.Route("/shops", func(r chi.Router) {
			shopHandler.RegisterRoutes(r)

			// Shop-scoped routes
			r.Route("/{sid}", func(r chi.Router) {
				r.Use(mw.RequireShop)
				shopHandler.RegisterShopRoutes(r)

				categoryHandler := handler.NewCategoryHandler(d.Queries, d.Cache, opts.Notifier)
				r.Route("/categories", categoryHandler.RegisterRoutes)

				productHandler := handler.NewProductHandler(d.Queries, d.Cache, opts.Notifier)
				r.Route("/products", productHandler.RegisterRoutes)

				tableHandler := handler.NewTableHandler(tables, d.Queries, d.Cache)
				r.Route("/tables", tableHandler.RegisterRoutes)

				reservationHandler := handler.NewReservationHandler(reservations, d.Queries, d.Cache)
				r.Route("/reservations", reservationHandler.RegisterRoutes)

				orderHandler := handler.NewOrderHandler(orders, d.Queries, d.Cache)
				r.Route("/orders", orderHandler.RegisterRoutes)

				kitchenHandler := handler.NewKitchenHandler(kitchen, d.Queries, d.Cache)
				r.Route("/kitchen", kitchenHandler.RegisterRoutes)

				reportsHandler := handler.NewReportsHandler(d.Queries, d.Cache)
				r.Route("/reports", reportsHandler.RegisterRoutes)
			})
		})
	})

	return r
}
