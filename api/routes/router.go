package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcontrollers "github.com/studhome/studhome-backend/api/controllers/auth"
	healthcontrollers "github.com/studhome/studhome-backend/api/controllers/health"
	housecontrollers "github.com/studhome/studhome-backend/api/controllers/houses"
	paymentcontrollers "github.com/studhome/studhome-backend/api/controllers/payments"
	reservationcontrollers "github.com/studhome/studhome-backend/api/controllers/reservations"
	savedhomecontrollers "github.com/studhome/studhome-backend/api/controllers/savedhomes"
	webhookcontrollers "github.com/studhome/studhome-backend/api/controllers/webhooks"
	"github.com/studhome/studhome-backend/api/middleware"
	internalauth "github.com/studhome/studhome-backend/internal/auth"
	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/internal/payments"
	"github.com/studhome/studhome-backend/internal/reconcile"
	"github.com/studhome/studhome-backend/internal/reservations"
	"github.com/studhome/studhome-backend/internal/savedhomes"
	"github.com/studhome/studhome-backend/internal/transactions"
	"github.com/studhome/studhome-backend/pkg/auth/session"
	"github.com/studhome/studhome-backend/pkg/config"
	"github.com/studhome/studhome-backend/pkg/db"
	"github.com/studhome/studhome-backend/pkg/logger"
	"github.com/studhome/studhome-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Sessions     session.AccessSessionChecker
	Auth         internalauth.Service
	Houses       houses.Service
	Payments     payments.Service
	Reconcile    reconcile.Service
	Transactions transactions.Service
	Reservations reservations.Service
	SavedHomes   savedhomes.Service
	Metrics      prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", healthcontrollers.Live())
		r.Get("/ready", healthcontrollers.Ready(deps.DB, deps.Redis, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/campay", webhookcontrollers.CamPay(deps.Reconcile, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authcontrollers.Register(deps.Auth, logg))
			r.Post("/login", authcontrollers.Login(deps.Auth, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authcontrollers.Logout(deps.Auth, logg))
			})
		})

		r.Route("/houses", func(r chi.Router) {
			r.Get("/", housecontrollers.List(deps.Houses, logg))
			r.Route("/{houseId}", func(r chi.Router) {
				r.Get("/", housecontrollers.Detail(deps.Houses, logg))
				r.Get("/reservation", reservationcontrollers.HouseStatus(deps.Reservations, logg))
				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Post("/save", savedhomecontrollers.Save(deps.SavedHomes, logg))
					r.Delete("/save", savedhomecontrollers.Unsave(deps.SavedHomes, logg))
					r.Post("/reserve", reservationcontrollers.ConfirmReserve(deps.Transactions, deps.Reservations, logg))
					r.Post("/tour", reservationcontrollers.ConfirmTour(deps.Transactions, logg))
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", authcontrollers.Me(deps.Auth, logg))
				r.Patch("/", authcontrollers.UpdateMe(deps.Auth, logg))
				r.Post("/password", authcontrollers.ChangePassword(deps.Auth, logg))
				r.Get("/transactions", paymentcontrollers.ListMine(deps.Transactions, logg))
				r.Get("/reservations", reservationcontrollers.ListMine(deps.Reservations, logg))
				r.Get("/saved-homes", savedhomecontrollers.ListMine(deps.SavedHomes, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/initiate", paymentcontrollers.Initiate(deps.Payments, logg))
				r.Get("/verify", paymentcontrollers.Verify(deps.Reconcile, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireStaff(logg))

		r.Route("/houses", func(r chi.Router) {
			r.Post("/", housecontrollers.Create(deps.Houses, logg))
			r.Patch("/{houseId}", housecontrollers.Update(deps.Houses, logg))
			r.Delete("/{houseId}", housecontrollers.Remove(deps.Houses, logg))
		})
	})

	return r
}
