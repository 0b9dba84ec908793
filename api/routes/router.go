package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leaseflow/leaseflow-backend/api/controllers"
	"github.com/leaseflow/leaseflow-backend/api/middleware"
	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/internal/leases"
	"github.com/leaseflow/leaseflow-backend/internal/maintenance"
	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/internal/payments"
	"github.com/leaseflow/leaseflow-backend/internal/properties"
	"github.com/leaseflow/leaseflow-backend/pkg/config"
	"github.com/leaseflow/leaseflow-backend/pkg/db"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	pkgredis "github.com/leaseflow/leaseflow-backend/pkg/redis"
)

// Services bundles everything the router hands to controllers.
type Services struct {
	Properties  properties.Service
	Leases      leases.Service
	Payments    payments.Service
	Maintenance maintenance.Service
	Occupancy   occupancy.Service
	Audit       audit.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", controllers.PropertyList(svcs.Properties, logg))
			r.Get("/{propertyId}", controllers.PropertyGet(svcs.Properties, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleLandlord, enums.ActorRoleAdmin))
				r.Post("/", controllers.PropertyCreate(svcs.Properties, logg))
				r.Patch("/{propertyId}", controllers.PropertyUpdate(svcs.Properties, logg))
				r.Delete("/{propertyId}", controllers.PropertyDelete(svcs.Properties, logg))
				r.Post("/{propertyId}/units", controllers.UnitAdd(svcs.Properties, logg))
			})
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/vacant", controllers.UnitListVacant(svcs.Properties, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleLandlord, enums.ActorRoleAdmin)).
				Patch("/{unitId}", controllers.UnitUpdate(svcs.Properties, logg))
		})

		r.Route("/leases", func(r chi.Router) {
			r.Get("/", controllers.LeaseList(svcs.Leases, logg))
			r.Get("/expiring", controllers.LeaseExpiring(svcs.Leases, logg))
			r.Get("/{leaseId}", controllers.LeaseGet(svcs.Leases, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleLandlord, enums.ActorRoleAdmin))
				r.Post("/", controllers.LeaseCreate(svcs.Leases, logg))
				r.Patch("/{leaseId}", controllers.LeaseUpdate(svcs.Leases, logg))
				r.Delete("/{leaseId}", controllers.LeaseDelete(svcs.Leases, logg))
				r.Post("/{leaseId}/transition", controllers.LeaseTransition(svcs.Leases, logg))
				r.Post("/{leaseId}/terminate", controllers.LeaseTerminate(svcs.Leases, logg))
				r.Post("/{leaseId}/renew", controllers.LeaseRenew(svcs.Leases, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
			r.Get("/{paymentId}", controllers.PaymentGet(svcs.Payments, logg))

			r.With(middleware.RequireRole(logg, enums.ActorRoleLandlord, enums.ActorRoleAdmin)).
				Post("/", controllers.PaymentCreate(svcs.Payments, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleTenant, enums.ActorRoleAdmin)).
				Post("/{paymentId}/claim-cash", controllers.PaymentClaimCash(svcs.Payments, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleLandlord, enums.ActorRoleAdmin))
				r.Post("/{paymentId}/confirm-cash", controllers.PaymentConfirmCash(svcs.Payments, logg))
				r.Post("/{paymentId}/reject-cash", controllers.PaymentRejectCash(svcs.Payments, logg))
			})
		})

		r.Route("/maintenance-tickets", func(r chi.Router) {
			r.Get("/", controllers.TicketList(svcs.Maintenance, logg))
			r.Get("/{ticketId}", controllers.TicketGet(svcs.Maintenance, logg))
			r.Post("/", controllers.TicketCreate(svcs.Maintenance, logg))
			r.Patch("/{ticketId}", controllers.TicketUpdate(svcs.Maintenance, logg))

			r.With(middleware.RequireRole(logg, enums.ActorRoleLandlord, enums.ActorRoleAdmin)).
				Post("/{ticketId}/assign", controllers.TicketAssignVendor(svcs.Maintenance, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleVendor)).
				Post("/{ticketId}/respond", controllers.TicketRespond(svcs.Maintenance, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
			r.Get("/audit-log", controllers.AuditList(svcs.Audit, logg))
			r.Get("/occupancy/units/{unitId}", controllers.OccupancyProject(svcs.Occupancy, logg))
			r.Post("/occupancy/sync", controllers.OccupancySync(svcs.Occupancy, logg))
		})
	})

	return r
}
