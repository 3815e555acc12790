package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waithaka-labs/dukapos-backend/api/controllers"
	"github.com/waithaka-labs/dukapos-backend/api/middleware"
	"github.com/waithaka-labs/dukapos-backend/internal/cashier"
	"github.com/waithaka-labs/dukapos-backend/internal/inventory"
	"github.com/waithaka-labs/dukapos-backend/internal/ledger"
	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	"github.com/waithaka-labs/dukapos-backend/internal/reconciliation"
	"github.com/waithaka-labs/dukapos-backend/pkg/config"
	"github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
	redispkg "github.com/waithaka-labs/dukapos-backend/pkg/redis"
)

// Roles allowed to lock periods, clear locks, and push reconciliations
// through review. Cashiers never get here.
var bookkeeperRoles = []string{"owner", "manager", "accountant"}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redispkg.Pinger,
	inventoryService inventory.Service,
	accountService ledger.AccountService,
	journalService ledger.JournalService,
	cashierService cashier.Service,
	periodService periods.Service,
	reconciliationService reconciliation.Service,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/batches", func(r chi.Router) {
				r.Post("/", controllers.BatchCreate(inventoryService, logg))
				r.Get("/", controllers.BatchList(inventoryService, logg))
				r.Post("/{batchId}/adjust", controllers.BatchAdjust(inventoryService, logg))
			})
			r.Post("/stock/receive", controllers.StockReceive(inventoryService, logg))
			r.Post("/stock/consume", controllers.StockConsume(inventoryService, logg))
			r.Get("/stock/level", controllers.StockLevel(inventoryService, logg))
			r.Route("/movements", func(r chi.Router) {
				r.Post("/", controllers.MovementRecord(inventoryService, logg))
				r.Get("/", controllers.MovementList(inventoryService, logg))
			})
			r.Get("/valuation", controllers.InventoryValuation(inventoryService, logg))
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", controllers.AccountCreate(accountService, logg))
			r.Get("/", controllers.AccountList(accountService, logg))
			r.Get("/{accountId}", controllers.AccountDetail(accountService, logg))
			r.Patch("/{accountId}", controllers.AccountUpdate(accountService, logg))
			r.Post("/{accountId}/deactivate", controllers.AccountDeactivate(accountService, logg))
		})

		r.Route("/journal", func(r chi.Router) {
			r.Route("/entries", func(r chi.Router) {
				r.Post("/", controllers.EntryPost(journalService, logg))
				r.Get("/", controllers.EntryList(journalService, logg))
				r.Get("/{entryId}", controllers.EntryDetail(journalService, logg))
				r.Post("/{entryId}/reverse", controllers.EntryReverse(journalService, logg))
			})
			r.Get("/balances", controllers.AccountBalanceReport(journalService, logg))
			r.Get("/trial-balance", controllers.TrialBalanceReport(journalService, logg))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionOpen(cashierService, logg))
			r.Get("/", controllers.SessionList(cashierService, logg))
			r.Get("/{sessionId}", controllers.SessionDetail(cashierService, logg))
			r.Post("/{sessionId}/close", controllers.SessionClose(cashierService, logg))
			r.Get("/{sessionId}/events", controllers.SessionEvents(cashierService, logg))
		})
		r.Post("/money-events", controllers.MoneyEventRecord(cashierService, logg))

		r.Route("/periods", func(r chi.Router) {
			r.Get("/lock", controllers.PeriodLockStatus(periodService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, bookkeeperRoles...))
				r.Post("/lock", controllers.PeriodLockSet(periodService, logg))
				r.Delete("/lock", controllers.PeriodLockClear(periodService, logg))
			})
		})

		r.Route("/reconciliations", func(r chi.Router) {
			r.Post("/", controllers.ReconciliationCreate(reconciliationService, logg))
			r.Get("/", controllers.ReconciliationList(reconciliationService, logg))
			r.Get("/{reconciliationId}", controllers.ReconciliationDetail(reconciliationService, logg))
			r.With(middleware.RequireRole(logg, bookkeeperRoles...)).
				Post("/{reconciliationId}/transition", controllers.ReconciliationTransition(reconciliationService, logg))
		})
	})

	return r
}
