package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/club-management/internal/activity"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/cashbox"
	"github.com/frahmantamala/club-management/internal/contribution"
	"github.com/frahmantamala/club-management/internal/expense"
	"github.com/frahmantamala/club-management/internal/ledger"
	"github.com/frahmantamala/club-management/internal/member"
	"github.com/frahmantamala/club-management/internal/notification"
	"github.com/frahmantamala/club-management/internal/report"
	"github.com/frahmantamala/club-management/internal/suspension"
	"github.com/frahmantamala/club-management/internal/transfer"
	"github.com/frahmantamala/club-management/internal/transport"
	"github.com/frahmantamala/club-management/internal/transport/middleware"
	"github.com/frahmantamala/club-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything RegisterAllRoutes mounts. A nil domain handler
// leaves its routes unmounted.
type Handlers struct {
	Health        *HealthHandler
	Auth          *auth.Handler
	Authorizer    *auth.Authorizer
	Members       *member.Handler
	Contributions *contribution.Handler
	Suspensions   *suspension.Handler
	Ledger        *ledger.Handler
	CashBoxes     *cashbox.Handler
	Expenses      *expense.Handler
	Transfers     *transfer.Handler
	Reports       *report.Handler
	Activities    *activity.Handler
	Notifications *notification.Handler
}

type RouterConfig struct {
	CORSOrigins []string
	// OpenAPI is the raw document served at /openapi.yml; empty disables docs.
	OpenAPI []byte
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Logging)
	router.Use(middleware.Metrics)

	base := transport.NewBaseHandler(logger)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Handle("/metrics", promhttp.Handler())
	if len(cfg.OpenAPI) > 0 {
		router.Get("/openapi.yml", swagger.SpecHandler(cfg.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(ar chi.Router) {
			ar.Use(h.Auth.Authenticate)

			// Reachable while suspended so a member can settle their dues.
			ar.Get("/auth/me", h.Auth.Me)
			if h.Members != nil {
				ar.Get("/members/me", h.Members.Me)
				ar.Post("/members/me/complete-profile", h.Members.CompleteProfile)
			}
			if h.Contributions != nil {
				ar.Get("/contributions/me", h.Contributions.Me)
				ar.Get("/contributions/me/unpaid-months", h.Contributions.MyUnpaidMonths)
				ar.Post("/contributions/payments/me", h.Contributions.RecordSelfPayment)
			}

			ar.Group(func(pr chi.Router) {
				pr.Use(h.Auth.RequireActive)
				mountMembers(pr, h)
				mountContributions(pr, h)
				mountCaisse(pr, h)
				mountReports(pr, h)
				mountActivities(pr, h)
				mountNotifications(pr, h)
			})
		})
	})
}

func mountMembers(r chi.Router, h Handlers) {
	if h.Members == nil {
		return
	}
	can := h.Authorizer.RequireCapability
	r.Route("/members", func(mr chi.Router) {
		mr.With(can(auth.ActionListMembers)).Get("/", h.Members.List)
		mr.With(can(auth.ActionManageMembers)).Post("/", h.Members.Create)
		mr.With(can(auth.ActionManageMembers)).Post("/invite", h.Members.Invite)
		// self or ListMembers, decided by the service
		mr.Get("/{id}", h.Members.Get)
		mr.With(can(auth.ActionManageMembers)).Patch("/{id}", h.Members.Update)
		mr.With(can(auth.ActionManageMembers)).Delete("/{id}", h.Members.Delete)
		mr.With(can(auth.ActionListMembers)).Get("/{id}/audit-log", h.Members.AuditLog)
	})
}

func mountContributions(r chi.Router, h Handlers) {
	if h.Contributions == nil {
		return
	}
	can := h.Authorizer.RequireCapability
	r.Route("/contributions", func(cr chi.Router) {
		cr.Get("/", h.Contributions.List)
		cr.Get("/monthly", h.Contributions.Monthly)
		cr.With(can(auth.ActionManageContributions)).Post("/", h.Contributions.Create)
		cr.Get("/{id}", h.Contributions.Get)
		cr.With(can(auth.ActionManageContributions)).Patch("/{id}", h.Contributions.Update)

		cr.Get("/payments", h.Contributions.ListPayments)
		cr.With(can(auth.ActionRecordPayment)).Post("/payments", h.Contributions.RecordPayment)

		cr.With(can(auth.ActionViewArrears)).Get("/arrears", h.Contributions.Arrears)
		cr.With(can(auth.ActionViewHistory)).Get("/history/summary", h.Contributions.HistorySummary)
		cr.Get("/history/member/{id}", h.Contributions.MemberHistory)

		if h.Suspensions != nil {
			cr.With(can(auth.ActionApplySuspensions)).Post("/apply-suspensions", h.Suspensions.ApplySuspensions)
		}
	})
}

func mountCaisse(r chi.Router, h Handlers) {
	if h.Ledger == nil {
		return
	}
	can := h.Authorizer.RequireCapability
	validate := can(auth.ActionValidateTreasurer, auth.ActionValidateCommissioner)

	r.Route("/caisse", func(cr chi.Router) {
		cr.Use(can(auth.ActionViewCaisse))

		cr.Get("/", h.Ledger.Summary)
		cr.Get("/livre", h.Ledger.Livre)
		cr.Get("/pending-count", h.Ledger.PendingCount)

		if h.CashBoxes != nil {
			cr.Get("/boxes", h.CashBoxes.List)
			cr.With(can(auth.ActionManageCashBoxes)).Post("/boxes", h.CashBoxes.Create)
			cr.With(can(auth.ActionManageCashBoxes)).Patch("/boxes/{id}", h.CashBoxes.Update)
			cr.With(can(auth.ActionManageCashBoxes)).Delete("/boxes/{id}", h.CashBoxes.Delete)
		}

		if h.Expenses != nil {
			cr.Route("/expenses", func(er chi.Router) {
				er.Get("/", h.Expenses.ListExpenses)
				er.With(can(auth.ActionCreateExpense)).Post("/", h.Expenses.CreateExpense)
				er.Get("/{id}", h.Expenses.GetExpense)
				er.With(can(auth.ActionValidateTreasurer)).Patch("/{id}/validate-treasurer", h.Expenses.ValidateTreasurer)
				er.With(can(auth.ActionValidateCommissioner)).Patch("/{id}/validate-commissioner", h.Expenses.ValidateCommissioner)
				er.With(validate).Patch("/{id}/reject", h.Expenses.Reject)
			})
		}

		if h.Transfers != nil {
			cr.Route("/transfers", func(tr chi.Router) {
				tr.Get("/", h.Transfers.ListTransfers)
				tr.With(can(auth.ActionCreateTransfer)).Post("/", h.Transfers.CreateTransfer)
				tr.Get("/{id}", h.Transfers.GetTransfer)
				tr.With(can(auth.ActionValidateTreasurer)).Patch("/{id}/validate-treasurer", h.Transfers.ValidateTreasurer)
				tr.With(can(auth.ActionValidateCommissioner)).Patch("/{id}/validate-commissioner", h.Transfers.ValidateCommissioner)
				tr.With(validate).Patch("/{id}/reject", h.Transfers.Reject)
			})
		}
	})
}

func mountReports(r chi.Router, h Handlers) {
	if h.Reports == nil {
		return
	}
	r.Route("/reports", func(rr chi.Router) {
		rr.Use(h.Authorizer.RequireCapability(auth.ActionViewReports))
		rr.Get("/monthly", h.Reports.Monthly)
		rr.Get("/annual", h.Reports.Annual)
	})
}

func mountActivities(r chi.Router, h Handlers) {
	if h.Activities == nil {
		return
	}
	can := h.Authorizer.RequireCapability
	r.Route("/activities", func(ar chi.Router) {
		ar.Get("/", h.Activities.List)
		ar.With(can(auth.ActionCreateActivity)).Post("/", h.Activities.Create)
		ar.Get("/recent-count", h.Activities.RecentCount)
		ar.Post("/seen", h.Activities.MarkSeen)
		ar.Get("/announcements", h.Activities.Announcements)
		ar.With(can(auth.ActionCreateAnnouncement)).Post("/announcements", h.Activities.CreateAnnouncement)
		ar.Get("/{id}", h.Activities.Get)
	})
}

func mountNotifications(r chi.Router, h Handlers) {
	if h.Notifications == nil {
		return
	}
	can := h.Authorizer.RequireCapability
	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/in-app", h.Notifications.InApp)
		nr.Get("/in-app/count", h.Notifications.UnreadCount)
		nr.Patch("/in-app/read-all", h.Notifications.MarkAllRead)
		nr.Patch("/in-app/{id}/read", h.Notifications.MarkRead)
		nr.Get("/status", h.Notifications.Status)

		nr.With(can(auth.ActionSendReminders)).Get("/logs", h.Notifications.Logs)
		nr.With(can(auth.ActionRecordPayment)).Post("/confirm-payment", h.Notifications.ConfirmPayment)
		nr.With(can(auth.ActionSendReminders)).Post("/remind-cotisation", h.Notifications.RemindCotisation)
		nr.With(can(auth.ActionSendReminders)).Post("/remind-all-arrears", h.Notifications.RemindAllArrears)
	})
}
