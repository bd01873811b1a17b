package report

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/transport"
	"github.com/frahmantamala/club-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// Monthly handles GET /reports/monthly?year=&month=, defaulting to the current month.
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if !h.intParam(w, r, "year", &year) || !h.intParam(w, r, "month", &month) {
		return
	}
	rep, err := h.Service.Monthly(r.Context(), actor, year, month)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) Annual(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}
	year := time.Now().Year()
	if !h.intParam(w, r, "year", &year) {
		return
	}
	rep, err := h.Service.Annual(r.Context(), actor, year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, key string, dst *int) bool {
	v, err := transport.ParseOptionalInt(r, key)
	if err != nil {
		h.WriteAppError(w, internal.NewValidationFieldError(key, key+" must be a number", internal.ErrCodeInvalidPeriod))
		return false
	}
	if v != nil {
		*dst = *v
	}
	return true
}
