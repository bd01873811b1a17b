package transfer

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/approval"
	"github.com/frahmantamala/club-management/internal/auth"
	"github.com/frahmantamala/club-management/internal/transport"
	"github.com/frahmantamala/club-management/pkg/logger"
	"github.com/go-chi/chi"
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

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	var dto CreateTransferDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("CreateTransfer: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreateTransfer: service error", "error", err, "member_id", actor.MemberID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		CashBoxID: transport.OptionalString(r, "cashBoxId"),
		Status:    transport.OptionalString(r, "status"),
		Limit:     transport.ParseLimit(r, transport.DefaultLimit),
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("ListTransfers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ValidateTreasurer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, approval.StepValidateTreasurer)
}

func (h *Handler) ValidateCommissioner(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, approval.StepValidateCommissioner)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, approval.StepReject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, step approval.Step) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	var dto RejectDTO
	if step == approval.StepReject {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id := chi.URLParam(r, "id")
	t, err := h.Service.Transition(r.Context(), actor, id, step, dto.Motif)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}
