package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/transport"
	"github.com/frahmantamala/club-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("authentication failed", "phone_suffix", phoneSuffix(dto.Phone), "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrInvalidToken)
		return
	}

	user, err := h.Service.Me(r.Context(), p.MemberID)
	if err != nil {
		h.Logger.Error("failed to load current member", "member_id", p.MemberID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, user)
}

// Authenticate resolves the bearer token into a Principal. Suspended members pass;
// RequireActive decides what they may reach.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		p, err := h.Service.ResolvePrincipal(r.Context(), token)
		if err != nil {
			h.Logger.Warn("token validation failed", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := WithPrincipal(r.Context(), p)
		ctx = logger.With(ctx, "member_id", p.MemberID, "role", string(p.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActive blocks suspended non-admin members. Routes left outside it form the
// regularization surface (profile, own dues, own payments).
func (h *Handler) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			h.WriteAppError(w, internal.ErrInvalidToken)
			return
		}
		if p.Blocked() {
			h.Logger.Info("suspended member blocked", "member_id", p.MemberID, "path", r.URL.Path)
			h.WriteAppError(w, internal.ErrAccountSuspended)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func phoneSuffix(phone string) string {
	n := NormalizePhone(phone)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}
