package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/transport"
	"github.com/frahmantamala/servicebook/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*Tokens, error)
	Refresh(ctx context.Context, dto RefreshDTO) (*Tokens, error)
	Verify(ctx context.Context, dto VerifyDTO) error
	Principal(ctx context.Context, token string) (*internal.Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// Login handles POST /auth/token/
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /auth/token/refresh/
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var dto RefreshDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Refresh(r.Context(), dto)
	if err != nil {
		h.Logger.Debug("token refresh failed", "error", err)
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Verify handles POST /auth/token/verify/
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var dto VerifyDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.Verify(r.Context(), dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, struct{}{})
}

// AuthMiddleware attaches the caller to the request context. Requests without a bearer token
// pass through anonymously; a token that does not validate is rejected with 401.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, err := h.Service.Principal(r.Context(), token)
		if err != nil {
			h.Logger.Debug("auth middleware: token rejected", "error", err)
			h.WriteAppError(w, r, err)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), p)
		ctx = logger.With(ctx, "user_id", p.ID, "role", string(p.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
