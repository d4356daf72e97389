package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/servicebook/internal"
	"github.com/frahmantamala/servicebook/internal/access"
	"github.com/frahmantamala/servicebook/internal/transport"
)

var writeDenied = map[access.Collection]string{
	access.Machines:    "Изменение данных машины доступно только менеджеру.",
	access.Maintenance: "Недостаточно прав для изменения ТО.",
	access.Claims:      "Недостаточно прав для создания/изменения рекламации.",
}

// RBACAuthorization enforces the role/collection matrix at the route level. Row ownership is
// checked by the services.
type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: baseHandler,
		logger:      baseHandler.Logger,
	}
}

func (ra *RBACAuthorization) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := internal.PrincipalFromContext(r.Context()); !ok {
				ra.WriteAppError(w, r, internal.ErrNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireWrite lets safe methods through and gates everything else on the role's write access
// to collection.
func (ra *RBACAuthorization) RequireWrite(collection access.Collection) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, unsafe := actionFor(r.Method)
			if !unsafe {
				next.ServeHTTP(w, r)
				return
			}

			p, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				ra.WriteAppError(w, r, internal.ErrNotAuthenticated)
				return
			}

			if !access.Can(p.Role, collection, action) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", p.ID,
					"role", p.Role,
					"collection", collection,
					"action", action)
				ra.WriteAppError(w, r, internal.NewForbiddenError(writeDenied[collection], internal.ErrCodePermissionDenied))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func actionFor(method string) (access.Action, bool) {
	switch method {
	case http.MethodPost:
		return access.ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return access.ActionEdit, true
	case http.MethodDelete:
		return access.ActionDelete, true
	}
	return "", false
}
