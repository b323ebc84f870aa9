// internal/app/features/properties/routes.go
package properties

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the schema editor, typically at "/properties".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))

		pr.Get("/{orgID}", h.ServeList)
		pr.Post("/{orgID}", h.HandleCreate)
		pr.Post("/{orgID}/reorder", h.HandleReorder)
		pr.Put("/{orgID}/{name}", h.HandleUpdate)
		pr.Delete("/{orgID}/{name}", h.HandleDelete)
	})

	return r
}
