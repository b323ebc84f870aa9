// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts organization administration, typically at "/organizations".
// Every route requires the admin role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{orgID}", h.ServeOne)
		pr.Put("/{orgID}/name", h.HandleRename)
		pr.Put("/{orgID}/status", h.HandleStatus)
		pr.Put("/{orgID}/assignments", h.HandleAssignments)
	})

	return r
}
