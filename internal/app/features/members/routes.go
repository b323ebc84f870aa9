// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/members", members.Routes(handler, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(auth.RoleAdmin))

		// Export / import
		pr.Get("/{orgID}/export.csv", h.ServeExport)
		pr.Post("/{orgID}/import", h.HandleImport)

		// Edit one member's answers
		pr.Post("/{orgID}/{userID}/edit", h.HandleOpenEdit)
		pr.Route("/sessions/{sid}", func(sr chi.Router) {
			sr.Get("/", h.ServeState)
			sr.Delete("/", h.HandleClose)
			sr.Post("/change", h.HandleChange)
			sr.Post("/blur", h.HandleBlur)
			sr.Post("/submit", h.HandleSubmit)
			sr.Get("/options/{field}", h.ServeOptions)
		})
	})

	return r
}
