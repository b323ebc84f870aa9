// internal/app/features/progress/routes.go
package progress

import (
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /progress.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{activityID}", h.ServeProgress)
		pr.Post("/{activityID}", h.HandleReport)
	})
	return r
}
