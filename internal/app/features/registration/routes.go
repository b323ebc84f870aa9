// internal/app/features/registration/routes.go
package registration

import "github.com/go-chi/chi/v5"

// Routes mounts under /register.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{orgID}", h.ServeOpen)
	r.Route("/sessions/{sid}", func(sr chi.Router) {
		sr.Get("/", h.ServeState)
		sr.Delete("/", h.HandleClose)
		sr.Post("/change", h.HandleChange)
		sr.Post("/blur", h.HandleBlur)
		sr.Post("/submit", h.HandleSubmit)
		sr.Get("/options/{field}", h.ServeOptions)
	})
	return r
}
