// internal/app/features/recovery/routes.go
package recovery

import "github.com/go-chi/chi/v5"

// Routes mounts under /recovery. All routes are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/start", h.HandleStart)
	r.Post("/{rid}/resend", h.HandleResend)
	r.Post("/{rid}/verify", h.HandleVerify)
	r.Post("/{rid}/reset", h.HandleReset)
	r.Delete("/{rid}", h.HandleAbort)
	return r
}
