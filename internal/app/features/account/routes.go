package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/v1/user. requireUser guards the
// endpoints that act for a signed-in user.
func Routes(h *Handler, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Patch("/forgotPassword", h.ForgotPassword)
	r.Patch("/resetPassword/{token}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/logout", h.Logout)
		r.Get("/currentUser", h.CurrentUser)
		r.Post("/currentUser", h.CurrentUser)
		r.Patch("/profile", h.Profile)
		r.Get("/getUserFileExplorer", h.FileExplorer)
	})
	return r
}
