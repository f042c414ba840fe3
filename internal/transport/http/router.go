package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public and administrative endpoints.
func NewRouter(h *Handler, adminJWTKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/registry", func(r chi.Router) {
		r.Post("/records", h.handleRegister)
		r.Get("/records", h.handleList)
		r.Get("/records/{hash}", h.handleGet)
		r.Put("/records/{hash}", h.handleUpdate)
		r.Delete("/records/{hash}", h.handleRevoke)
		r.Post("/validate", h.handleValidate)
	})

	r.Post("/sync/messages", h.handleSyncBatch)

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(adminJWTKey, h.log))
		r.Post("/attesters", h.admin.handleAttesters)
		r.Post("/domains", h.admin.handleDomains)
		r.Post("/fees/tier", h.admin.handleFeeTier)
		r.Post("/fees/exemptions", h.admin.handleExemption)
		r.Post("/fees/beneficiaries", h.admin.handleBeneficiaries)
		r.Post("/oracle", h.admin.handleOracle)
		r.Post("/pause", h.admin.handlePause)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
