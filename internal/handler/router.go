package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/handler/chat"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/handler/speech"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/metrics"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/pkg/utils"
)

// NewRouter wires HTTP routes to core services. speechSvc may be nil when
// no speech credentials are configured.
func NewRouter(assistant chat.Assistant, speechSvc speech.Synthesizer, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	chat.New(assistant).RegisterRoutes(r)

	if speechSvc != nil {
		speech.New(speechSvc).RegisterRoutes(r)
	}

	return r
}
