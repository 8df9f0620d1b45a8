package routes

import (
	"net/http"

	"github.com/marovet/roundsync/internal/api/handlers"
	"github.com/marovet/roundsync/internal/api/middleware"
	"github.com/marovet/roundsync/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	syncHandler    *handlers.SyncHandler
	patientHandler *handlers.PatientHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	syncHandler *handlers.SyncHandler,
	patientHandler *handlers.PatientHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		syncHandler:    syncHandler,
		patientHandler: patientHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Sync endpoints
	r.mux.HandleFunc("POST /api/sync/import", r.syncHandler.TriggerImport)
	r.mux.HandleFunc("POST /api/sync/patients", r.syncHandler.SyncAllPatients)
	r.mux.HandleFunc("POST /api/sync/patients/{id}", r.syncHandler.SyncPatient)
	r.mux.HandleFunc("GET /api/sync/report", r.syncHandler.GetImportReport)

	// Patient endpoints
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("POST /api/patients/validate-readiness", r.patientHandler.ValidateReadiness)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so error responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
