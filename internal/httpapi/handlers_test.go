package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/job"
	"github.com/dispodojo/agentfinder/internal/property"
	"github.com/dispodojo/agentfinder/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cache, err := store.OpenCache(":memory:", 7)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	fsboStore, err := store.OpenFSBOStore(":memory:")
	if err != nil {
		t.Fatalf("OpenFSBOStore: %v", err)
	}
	t.Cleanup(func() { fsboStore.Close() })

	jobsPath := t.TempDir() + "/jobs.json"
	jobs, err := job.NewController(jobsPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	fsboJobsPath := t.TempDir() + "/fsbo_jobs.json"
	fsboJobs, err := job.NewController(fsboJobsPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewController (fsbo): %v", err)
	}

	return &Server{
		Log:           zap.NewNop(),
		DataDir:       t.TempDir(),
		Client:        http.DefaultClient,
		Cache:         cache,
		FSBOStore:     fsboStore,
		Jobs:          jobs,
		FSBOSearches:  fsboJobs,
		MaxConcurrent: 2,
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	handler, err := NewHandler(newTestServer(t))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return handler
}

func TestNewHandler_UnknownRouteIs404(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCacheStats(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var stats store.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHandleListJobs_Empty(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []jobHistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no jobs, got %d", len(out))
	}
}

func TestHandleDownload_JobNotFound(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/download/missing-job", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCancelJob_NotFound(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/missing-job/cancel", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDeleteJob(t *testing.T) {
	s := newTestServer(t)
	j := s.Jobs.Create("in.csv", "", 0)
	handler, err := NewHandler(s)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/jobs/"+j.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if _, ok := s.Jobs.Get(j.ID); ok {
		t.Error("expected the job to be gone after DELETE")
	}
}

func TestHandleRentComps_NotImplemented(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/rent-comps", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", rec.Code)
	}
}

func TestHandleUpload_RejectsMissingFile(t *testing.T) {
	h := newTestHandler(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleUpload_RejectsUnsupportedExtension(t *testing.T) {
	h := newTestHandler(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "listings.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("not a real xlsx"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleFSBOSearch_RejectsMissingLocation(t *testing.T) {
	h := newTestHandler(t)
	body, _ := json.Marshal(fsbomodel.FSBOSearchCriteria{})
	req := httptest.NewRequest(http.MethodPost, "/api/fsbo/search", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestBuildPreview_CapsAtTwenty(t *testing.T) {
	results := make([]property.ScrapeResult, 25)
	for i := range results {
		results[i] = property.ScrapeResult{
			Property: property.Property{RawAddress: "addr"},
			Status:   property.StatusFound,
		}
	}
	rows := buildPreview(results)
	if len(rows) != 20 {
		t.Errorf("len(rows) = %d, want 20", len(rows))
	}
}

func TestBuildPreview_FormatsConfidenceAsPercent(t *testing.T) {
	results := []property.ScrapeResult{
		{
			Property:   property.Property{RawAddress: "123 Main St"},
			AgentInfo:  &property.AgentInfo{AgentName: "Jane Doe"},
			Status:     property.StatusFound,
			Confidence: 0.85,
			Verified:   true,
		},
	}
	rows := buildPreview(results)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Confidence != "85%" {
		t.Errorf("Confidence = %q, want %q", rows[0].Confidence, "85%")
	}
	if !rows[0].Verified {
		t.Error("expected Verified to carry through")
	}
}

func TestSplitLocation_CityState(t *testing.T) {
	state, cityZip := splitLocation("Phoenix, AZ", string(fsbomodel.LocationCityState))
	if state != "AZ" || cityZip != "Phoenix" {
		t.Errorf("got (%q, %q), want (\"AZ\", \"Phoenix\")", state, cityZip)
	}
}

func TestSplitLocation_Zip(t *testing.T) {
	state, cityZip := splitLocation("85001", string(fsbomodel.LocationZip))
	if state != "" || cityZip != "85001" {
		t.Errorf("got (%q, %q), want (\"\", \"85001\")", state, cityZip)
	}
}
