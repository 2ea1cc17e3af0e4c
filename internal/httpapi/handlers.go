package httpapi

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dispodojo/agentfinder/internal/fsboagg"
	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/ingest"
	"github.com/dispodojo/agentfinder/internal/job"
	"github.com/dispodojo/agentfinder/internal/property"
	"github.com/dispodojo/agentfinder/internal/resolve"
	"github.com/dispodojo/agentfinder/internal/wiring"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// ── agent resolution: upload, progress, download, job management ──

// handleUpload saves the posted file, parses it, creates a queued job and
// starts the resolution pipeline in the background. Grounded on app.py's
// upload_file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpError(w, http.StatusBadRequest, "could not parse upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !ingest.SupportedExt(ext) {
		httpError(w, http.StatusBadRequest, "Only .csv files are supported.")
		return
	}

	uploadDir := filepath.Join(s.DataDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		httpError(w, http.StatusInternalServerError, "server error")
		return
	}
	uploadPath := filepath.Join(uploadDir, uuid.NewString()[:8]+ext)
	dst, err := os.Create(uploadPath)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "server error")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(uploadPath)
		httpError(w, http.StatusInternalServerError, "server error")
		return
	}
	dst.Close()

	properties, err := ingest.ReadInput(uploadPath)
	if err != nil {
		os.Remove(uploadPath)
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(properties) == 0 {
		os.Remove(uploadPath)
		httpError(w, http.StatusBadRequest, "No valid addresses found in file.")
		return
	}

	j := s.Jobs.Create(header.Filename, uploadPath, len(properties))
	go s.runResolution(j.ID, properties)

	writeJSON(w, http.StatusOK, map[string]any{"job_id": j.ID, "total": len(properties)})
}

// previewRow mirrors _run_pipeline's per-row preview dict, capped at 20 rows.
type previewRow struct {
	Address      string `json:"address"`
	AgentName    string `json:"agent_name"`
	Brokerage    string `json:"brokerage"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Status       string `json:"status"`
	Source       string `json:"source"`
	ListDate     string `json:"list_date"`
	DaysOnMarket string `json:"days_on_market"`
	ListingPrice string `json:"listing_price"`
	Confidence   string `json:"confidence"`
	Verified     bool   `json:"verified"`
}

func buildPreview(results []property.ScrapeResult) []previewRow {
	n := len(results)
	if n > 20 {
		n = 20
	}
	rows := make([]previewRow, 0, n)
	for _, r := range results[:n] {
		var info property.AgentInfo
		if r.AgentInfo != nil {
			info = *r.AgentInfo
		}
		rows = append(rows, previewRow{
			Address:      r.Property.RawAddress,
			AgentName:    info.AgentName,
			Brokerage:    info.Brokerage,
			Phone:        info.Phone,
			Email:        info.Email,
			Status:       string(r.Status),
			Source:       info.Source,
			ListDate:     info.ListDate,
			DaysOnMarket: info.DaysOnMarket,
			ListingPrice: info.ListingPrice,
			Confidence:   fmt.Sprintf("%.0f%%", r.Confidence*100),
			Verified:     r.Verified,
		})
	}
	return rows
}

// runResolution drives one batch job to completion, mirroring app.py's
// _run_pipeline background task. Runs on its own goroutine launched from
// handleUpload/handleResumeJob, so a panic here must not take down the
// server or any other in-flight job.
func (s *Server) runResolution(jobID string, properties []property.Property) {
	defer func() {
		if rec := recover(); rec != nil {
			if s.Log != nil {
				s.Log.Error("panic running resolution job", zap.String("job_id", jobID), zap.Any("panic", rec))
			}
			s.Jobs.Fail(jobID, fmt.Errorf("internal error: %v", rec))
		}
	}()

	ctx, ok := s.Jobs.Start(jobID)
	if !ok {
		return
	}

	sources, err := wiring.AgentSources(s.Client, s.Log, wiring.Options{
		GoogleAPIKey: s.GoogleAPIKey,
		GoogleCSEID:  s.GoogleCSEID,
	})
	if err != nil {
		s.Jobs.Fail(jobID, err)
		return
	}

	runner := &resolve.Runner{
		Sources:       sources,
		Cache:         s.Cache,
		EnrichClient:  s.Client,
		Enrich:        s.Enrich,
		MaxConcurrent: s.MaxConcurrent,
		Progress:      func(u resolve.ProgressUpdate) { s.Jobs.AppendProgress(jobID, u) },
		Log:           s.Log,
	}

	results, err := runner.Run(ctx, properties)
	if err != nil {
		s.Jobs.Fail(jobID, err)
		return
	}

	j, ok := s.Jobs.Get(jobID)
	if !ok {
		return
	}
	resultPath := filepath.Join(s.DataDir, jobID+"_results.zip")
	if _, err := ingest.ExportZip(results, j.UploadPath, resultPath); err != nil {
		s.Jobs.Fail(jobID, err)
		return
	}

	s.Jobs.Complete(jobID, resultPath, ingest.GenerateSummary(results), buildPreview(results))
}

// handleProgress streams SSE progress events for a batch job. Grounded on
// app.py's progress_stream.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	if _, ok := s.Jobs.Get(jobID); !ok {
		httpError(w, http.StatusNotFound, "Job not found.")
		return
	}
	s.streamJob(w, r, s.Jobs, jobID)
}

func (s *Server) streamJob(w http.ResponseWriter, r *http.Request, controller *job.Controller, id string) {
	StartSSEHeaders(w)
	err := controller.StreamProgress(r.Context(), id, func(ev job.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flushIfPossible(w)
		return nil
	})
	if err != nil && err != context.Canceled && s.Log != nil {
		s.Log.Debug("sse stream ended", zap.Error(err))
	}
}

// handleDownload serves the completed result ZIP. Grounded on app.py's
// download_result.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	j, ok := s.Jobs.Get(jobID)
	if !ok {
		httpError(w, http.StatusNotFound, "Job not found.")
		return
	}
	if j.Status != job.StatusComplete || j.ResultPath == "" {
		httpError(w, http.StatusBadRequest, "Results not ready yet.")
		return
	}
	if _, err := os.Stat(j.ResultPath); err != nil {
		httpError(w, http.StatusNotFound, "Result file not found.")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="agent_finder_results.zip"`)
	http.ServeFile(w, r, j.ResultPath)
}

// jobHistoryEntry mirrors list_jobs's returned dict shape.
type jobHistoryEntry struct {
	JobID        string `json:"job_id"`
	Filename     string `json:"filename"`
	CreatedAt    string `json:"created_at"`
	Status       string `json:"status"`
	Total        int    `json:"total"`
	Summary      any    `json:"summary"`
	LastProgress any    `json:"last_progress"`
}

// handleListJobs returns every job, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	snaps := s.Jobs.List()
	out := make([]jobHistoryEntry, 0, len(snaps))
	for _, snap := range snaps {
		entry := jobHistoryEntry{
			JobID: snap.ID, Filename: snap.Filename, CreatedAt: snap.CreatedAt,
			Status: string(snap.Status), Total: snap.Total, Summary: snap.Summary,
		}
		if live, ok := s.Jobs.Get(snap.ID); ok && len(live.Progress) > 0 {
			entry.LastProgress = live.Progress[len(live.Progress)-1]
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleJobResults returns the completed job's rows parsed from the first
// CSV entry found in its result ZIP, matching get_job_results's
// next((n for n in zf.namelist() if n.endswith(".csv")), None) behavior —
// only one CSV is ever inspected, even though the export ZIP holds three.
func (s *Server) handleJobResults(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	j, ok := s.Jobs.Get(jobID)
	if !ok || j.Status != job.StatusComplete {
		httpError(w, http.StatusNotFound, "Job not found or not complete")
		return
	}
	if j.ResultPath == "" {
		httpError(w, http.StatusNotFound, "Result file not found")
		return
	}
	rows, err := firstCSVAsRows(j.ResultPath)
	if err != nil {
		httpError(w, http.StatusNotFound, "Result file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": rows})
}

func firstCSVAsRows(zipPath string) ([]map[string]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var target *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".csv") {
			target = f
			break
		}
	}
	if target == nil {
		return nil, nil
	}

	rc, err := target.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// handleCancelJob transitions a running/queued job to cancelled.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	if _, ok := s.Jobs.Get(jobID); !ok {
		httpError(w, http.StatusNotFound, "Job not found.")
		return
	}
	if !s.Jobs.Cancel(jobID) {
		httpError(w, http.StatusBadRequest, "Job is not running.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleResumeJob re-reads the original upload and starts a fresh job,
// relying on the cache to skip already-resolved addresses. Grounded on
// app.py's resume_job.
func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	uploadPath, ok := s.Jobs.Resumable(jobID)
	if !ok {
		httpError(w, http.StatusBadRequest, "Only cancelled, errored, or interrupted jobs can be resumed.")
		return
	}
	if _, err := os.Stat(uploadPath); err != nil {
		httpError(w, http.StatusBadRequest, "Original upload file no longer exists.")
		return
	}

	properties, err := ingest.ReadInput(uploadPath)
	if err != nil {
		httpError(w, http.StatusBadRequest, "Could not read original file: "+err.Error())
		return
	}
	if len(properties) == 0 {
		httpError(w, http.StatusBadRequest, "No valid addresses found in original file.")
		return
	}

	filename := "resumed"
	if old, ok := s.Jobs.Get(jobID); ok && old.Filename != "" {
		filename = old.Filename
	}

	j := s.Jobs.Create(filename, uploadPath, len(properties))
	go s.runResolution(j.ID, properties)

	writeJSON(w, http.StatusOK, map[string]any{"job_id": j.ID, "total": len(properties)})
}

// handleDeleteJob cancels a running job and removes its upload/result
// files, matching app.py's delete_job.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	j, ok := s.Jobs.Get(jobID)
	if !ok {
		httpError(w, http.StatusNotFound, "Job not found.")
		return
	}
	uploadPath, resultPath := j.UploadPath, j.ResultPath
	s.Jobs.Delete(jobID)
	if uploadPath != "" {
		os.Remove(uploadPath)
	}
	if resultPath != "" {
		os.Remove(resultPath)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleCacheStats reports universal cache statistics.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Cache.Stats()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not read cache stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ── FSBO search: a parallel job-controller surface with no Python route
// precedent (app.py never mounted FSBO endpoints) — built in the same
// shape as the agent-resolution routes above, grounded on
// fsbo_pipeline.py and fsbo_db.py. ──

// splitLocation derives the (state, city_zip) columns fsbo_db.py's
// save_search persists, from a "City, ST" or bare ZIP location string.
func splitLocation(location, locationType string) (state, cityZip string) {
	if fsbomodel.LocationType(locationType) != fsbomodel.LocationCityState {
		return "", location
	}
	parts := strings.SplitN(location, ",", 2)
	if len(parts) != 2 {
		return "", location
	}
	return strings.ToUpper(strings.TrimSpace(parts[1])), strings.TrimSpace(parts[0])
}

// handleFSBOSearch validates incoming criteria, persists a new search
// record, and starts the aggregator fan-out in the background.
func (s *Server) handleFSBOSearch(w http.ResponseWriter, r *http.Request) {
	var criteria fsbomodel.FSBOSearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		httpError(w, http.StatusBadRequest, "invalid search criteria")
		return
	}
	if strings.TrimSpace(criteria.Location) == "" {
		httpError(w, http.StatusBadRequest, "location is required")
		return
	}
	if criteria.LocationType == "" {
		criteria.LocationType = fsbomodel.LocationCityState
	}

	j := s.FSBOSearches.Create(criteria.Location, "", 0)
	state, cityZip := splitLocation(criteria.Location, string(criteria.LocationType))
	if err := s.FSBOStore.SaveSearch(j.ID, state, cityZip, criteria); err != nil && s.Log != nil {
		s.Log.Warn("save fsbo search", zap.Error(err))
	}

	go s.runFSBOSearch(j.ID, criteria)

	writeJSON(w, http.StatusOK, map[string]any{"search_id": j.ID})
}

// runFSBOSearch drives one FSBO search to completion on its own
// goroutine launched from handleFSBOSearch; a panic here must fail only
// this search, not the server or any other in-flight search.
func (s *Server) runFSBOSearch(searchID string, criteria fsbomodel.FSBOSearchCriteria) {
	defer func() {
		if rec := recover(); rec != nil {
			if s.Log != nil {
				s.Log.Error("panic running fsbo search", zap.String("search_id", searchID), zap.Any("panic", rec))
			}
			s.FSBOSearches.Fail(searchID, fmt.Errorf("internal error: %v", rec))
		}
	}()

	ctx, ok := s.FSBOSearches.Start(searchID)
	if !ok {
		return
	}

	agg := &fsboagg.Aggregator{
		Sources:  wiring.FSBOSources(s.Client, s.Log),
		Progress: func(u fsboagg.ProgressUpdate) { s.FSBOSearches.AppendProgress(searchID, u) },
		Log:      s.Log,
	}

	listings, err := agg.Run(ctx, criteria)
	if err != nil {
		s.FSBOSearches.Fail(searchID, err)
		return
	}

	if err := s.FSBOStore.SaveListings(searchID, listings); err != nil {
		s.FSBOSearches.Fail(searchID, err)
		return
	}
	if err := s.FSBOStore.UpdateSearchComplete(searchID, len(listings)); err != nil && s.Log != nil {
		s.Log.Warn("update fsbo search complete", zap.Error(err))
	}

	preview := listings
	if len(preview) > 20 {
		preview = preview[:20]
	}
	s.FSBOSearches.Complete(searchID, "", map[string]any{"total_listings": len(listings)}, preview)
}

// handleFSBOProgress streams SSE fan-out progress for an FSBO search.
func (s *Server) handleFSBOProgress(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("searchId")
	if _, ok := s.FSBOSearches.Get(searchID); !ok {
		httpError(w, http.StatusNotFound, "Search not found.")
		return
	}
	s.streamJob(w, r, s.FSBOSearches, searchID)
}

// handleFSBOResults returns a page of listings for a completed search.
func (s *Server) handleFSBOResults(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("searchId")
	if _, ok := s.FSBOSearches.Get(searchID); !ok {
		httpError(w, http.StatusNotFound, "Search not found.")
		return
	}

	listings, err := s.FSBOStore.GetListings(searchID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not read listings")
		return
	}

	page := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", 25)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(listings) {
		start = len(listings)
	}
	if end > len(listings) {
		end = len(listings)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results":  listings[start:end],
		"total":    len(listings),
		"page":     page,
		"per_page": perPage,
	})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// handleFSBODownload exports a search's listings as CSV.
func (s *Server) handleFSBODownload(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("searchId")
	if _, ok := s.FSBOSearches.Get(searchID); !ok {
		httpError(w, http.StatusNotFound, "Search not found.")
		return
	}

	listings, err := s.FSBOStore.GetListings(searchID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not read listings")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="fsbo_listings.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"address", "city", "state", "zip_code", "price", "beds", "baths",
		"sqft", "property_type", "days_on_market", "owner_name", "phone", "email",
		"listing_url", "source", "contact_status"})
	for _, l := range listings {
		_ = cw.Write([]string{
			l.Address, l.City, l.State, l.ZipCode,
			intPtrOrEmpty(l.Price), intPtrOrEmpty(l.Beds), floatPtrOrEmpty(l.Baths), intPtrOrEmpty(l.Sqft),
			l.PropertyType, intPtrOrEmpty(l.DaysOnMarket), l.OwnerName, l.Phone, l.Email,
			l.ListingURL, l.Source, string(l.ContactStatus),
		})
	}
	cw.Flush()
}

func intPtrOrEmpty(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatPtrOrEmpty(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// handleFSBOSearches returns search history from the store.
func (s *Server) handleFSBOSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.FSBOStore.GetSearches()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not read search history")
		return
	}
	writeJSON(w, http.StatusOK, searches)
}

// handleDeleteFSBOSearch cancels a running search (if any) and deletes it.
func (s *Server) handleDeleteFSBOSearch(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("searchId")
	if _, ok := s.FSBOSearches.Get(searchID); !ok {
		httpError(w, http.StatusNotFound, "Search not found.")
		return
	}
	s.FSBOSearches.Cancel(searchID)
	s.FSBOSearches.Delete(searchID)
	if err := s.FSBOStore.DeleteSearch(searchID); err != nil {
		httpError(w, http.StatusInternalServerError, "could not delete search")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleRentComps is the inert boundary for the explicitly out-of-scope
// rent-comps module: present in the OpenAPI document so the HTTP surface
// is complete, but never implements rent-comps logic.
func (s *Server) handleRentComps(w http.ResponseWriter, r *http.Request) {
	httpError(w, http.StatusNotImplemented, "rent-comps is not implemented")
}
