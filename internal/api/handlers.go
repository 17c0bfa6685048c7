package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shardlens/shardlens/internal/export"
	"github.com/shardlens/shardlens/internal/preset"
	"github.com/shardlens/shardlens/internal/query"
)

// FilterStateBody is the wire form of a filter state.
type FilterStateBody struct {
	Columns       []string            `json:"columns"`
	Filters       map[string][]string `json:"filters,omitempty"`
	DateStart     string              `json:"date_start,omitempty"`
	DateEnd       string              `json:"date_end,omitempty"`
	SampleEnabled bool                `json:"sample_enabled,omitempty"`
	SampleSize    int                 `json:"sample_size,omitempty"`
	RowLimit      int                 `json:"row_limit"`
}

func stateToBody(s *query.FilterState) FilterStateBody {
	return FilterStateBody{
		Columns:       s.Columns,
		Filters:       s.Filters,
		DateStart:     s.Dates.Start,
		DateEnd:       s.Dates.End,
		SampleEnabled: s.Sample.Enabled,
		SampleSize:    s.Sample.Size,
		RowLimit:      s.RowLimit,
	}
}

func bodyToState(b FilterStateBody) *query.FilterState {
	filters := b.Filters
	if filters == nil {
		filters = map[string][]string{}
	}
	return &query.FilterState{
		Columns:  b.Columns,
		Filters:  filters,
		Dates:    query.DateRange{Start: b.DateStart, End: b.DateEnd},
		Sample:   query.Sampling{Enabled: b.SampleEnabled, Size: b.SampleSize},
		RowLimit: b.RowLimit,
	}
}

// StateResponse reports the current configuration and cache staleness.
type StateResponse struct {
	State       FilterStateBody `json:"state"`
	Fingerprint string          `json:"fingerprint"`
	Stale       bool            `json:"stale"`
}

// ResultResponse carries an executed result and its provenance.
type ResultResponse struct {
	Fingerprint string     `json:"fingerprint"`
	Query       string     `json:"query"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	RowCount    int        `json:"row_count"`
}

// CountResponse reports the advisory row count. Rows is null and Status
// is "unknown" when the probe failed.
type CountResponse struct {
	Rows   *int64 `json:"rows"`
	Status string `json:"status"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: errCode, Message: message})
}

// writeDomainError maps core error types onto HTTP statuses. Engine
// messages surface verbatim; they are what the analyst needs to see.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		sm *query.SchemaMismatchError
		be *query.BuildError
		ee *query.EngineError
	)
	switch {
	case errors.As(err, &sm):
		writeError(w, http.StatusBadRequest, "schema_mismatch", sm.Error())
	case errors.As(err, &be):
		writeError(w, http.StatusBadRequest, "invalid_filter_state", be.Error())
	case errors.As(err, &ee):
		writeError(w, http.StatusBadGateway, "engine_error", ee.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSchema returns the discovered columns and preview sample.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": s.schema.Columns,
		"preview": s.schema.Preview,
	})
}

func (s *Server) stateResponse() (StateResponse, error) {
	state := s.session.State()
	fp, err := s.session.Fingerprint()
	if err != nil {
		return StateResponse{}, err
	}
	stale, err := s.session.Stale()
	if err != nil {
		return StateResponse{}, err
	}
	return StateResponse{State: stateToBody(state), Fingerprint: fp.String(), Stale: stale}, nil
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.stateResponse()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePutState replaces the filter state. No execution happens here;
// the response's stale flag tells the client whether a refresh would do
// new work.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var body FilterStateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}
	if err := s.session.SetState(bodyToState(body)); err != nil {
		writeDomainError(w, err)
		return
	}
	resp, err := s.stateResponse()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh is the explicit execution trigger.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	entry, err := s.session.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{
		Fingerprint: entry.Fingerprint.String(),
		Query:       entry.Query,
		Columns:     entry.Result.Columns,
		Rows:        entry.Result.Rows,
		RowCount:    entry.Result.RowCount(),
	})
}

// handleResult returns the cached result without executing anything.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.session.Cached()
	if !ok {
		writeError(w, http.StatusNotFound, "no_result", "no query has been executed yet")
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{
		Fingerprint: entry.Fingerprint.String(),
		Query:       entry.Query,
		Columns:     entry.Result.Columns,
		Rows:        entry.Result.Rows,
		RowCount:    entry.Result.RowCount(),
	})
}

// handleClear resets filters and empties the cache.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.session.Clear()
	resp, err := s.stateResponse()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCount runs the advisory row-count probe. Probe failures degrade
// to status "unknown" rather than an error response.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.session.Count(r.Context())
	if err != nil {
		var pe *query.ProbeUnavailableError
		if errors.As(err, &pe) {
			s.logger.Warn("row-count probe failed", "error", err)
			writeJSON(w, http.StatusOK, CountResponse{Status: "unknown"})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Rows: &n, Status: "ok"})
}

// handleDistinct returns distinct values of one column for building
// filters. Advisory like count.
func (s *Server) handleDistinct(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	values, err := s.session.DistinctValues(r.Context(), column, s.cfg.Query.DistinctLimit)
	if err != nil {
		var pe *query.ProbeUnavailableError
		if errors.As(err, &pe) {
			s.logger.Warn("distinct-values probe failed", "column", column, "error", err)
			writeJSON(w, http.StatusOK, map[string]any{"values": nil, "status": "unknown"})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": values, "status": "ok"})
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "preset_store", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

// handleSavePreset saves the named preset from the request body, or from
// the session's current filters when the body is empty.
func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var p preset.Preset
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}
	} else {
		state := s.session.State()
		p = preset.Preset{
			Filters:   state.Filters,
			DateStart: state.Dates.Start,
			DateEnd:   state.Dates.End,
		}
	}

	if err := s.presets.Save(name, p); err != nil {
		writeError(w, http.StatusBadRequest, "preset_store", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"saved": name})
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.presets.Delete(name); err != nil {
		writeError(w, http.StatusNotFound, "preset_store", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// handleApplyPreset loads a preset into the session's filter state.
func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	presets, err := s.presets.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "preset_store", err.Error())
		return
	}
	p, ok := presets[name]
	if !ok {
		writeError(w, http.StatusNotFound, "preset_store", fmt.Sprintf("preset %q not found", name))
		return
	}
	if err := s.session.ApplyFilters(p.Filters, query.DateRange{Start: p.DateStart, End: p.DateEnd}); err != nil {
		writeDomainError(w, err)
		return
	}
	resp, err := s.stateResponse()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport re-runs the cached query with an export-specific limit and
// streams the result in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	result, err := s.session.Export(r.Context(), limit)
	if err != nil {
		var ee *query.EngineError
		if errors.As(err, &ee) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusConflict, "no_result", err.Error())
		return
	}

	f, err := export.New(format, w)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="shardlens-export.csv"`)
	default:
		w.Header().Set("Content-Type", "application/x-ndjson")
	}
	if err := f.Format(result); err != nil {
		s.logger.Error("export stream failed", "error", err)
	}
}
