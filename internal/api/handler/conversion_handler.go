package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go-data-prep/internal/config"
	"go-data-prep/internal/model"
	"go-data-prep/internal/pipeline"
	"go-data-prep/internal/store"
	"go-data-prep/pkg/errors"
	"go-data-prep/pkg/utils"

	"go.uber.org/zap"
)

// Handler serves the conversion API. History is nil when run history is
// disabled.
type Handler struct {
	Config  *config.Config
	History *store.Store
	Log     *zap.SugaredLogger
}

// RunRequest selects configured jobs by name. An empty list runs them all.
type RunRequest struct {
	Jobs []string `json:"jobs"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string   `json:"error"`
	Hints []string `json:"hints,omitempty"`
}

// RunResponse carries the run outcome, including failed runs.
type RunResponse struct {
	Run   model.RunResult `json:"run"`
	Error string          `json:"error,omitempty"`
}

// Convert converts a JSON lines request body to CSV
// @Summary Convert JSON lines to CSV
// @Description Convert the request body, one JSON object per line, into a fully quoted CSV document
// @Tags conversions
// @Accept plain
// @Produce text/csv
// @Param fields query string true "Comma-separated field list, in column order"
// @Param lenient query bool false "Skip malformed lines instead of failing"
// @Success 200 {string} string "CSV document"
// @Failure 400 {object} ErrorResponse "Missing field list"
// @Failure 413 {object} ErrorResponse "Body too large"
// @Failure 422 {object} ErrorResponse "Malformed input line"
// @Router /convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	fields := utils.SplitList(r.URL.Query().Get("fields"))
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, errors.WithHint(
			errors.Wrap(errors.ErrInvalidRequest, "fields query parameter is required"),
			"pass fields=a,b,c in column order"))
		return
	}
	lenient, _ := strconv.ParseBool(r.URL.Query().Get("lenient"))

	body := r.Body
	if limit := h.Config.Server.MaxBodyMB; limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit<<20)
	}

	// buffered so a parse failure can still change the status code
	var out bytes.Buffer
	conv := &pipeline.Converter{
		Fields: fields,
		Strict: !lenient,
		Source: "request",
		Dest:   "response",
		Log:    h.Log,
	}
	stats, err := conv.Convert(pipeline.NewLineReader(body), &out)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err)
		case pipeline.IsParseError(err):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("X-Rows-Written", strconv.FormatInt(stats.Rows, 10))
	w.Header().Set("X-Lines-Skipped", strconv.FormatInt(stats.Skipped, 10))
	w.Write(out.Bytes())
}

// ListJobs returns the configured jobs
// @Summary List configured jobs
// @Description List the conversion jobs from the active configuration
// @Tags jobs
// @Produce json
// @Success 200 {array} model.Job "Configured jobs"
// @Router /jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Config.Jobs)
}

// CreateRun runs configured jobs
// @Summary Run configured jobs
// @Description Run the configured jobs, or the named subset, one after another. The run stops at the first failing job.
// @Tags runs
// @Accept json
// @Produce json
// @Param run body RunRequest false "Jobs to run"
// @Success 200 {object} RunResponse "Run completed"
// @Failure 400 {object} ErrorResponse "Invalid request payload"
// @Failure 404 {object} ErrorResponse "Unknown job"
// @Failure 422 {object} RunResponse "Malformed input line"
// @Failure 500 {object} RunResponse "Run failed"
// @Router /runs [post]
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidRequest, "invalid JSON payload"))
		return
	}

	jobs, err := pipeline.SelectJobs(h.Config.Jobs, req.Jobs)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	opts := []pipeline.Option{pipeline.WithLogger(h.Log)}
	if h.History != nil {
		opts = append(opts, pipeline.WithRecorder(h.History))
	}

	result, err := pipeline.Run(r.Context(), h.Config.RunConfig(jobs), opts...)
	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsParseError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, RunResponse{Run: result, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: result})
}

// ListRuns returns recent runs
// @Summary List runs
// @Description List recent runs from the history database, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} model.RunResult "Runs"
// @Failure 503 {object} ErrorResponse "History disabled"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) {
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.History.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run with its jobs
// @Summary Get run
// @Description Retrieve a run and the outcome of each of its jobs
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunResult "Run details"
// @Failure 404 {object} ErrorResponse "Run not found"
// @Failure 503 {object} ErrorResponse "History disabled"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) {
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidRequest, "run ID is required"))
		return
	}

	run, err := h.History.GetRun(r.Context(), runID)
	if errors.IsNotFoundError(err) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) requireHistory(w http.ResponseWriter) bool {
	if h.History != nil {
		return true
	}
	writeError(w, http.StatusServiceUnavailable, errors.WithHint(
		errors.New("run history is disabled"),
		"set history.path in the configuration"))
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Hints: errors.GetAllHints(err)})
}
