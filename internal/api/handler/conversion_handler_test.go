package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-data-prep/internal/config"
	"go-data-prep/internal/model"
	"go-data-prep/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, withHistory bool) (*Handler, string) {
	t.Helper()
	dir := t.TempDir()

	src := filepath.Join(dir, "items.txt")
	require.NoError(t, os.WriteFile(src, []byte(`{"name":"Widget","maker":"Acme"}`+"\n"), 0644))

	cfg := &config.Config{
		OutputDir: filepath.Join(dir, "out"),
		Strict:    true,
		Jobs: []model.Job{
			{Name: "items", Source: src, Dest: "items.csv", Fields: []string{"name", "maker", "price"}},
		},
		Server: config.ServerConfig{MaxBodyMB: 1},
	}

	h := &Handler{Config: cfg}
	if withHistory {
		s, err := store.Open(filepath.Join(dir, "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		h.History = s
	}
	return h, dir
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestConvert(t *testing.T) {
	h, _ := newTestHandler(t, false)
	body := strings.NewReader(`{"name":"Widget","maker":"Acme"}` + "\n" + `{"name":"Gadget","price":9.5}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert?fields=name,maker,price", body)
	rec := httptest.NewRecorder()
	h.Convert(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("X-Rows-Written"))
	assert.Equal(t, "0", rec.Header().Get("X-Lines-Skipped"))
	assert.Equal(t,
		"\"name\",\"maker\",\"price\"\r\n\"Widget\",\"Acme\",\"\"\r\n\"Gadget\",\"\",\"9.5\"\r\n",
		rec.Body.String())
}

func TestConvert_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader("{}")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Contains(t, resp.Error, "fields query parameter is required")
	assert.NotEmpty(t, resp.Hints)
}

func TestConvert_MalformedLine(t *testing.T) {
	h, _ := newTestHandler(t, false)
	body := strings.NewReader("{\"name\":\"a\"}\nnot json\n")

	rec := httptest.NewRecorder()
	h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert?fields=name", body))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "request:2")
}

func TestConvert_Lenient(t *testing.T) {
	h, _ := newTestHandler(t, false)
	body := strings.NewReader("{\"name\":\"a\"}\nnot json\n{\"name\":\"b\"}\n")

	rec := httptest.NewRecorder()
	h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert?fields=name&lenient=true", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Lines-Skipped"))
	assert.Equal(t, "\"name\"\r\n\"a\"\r\n\"b\"\r\n", rec.Body.String())
}

func TestConvert_BodyTooLarge(t *testing.T) {
	h, _ := newTestHandler(t, false)
	line := `{"name":"` + strings.Repeat("x", 1<<20) + `"}`

	rec := httptest.NewRecorder()
	h.Convert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/convert?fields=name", strings.NewReader(line)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListJobs(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	h.ListJobs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "items", jobs[0].Name)
}

func TestCreateRun(t *testing.T) {
	h, dir := newTestHandler(t, true)

	rec := httptest.NewRecorder()
	h.CreateRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusCompleted, resp.Run.Status)
	require.Len(t, resp.Run.Jobs, 1)
	assert.EqualValues(t, 1, resp.Run.Jobs[0].RowsWritten)

	got, err := os.ReadFile(filepath.Join(dir, "out", "items.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\"name\",\"maker\",\"price\"\r\n\"Widget\",\"Acme\",\"\"\r\n", string(got))

	// the run is visible through the history endpoints
	rec = httptest.NewRecorder()
	h.GetRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+resp.Run.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stored model.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, resp.Run.ID, stored.ID)
	assert.Len(t, stored.Jobs, 1)

	rec = httptest.NewRecorder()
	h.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)
}

func TestCreateRun_UnknownJob(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	h.CreateRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(`{"jobs":["nope"]}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, `"nope"`)
}

func TestCreateRun_InvalidPayload(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	h.CreateRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(`{"jobs":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRun_MalformedSource(t *testing.T) {
	h, dir := newTestHandler(t, false)
	require.NoError(t, os.WriteFile(h.Config.Jobs[0].Source, []byte("{\"name\":\"a\"}\n[1,2]\n"), 0644))

	rec := httptest.NewRecorder()
	h.CreateRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusFailed, resp.Run.Status)
	assert.Contains(t, resp.Error, "items.txt:2")
	assert.FileExists(t, filepath.Join(dir, "out", "items.csv"))
}

func TestCreateRun_MissingSource(t *testing.T) {
	h, _ := newTestHandler(t, false)
	h.Config.Jobs[0].Source = filepath.Join(t.TempDir(), "missing.txt")

	rec := httptest.NewRecorder()
	h.CreateRun(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	h, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	h.ListRuns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.GetRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, true)

	rec := httptest.NewRecorder()
	h.GetRun(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
