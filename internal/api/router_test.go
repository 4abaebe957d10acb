package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-data-prep/internal/api/handler"
	"go-data-prep/internal/config"
	"go-data-prep/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() *handler.Handler {
	return &handler.Handler{
		Config: &config.Config{
			Strict: true,
			Jobs:   model.DefaultJobs(),
		},
	}
}

func TestNewRouter_Routes(t *testing.T) {
	r := NewRouter(testHandler())

	routes := r.Routes()
	for _, key := range []string{
		"POST:/api/v1/convert",
		"GET:/api/v1/jobs",
		"POST:/api/v1/runs",
		"GET:/api/v1/runs",
		"GET:/api/v1/runs/*",
	} {
		assert.Contains(t, routes, key)
	}
}

func TestNewRouter_Dispatch(t *testing.T) {
	r := NewRouter(testHandler())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"convert", http.MethodPost, "/api/v1/convert?fields=a", `{"a":1}`, http.StatusOK},
		{"convert wrong method", http.MethodGet, "/api/v1/convert", "", http.StatusMethodNotAllowed},
		{"jobs", http.MethodGet, "/api/v1/jobs", "", http.StatusOK},
		{"runs without history", http.MethodGet, "/api/v1/runs", "", http.StatusServiceUnavailable},
		{"run without history", http.MethodGet, "/api/v1/runs/abc", "", http.StatusServiceUnavailable},
		{"unknown", http.MethodGet, "/api/v2/jobs", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestNewRouter_SwaggerDoc(t *testing.T) {
	r := NewRouter(testHandler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/convert"`)
}

func TestServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), NewRouter(testHandler()), time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/jobs")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "products")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
