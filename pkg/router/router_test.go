package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchWildcardRoute(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"exact", "/api/v1/runs", "/api/v1/runs", true},
		{"middle wildcard", "/api/v1/runs/abc/jobs", "/api/v1/runs/*/jobs", true},
		{"middle wildcard wrong suffix", "/api/v1/runs/abc/logs", "/api/v1/runs/*/jobs", false},
		{"trailing wildcard", "/api/v1/runs/abc", "/api/v1/runs/*", true},
		{"trailing wildcard deep", "/swagger/a/b", "/swagger/*", true},
		{"trailing wildcard needs a segment", "/api/v1/runs/", "/api/v1/runs/*", false},
		{"prefix mismatch", "/api/v2/runs/abc", "/api/v1/runs/*", false},
		{"segment count mismatch", "/api/v1/runs", "/api/v1/runs/*/jobs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchWildcardRoute(tt.path, tt.pattern))
		})
	}
}

func respond(body string) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}
}

func TestRouter_Dispatch(t *testing.T) {
	r := New(nil)
	r.GET("/api/v1/runs", respond("list"))
	r.POST("/api/v1/runs", respond("create"))
	r.GET("/api/v1/runs/*", respond("get"))
	r.Mount("/static/", http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "static:"+req.URL.Path)
	})))

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/api/v1/runs", http.StatusOK, "list"},
		{http.MethodPost, "/api/v1/runs", http.StatusOK, "create"},
		{http.MethodGet, "/api/v1/runs/123", http.StatusOK, "get"},
		{http.MethodDelete, "/api/v1/runs", http.StatusMethodNotAllowed, "Method Not Allowed\n"},
		{http.MethodPost, "/api/v1/runs/123", http.StatusMethodNotAllowed, "Method Not Allowed\n"},
		{http.MethodGet, "/nope", http.StatusNotFound, "Not Found\n"},
		{http.MethodGet, "/static/app.js", http.StatusOK, "static:app.js"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}

	assert.Len(t, r.Routes(), 3)
}
