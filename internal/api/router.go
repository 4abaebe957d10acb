package api

import (
	_ "go-data-prep/docs"
	"go-data-prep/internal/api/handler"
	"go-data-prep/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RegisterRoutes wires the API onto r.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/convert", h.Convert)
	r.GET("/api/v1/jobs", h.ListJobs)
	r.POST("/api/v1/runs", h.CreateRun)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/*", h.GetRun)

	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// NewRouter builds a router with every API route registered.
func NewRouter(h *handler.Handler) *router.Router {
	r := router.New(h.Log)
	RegisterRoutes(r, h)
	return r
}
