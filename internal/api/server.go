// Package api contains the HTTP handlers for the recipe runner service.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"recipe-runner/backend/internal/engine"
	"recipe-runner/backend/internal/repository"
	"recipe-runner/backend/internal/services"
	"recipe-runner/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Repo    repository.Repository
	Recipes *services.RecipeService
	Runner  *engine.Runner
}

// NewServer creates a new Server.
func NewServer(repo repository.Repository, recipes *services.RecipeService, runner *engine.Runner) *Server {
	return &Server{Repo: repo, Recipes: recipes, Runner: runner}
}

// RegisterRoutes mounts all API routes on the given group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/recipes", s.ListRecipes)
	g.PUT("/recipes", s.PutRecipe)
	g.GET("/recipes/:id", s.GetRecipe)
	g.DELETE("/recipes/:id", s.DeleteRecipe)
	g.POST("/recipes/:id/runs", s.ExecuteRecipe)
	g.GET("/runs", s.ListRuns)
	g.GET("/runs/:id", s.GetRun)
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK).
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "recipe-runner",
		Version:   "1.0.0",
	})
}

// ProblemDetails represents an RFC 7807 Problem Details response. Errors
// carries the individual validation messages when present.
type ProblemDetails struct {
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Status int      `json:"status"`
	Detail string   `json:"detail,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// problem writes an RFC 7807 Problem Details JSON error response.
func problem(c echo.Context, status int, title, detail string, errs ...string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
		Errors: errs,
	})
}

// tenantFrom extracts the tenant resolved by the auth middleware.
func tenantFrom(c echo.Context) (*models.Tenant, bool) {
	tenant, ok := c.Request().Context().Value("tenant").(*models.Tenant)
	return tenant, ok && tenant != nil
}

// identityFrom extracts the acting identity resolved by the auth middleware.
func identityFrom(c echo.Context) models.Identity {
	identity, _ := c.Request().Context().Value("identity").(models.Identity)
	return identity
}
