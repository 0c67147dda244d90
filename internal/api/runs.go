package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"recipe-runner/backend/internal/engine"
	"recipe-runner/backend/internal/repository"
)

// executeRequest is the body of an execution request: the concrete values
// for the recipe's declared variables.
type executeRequest struct {
	Values map[string]any `json:"values"`
}

// ExecuteRecipe runs a recipe and returns the finalized RunRecord.
//
// A failed agent invocation is still a 200: the request succeeded in that a
// terminal run record was produced. Only validation (400) and persistence
// (500) failures are error responses.
// (POST /api/v1/recipes/:id/runs)
func (s *Server) ExecuteRecipe(c echo.Context) error {
	ctx := c.Request().Context()

	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	recipe, err := s.Recipes.Get(ctx, tenant.ID, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Values == nil {
		req.Values = map[string]any{}
	}

	run, err := s.Runner.Execute(ctx, tenant, recipe, req.Values, identityFrom(c))
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			return problem(c, http.StatusBadRequest, "Invalid variables", "Supplied values failed validation", verr.Errors...)
		}
		var serr *engine.StoreError
		if errors.As(err, &serr) {
			return problem(c, http.StatusInternalServerError, "Run persistence failed", serr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, run)
}

// ListRuns returns runs of the caller's tenant, newest first. Optional query
// parameters: recipe_id narrows to one recipe, limit caps the result count.
// (GET /api/v1/runs)
func (s *Server) ListRuns(c echo.Context) error {
	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	params := c.QueryParams()

	var recipeID string
	if params.Has("recipe_id") {
		if err := runtime.BindQueryParameter("form", true, false, "recipe_id", params, &recipeID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid recipe_id parameter: "+err.Error())
		}
	}

	limit := 50
	if params.Has("limit") {
		if err := runtime.BindQueryParameter("form", true, false, "limit", params, &limit); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter: "+err.Error())
		}
	}

	runs, err := s.Repo.ListRuns(c.Request().Context(), tenant.ID, recipeID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

// GetRun returns a single run record.
// (GET /api/v1/runs/:id)
func (s *Server) GetRun(c echo.Context) error {
	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	run, err := s.Repo.GetRun(c.Request().Context(), tenant.ID, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}
