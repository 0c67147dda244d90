package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"recipe-runner/backend/internal/engine"
	"recipe-runner/backend/internal/repository"
	"recipe-runner/backend/pkg/models"
)

// ListRecipes returns all recipes of the caller's tenant.
// (GET /api/v1/recipes)
func (s *Server) ListRecipes(c echo.Context) error {
	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	recipes, err := s.Recipes.List(c.Request().Context(), tenant.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recipes)
}

// PutRecipe creates or updates a recipe. Template placeholders are checked
// against the declared variables here, at save time, not when a run starts.
// (PUT /api/v1/recipes)
func (s *Server) PutRecipe(c echo.Context) error {
	ctx := c.Request().Context()

	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	var recipe models.Recipe
	if err := c.Bind(&recipe); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	recipe.TenantID = tenant.ID
	if recipe.CreatedBy == "" {
		recipe.CreatedBy = identityFrom(c).UserID
	}

	if err := s.Recipes.Save(ctx, &recipe); err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			return problem(c, http.StatusBadRequest, "Invalid recipe", "Recipe definition failed validation", verr.Errors...)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Recipe not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save recipe: "+err.Error())
	}

	return c.JSON(http.StatusOK, recipe)
}

// GetRecipe returns a single recipe.
// (GET /api/v1/recipes/:id)
func (s *Server) GetRecipe(c echo.Context) error {
	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	recipe, err := s.Recipes.Get(c.Request().Context(), tenant.ID, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe.
// (DELETE /api/v1/recipes/:id)
func (s *Server) DeleteRecipe(c echo.Context) error {
	tenant, ok := tenantFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found in context")
	}

	err := s.Recipes.Delete(c.Request().Context(), tenant.ID, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
