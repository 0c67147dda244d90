// Package services composes the persistence layer with domain rules that
// apply at recipe save time.
package services

import (
	"context"
	"fmt"

	"recipe-runner/backend/internal/engine"
	"recipe-runner/backend/internal/repository"
	"recipe-runner/backend/pkg/models"
)

// RecipeService manages recipe definitions. Template/variable consistency is
// enforced here, when a recipe is created or updated, so that execution time
// never sees an undeclared placeholder.
type RecipeService struct {
	repo repository.Repository
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(repo repository.Repository) *RecipeService {
	return &RecipeService{repo: repo}
}

// Save validates and persists a recipe. A recipe without an ID is created;
// otherwise the existing recipe is updated in place.
func (s *RecipeService) Save(ctx context.Context, recipe *models.Recipe) error {
	if errs := validateRecipe(recipe); len(errs) > 0 {
		return &engine.ValidationError{Errors: errs}
	}

	if recipe.Visibility == "" {
		recipe.Visibility = models.VisibilityPrivate
	}

	if recipe.ID == "" {
		return s.repo.CreateRecipe(ctx, recipe)
	}
	return s.repo.UpdateRecipe(ctx, recipe)
}

// Get retrieves a recipe by id within a tenant.
func (s *RecipeService) Get(ctx context.Context, tenantID, id string) (*models.Recipe, error) {
	return s.repo.GetRecipe(ctx, tenantID, id)
}

// List returns all recipes of a tenant.
func (s *RecipeService) List(ctx context.Context, tenantID string) ([]*models.Recipe, error) {
	return s.repo.ListRecipes(ctx, tenantID)
}

// Delete removes a recipe and its inline variable definitions.
func (s *RecipeService) Delete(ctx context.Context, tenantID, id string) error {
	return s.repo.DeleteRecipe(ctx, tenantID, id)
}

// validateRecipe collects every definition-level violation: empty name or
// template, duplicate or malformed variable declarations, and template
// placeholders that no variable declares.
func validateRecipe(recipe *models.Recipe) []string {
	var errs []string

	if recipe.Name == "" {
		errs = append(errs, "Recipe name is required")
	}
	if recipe.Template == "" {
		errs = append(errs, "Recipe template is required")
	}

	declared := make(map[string]bool, len(recipe.Variables))
	for _, v := range recipe.Variables {
		if v.Name == "" {
			errs = append(errs, "Variable name is required")
			continue
		}
		if declared[v.Name] {
			errs = append(errs, fmt.Sprintf("Duplicate variable name: %s", v.Name))
		}
		declared[v.Name] = true

		if v.Label == "" {
			errs = append(errs, fmt.Sprintf("Label is required for variable %s", v.Name))
		}
		if v.Kind == models.VariableKindSelect && len(v.Options) == 0 {
			errs = append(errs, fmt.Sprintf("Options are required for select variable %s", v.Name))
		}
	}

	for _, name := range engine.TemplatePlaceholders(recipe.Template) {
		if !declared[name] {
			errs = append(errs, fmt.Sprintf("Template references undeclared variable: %s", name))
		}
	}

	return errs
}
