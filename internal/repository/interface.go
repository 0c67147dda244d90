package repository

import (
	"context"
	"errors"

	"recipe-runner/backend/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// RecipeStore persists recipe definitions, scoped to a tenant.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	GetRecipe(ctx context.Context, tenantID, id string) (*models.Recipe, error)
	ListRecipes(ctx context.Context, tenantID string) ([]*models.Recipe, error)
	DeleteRecipe(ctx context.Context, tenantID, id string) error
}

// RunStore persists run records. The engine writes each run exactly twice:
// CreateRun when execution begins and SaveRun when it reaches a terminal
// state. Both writes are atomic per record, and a write must be visible to a
// subsequent read by the same caller.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.RunRecord) error
	// SaveRun updates only the named fields of an existing run.
	SaveRun(ctx context.Context, run *models.RunRecord, fields ...string) error
	GetRun(ctx context.Context, tenantID, id string) (*models.RunRecord, error)
	// ListRuns returns runs for a tenant, newest first. recipeID narrows the
	// listing when non-empty; limit <= 0 means no limit.
	ListRuns(ctx context.Context, tenantID, recipeID string, limit int) ([]*models.RunRecord, error)
}

// TenantStore persists tenants.
type TenantStore interface {
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error)
}

// Repository is the full persistence surface of the service.
type Repository interface {
	RecipeStore
	RunStore
	TenantStore
	Ping(ctx context.Context) error
}
