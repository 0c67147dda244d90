package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"recipe-runner/backend/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of the Repository interface.
// Recipe variables, run values and run results are stored as JSONB.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateRecipe inserts a new recipe, generating its id and timestamps.
func (s *PostgresStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO recipes (id, tenant_id, name, description, template, variables, visibility, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		recipe.ID, recipe.TenantID, recipe.Name, recipe.Description, recipe.Template,
		recipe.Variables, recipe.Visibility, recipe.CreatedBy, recipe.CreatedAt, recipe.UpdatedAt)
	return err
}

// UpdateRecipe replaces the mutable fields of an existing recipe.
func (s *PostgresStore) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()

	tag, err := s.db.Exec(ctx,
		`UPDATE recipes SET name = $1, description = $2, template = $3, variables = $4, visibility = $5, updated_at = $6
		 WHERE tenant_id = $7 AND id = $8`,
		recipe.Name, recipe.Description, recipe.Template, recipe.Variables,
		recipe.Visibility, recipe.UpdatedAt, recipe.TenantID, recipe.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRecipe retrieves a recipe by id within a tenant.
func (s *PostgresStore) GetRecipe(ctx context.Context, tenantID, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, name, description, template, variables, visibility, created_by, created_at, updated_at
		 FROM recipes WHERE tenant_id = $1 AND id = $2`,
		tenantID, id).Scan(
		&recipe.ID, &recipe.TenantID, &recipe.Name, &recipe.Description, &recipe.Template,
		&recipe.Variables, &recipe.Visibility, &recipe.CreatedBy, &recipe.CreatedAt, &recipe.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns all recipes of a tenant, newest first.
func (s *PostgresStore) ListRecipes(ctx context.Context, tenantID string) ([]*models.Recipe, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, name, description, template, variables, visibility, created_by, created_at, updated_at
		 FROM recipes WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		var recipe models.Recipe
		if err := rows.Scan(
			&recipe.ID, &recipe.TenantID, &recipe.Name, &recipe.Description, &recipe.Template,
			&recipe.Variables, &recipe.Visibility, &recipe.CreatedBy, &recipe.CreatedAt, &recipe.UpdatedAt); err != nil {
			return nil, err
		}
		recipes = append(recipes, &recipe)
	}
	return recipes, rows.Err()
}

// DeleteRecipe removes a recipe. Its variable definitions live inline, so
// they go with it.
func (s *PostgresStore) DeleteRecipe(ctx context.Context, tenantID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM recipes WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRun inserts a new run record.
func (s *PostgresStore) CreateRun(ctx context.Context, run *models.RunRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO runs (id, recipe_id, tenant_id, status, variable_values, results, started_at, completed_at, run_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.RecipeID, run.TenantID, run.Status, run.VariableValues,
		run.Results, run.StartedAt, run.CompletedAt, run.RunBy, run.CreatedAt)
	return err
}

// runColumn maps an updatable field name to its column and current value.
func runColumn(run *models.RunRecord, field string) (string, any, error) {
	switch field {
	case "status":
		return "status", run.Status, nil
	case "results":
		return "results", run.Results, nil
	case "variable_values":
		return "variable_values", run.VariableValues, nil
	case "completed_at":
		return "completed_at", run.CompletedAt, nil
	default:
		return "", nil, fmt.Errorf("unknown run field %q", field)
	}
}

// SaveRun updates the named fields of an existing run in a single statement.
func (s *PostgresStore) SaveRun(ctx context.Context, run *models.RunRecord, fields ...string) error {
	if len(fields) == 0 {
		return errors.New("no fields to save")
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+2)
	for i, field := range fields {
		column, value, err := runColumn(run, field)
		if err != nil {
			return err
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, value)
	}
	args = append(args, run.TenantID, run.ID)

	query := fmt.Sprintf("UPDATE runs SET %s WHERE tenant_id = $%d AND id = $%d",
		strings.Join(sets, ", "), len(fields)+1, len(fields)+2)

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRun retrieves a run by id within a tenant.
func (s *PostgresStore) GetRun(ctx context.Context, tenantID, id string) (*models.RunRecord, error) {
	var run models.RunRecord
	err := s.db.QueryRow(ctx,
		`SELECT id, recipe_id, tenant_id, status, variable_values, results, started_at, completed_at, run_by, created_at
		 FROM runs WHERE tenant_id = $1 AND id = $2`,
		tenantID, id).Scan(
		&run.ID, &run.RecipeID, &run.TenantID, &run.Status, &run.VariableValues,
		&run.Results, &run.StartedAt, &run.CompletedAt, &run.RunBy, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs of a tenant, newest first, optionally narrowed to one
// recipe and capped at limit.
func (s *PostgresStore) ListRuns(ctx context.Context, tenantID, recipeID string, limit int) ([]*models.RunRecord, error) {
	query := `SELECT id, recipe_id, tenant_id, status, variable_values, results, started_at, completed_at, run_by, created_at
		 FROM runs WHERE tenant_id = $1`
	args := []any{tenantID}
	if recipeID != "" {
		query += " AND recipe_id = $2"
		args = append(args, recipeID)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		var run models.RunRecord
		if err := rows.Scan(
			&run.ID, &run.RecipeID, &run.TenantID, &run.Status, &run.VariableValues,
			&run.Results, &run.StartedAt, &run.CompletedAt, &run.RunBy, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CreateTenant inserts a new tenant, generating its id and timestamps.
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, domain, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		tenant.ID, tenant.Name, tenant.Domain, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}

// GetTenant retrieves a tenant by id.
func (s *PostgresStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	return s.tenantBy(ctx, "id", id)
}

// GetTenantByDomain retrieves a tenant by email domain.
func (s *PostgresStore) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return s.tenantBy(ctx, "domain", domain)
}

func (s *PostgresStore) tenantBy(ctx context.Context, column, value string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.QueryRow(ctx,
		fmt.Sprintf("SELECT id, name, domain, created_at, updated_at FROM tenants WHERE %s = $1", column),
		value).Scan(&tenant.ID, &tenant.Name, &tenant.Domain, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
