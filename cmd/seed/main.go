package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"recipe-runner/backend/internal/config"
	"recipe-runner/backend/internal/logging"
	"recipe-runner/backend/internal/repository"
	"recipe-runner/backend/internal/services"
	"recipe-runner/backend/pkg/models"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	recipeService := services.NewRecipeService(store)

	// 1. Ensure Tenant Exists
	domain := "localhost"
	tenant, err := store.GetTenantByDomain(ctx, domain)
	if err != nil {
		logger.Info("Creating default tenant", "domain", domain)
		tenant = &models.Tenant{
			Name:   "Local Dev Tenant",
			Domain: domain,
		}
		if err := store.CreateTenant(ctx, tenant); err != nil {
			log.Fatalf("Failed to create tenant: %v", err)
		}
	} else {
		logger.Info("Found existing tenant", "id", tenant.ID)
	}

	// 2. Check for existing recipes to prevent duplicates
	existingRecipes, err := store.ListRecipes(ctx, tenant.ID)
	if err != nil {
		log.Fatalf("Failed to list existing recipes: %v", err)
	}

	existingMap := make(map[string]bool)
	for _, r := range existingRecipes {
		existingMap[r.Name] = true
	}

	// 3. Create Seed Recipes
	recipes := []*models.Recipe{
		{
			Name:        "Sales Summary",
			Description: "Summarizes sales figures for a region and period.",
			Template:    "Summarize the top {{limit}} sales results for {{region}} since {{start_date}}.",
			Variables: []models.VariableDefinition{
				{Name: "limit", Kind: models.VariableKindNumber, Label: "Result limit", Default: float64(10)},
				{Name: "region", Kind: models.VariableKindSelect, Label: "Region", Options: []string{"North", "South", "East", "West"}},
				{Name: "start_date", Kind: models.VariableKindDate, Label: "Start date"},
			},
			Visibility: models.VisibilityShared,
		},
		{
			Name:        "Release Notes",
			Description: "Drafts release notes for a product version.",
			Template:    "Draft release notes for {{product}} version {{version}}. Include breaking changes: {{include_breaking}}.",
			Variables: []models.VariableDefinition{
				{Name: "product", Kind: models.VariableKindString, Label: "Product name"},
				{Name: "version", Kind: models.VariableKindString, Label: "Version"},
				{Name: "include_breaking", Kind: models.VariableKindBoolean, Label: "Include breaking changes", Default: true},
			},
			Visibility: models.VisibilityShared,
		},
		{
			Name:        "Meeting Prep",
			Description: "Prepares a briefing document ahead of a meeting.",
			Template:    "Prepare a briefing for the {{topic}} meeting on {{date}}.",
			Variables: []models.VariableDefinition{
				{Name: "topic", Kind: models.VariableKindString, Label: "Meeting topic"},
				{Name: "date", Kind: models.VariableKindDate, Label: "Meeting date"},
			},
			Visibility: models.VisibilityPrivate,
		},
	}

	for _, r := range recipes {
		if existingMap[r.Name] {
			logger.Info("Skipping existing recipe", "name", r.Name)
			continue
		}

		r.TenantID = tenant.ID
		r.CreatedBy = "seed-script"

		if err := recipeService.Save(ctx, r); err != nil {
			log.Printf("Failed to create recipe %s: %v", r.Name, err)
		} else {
			logger.Info("Seeded recipe", "name", r.Name, "id", r.ID)
		}
	}
	logger.Info("Seeding complete!")
}
