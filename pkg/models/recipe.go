// Package models defines the domain models for the recipe runner service.
package models

import (
	"time"
)

// VariableKind enumerates the accepted types for a recipe variable.
type VariableKind string

const (
	VariableKindString  VariableKind = "string"
	VariableKindNumber  VariableKind = "number"
	VariableKindDate    VariableKind = "date"
	VariableKindBoolean VariableKind = "boolean"
	VariableKindSelect  VariableKind = "select"
)

// RecipeVisibility controls who inside the owning tenant can see a recipe.
type RecipeVisibility string

const (
	VisibilityPrivate RecipeVisibility = "private"
	VisibilityShared  RecipeVisibility = "shared"
)

// VariableDefinition declares one typed input of a recipe. The template
// references it as {{name}}. A non-nil Default makes the variable optional
// at execution time. Options is only meaningful for the select kind.
type VariableDefinition struct {
	Name    string       `json:"name"`
	Kind    VariableKind `json:"kind"`
	Label   string       `json:"label"`
	Default any          `json:"default,omitempty"`
	Options []string     `json:"options,omitempty"`
}

// Recipe is a reusable instruction template owned by a tenant. Variable
// names are unique within a recipe, and every placeholder in Template must
// be declared in Variables (enforced at save time by the service layer).
type Recipe struct {
	ID          string               `json:"id"`
	TenantID    string               `json:"tenant_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Template    string               `json:"template"`
	Variables   []VariableDefinition `json:"variables"`
	Visibility  RecipeVisibility     `json:"visibility"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// VariableNames returns the declared variable names in definition order.
func (r *Recipe) VariableNames() []string {
	names := make([]string, 0, len(r.Variables))
	for _, v := range r.Variables {
		names = append(names, v.Name)
	}
	return names
}
