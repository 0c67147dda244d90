package models

import (
	"time"
)

// RunStatus represents the lifecycle state of a run.
//
// A run is persisted directly in RunStatusRunning when execution begins and
// transitions exactly once to RunStatusCompleted or RunStatusFailed. The
// pending value exists for forward compatibility; the engine never writes it.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// StepResult records the outcome of one rendered instruction sent to the
// agent. Error is set iff Success is false.
type StepResult struct {
	Order            int       `json:"order"`
	RenderedPrompt   string    `json:"rendered_prompt"`
	Response         string    `json:"response"`
	ToolsUsed        []string  `json:"tools_used"`
	ArtifactsCreated []string  `json:"artifacts_created"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}

// RunRecord is one execution attempt of a Recipe with concrete variable
// values. Results holds exactly one StepResult today; it is kept as a slice
// so multi-step recipes can be added without a schema change.
type RunRecord struct {
	ID             string         `json:"id"`
	RecipeID       string         `json:"recipe_id"`
	TenantID       string         `json:"tenant_id"`
	Status         RunStatus      `json:"status"`
	VariableValues map[string]any `json:"variable_values"`
	Results        []StepResult   `json:"results"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	RunBy          string         `json:"run_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

// DurationSeconds returns the run duration when the run has finished, and
// false otherwise.
func (r *RunRecord) DurationSeconds() (float64, bool) {
	if r.CompletedAt == nil || r.StartedAt.IsZero() {
		return 0, false
	}
	return r.CompletedAt.Sub(r.StartedAt).Seconds(), true
}

// Identity describes the authenticated caller on whose behalf a run is
// executed. It is resolved by the auth middleware and passed through to the
// agent unmodified.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
