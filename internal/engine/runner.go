package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"recipe-runner/backend/internal/logging"
	"recipe-runner/backend/internal/repository"
	"recipe-runner/backend/pkg/models"
)

// Runner orchestrates one recipe execution: validate, record the run as
// running, render, invoke the agent, extract results, finalize. All
// collaborators are injected at construction; there are no lazy globals.
type Runner struct {
	store   repository.RunStore
	agents  AgentBuilder
	logger  *logging.Logger
	metrics *runMetrics
}

// NewRunner creates a Runner backed by the given run store and agent builder.
func NewRunner(store repository.RunStore, agents AgentBuilder, logger *logging.Logger) *Runner {
	return &Runner{
		store:   store,
		agents:  agents,
		logger:  logger,
		metrics: newRunMetrics(),
	}
}

// RunOutcome is the result delivered by ExecuteAsync.
type RunOutcome struct {
	Run *models.RunRecord
	Err error
}

// Execute runs the recipe with the supplied values and blocks until the run
// reaches a terminal state.
//
// Validation failures return a *ValidationError and create no RunRecord.
// Agent failures are captured into the record: the run comes back with
// status failed and a nil error — the caller always receives a finalized
// record for anything that got past validation. Only a *StoreError (the
// record could not be written) is returned alongside a nil record.
func (r *Runner) Execute(ctx context.Context, tenant *models.Tenant, recipe *models.Recipe, supplied map[string]any, identity models.Identity) (*models.RunRecord, error) {
	effective, violations := ValidateVariables(recipe.Variables, supplied)
	if len(violations) > 0 {
		return nil, &ValidationError{Errors: violations}
	}

	now := time.Now().UTC()
	run := &models.RunRecord{
		ID:             uuid.New().String(),
		RecipeID:       recipe.ID,
		TenantID:       tenant.ID,
		Status:         models.RunStatusRunning,
		VariableValues: effective,
		StartedAt:      now,
		RunBy:          identity.UserID,
		CreatedAt:      now,
	}

	// "A run started" must be durable before the agent is invoked.
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, &StoreError{Op: "create run", Err: err}
	}
	r.metrics.runStarted(ctx, recipe.ID)

	// Fresh thread id correlating this run with the agent's own memory.
	threadID := uuid.New().String()
	prompt := RenderTemplate(recipe.Template, effective)

	step := models.StepResult{
		Order:            1,
		RenderedPrompt:   prompt,
		ToolsUsed:        []string{},
		ArtifactsCreated: []string{},
		StartedAt:        now,
	}

	transcript, invokeErr := r.invoke(ctx, tenant, identity, prompt, threadID)
	if invokeErr != nil {
		step.Success = false
		step.Error = invokeErr.Error()
		run.Status = models.RunStatusFailed
		r.logger.Error("agent invocation failed", "run_id", run.ID, "recipe_id", recipe.ID, "error", invokeErr)
	} else {
		ext := ExtractResult(transcript)
		step.Response = ext.Response
		step.ToolsUsed = ext.ToolsUsed
		step.ArtifactsCreated = ext.ArtifactsCreated
		step.Success = true
		run.Status = models.RunStatusCompleted
	}

	completed := time.Now().UTC()
	step.CompletedAt = completed
	run.CompletedAt = &completed
	run.Results = []models.StepResult{step}

	// Finalize on a non-cancellable context so a cancelled caller still
	// leaves a terminal record behind, never one stuck in running.
	if err := r.store.SaveRun(context.WithoutCancel(ctx), run, "status", "results", "completed_at"); err != nil {
		return nil, &StoreError{Op: "finalize run", Err: err}
	}
	r.metrics.runFinished(context.WithoutCancel(ctx), run)

	return run, nil
}

// ExecuteAsync behaves exactly like Execute but returns immediately; the
// outcome is delivered on the returned channel. Concurrent calls for
// different runs never block each other.
func (r *Runner) ExecuteAsync(ctx context.Context, tenant *models.Tenant, recipe *models.Recipe, supplied map[string]any, identity models.Identity) <-chan RunOutcome {
	out := make(chan RunOutcome, 1)
	go func() {
		run, err := r.Execute(ctx, tenant, recipe, supplied, identity)
		out <- RunOutcome{Run: run, Err: err}
	}()
	return out
}

// invoke builds the agent and runs the rendered instruction. A cancelled
// context surfaces here as an error and is absorbed into the run like any
// other invocation failure.
func (r *Runner) invoke(ctx context.Context, tenant *models.Tenant, identity models.Identity, prompt, threadID string) ([]Message, error) {
	handle, err := r.agents.Build(ctx, tenant, identity)
	if err != nil {
		return nil, err
	}

	state := InitialState{
		Messages:          []Message{UserMessage{Text: prompt}},
		TenantID:          tenant.ID,
		TenantName:        tenant.Name,
		UserID:            identity.UserID,
		UserRole:          identity.Role,
		NeedsCorrection:   false,
		RetryCount:        0,
		CorrectionContext: map[string]any{},
	}

	return handle.Invoke(ctx, state, threadID)
}
