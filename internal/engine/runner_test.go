package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recipe-runner/backend/internal/logging"
	"recipe-runner/backend/pkg/models"
)

// MockRunStore satisfies repository.RunStore.
type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateRun(ctx context.Context, run *models.RunRecord) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunStore) SaveRun(ctx context.Context, run *models.RunRecord, fields ...string) error {
	args := m.Called(ctx, run, fields)
	return args.Error(0)
}

func (m *MockRunStore) GetRun(ctx context.Context, tenantID, id string) (*models.RunRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RunRecord), args.Error(1)
}

func (m *MockRunStore) ListRuns(ctx context.Context, tenantID, recipeID string, limit int) ([]*models.RunRecord, error) {
	args := m.Called(ctx, tenantID, recipeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RunRecord), args.Error(1)
}

// MockAgent satisfies Agent.
type MockAgent struct {
	mock.Mock
}

func (m *MockAgent) Invoke(ctx context.Context, state InitialState, threadID string) ([]Message, error) {
	args := m.Called(ctx, state, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

// MockBuilder satisfies AgentBuilder.
type MockBuilder struct {
	mock.Mock
}

func (m *MockBuilder) Build(ctx context.Context, tenant *models.Tenant, identity models.Identity) (Agent, error) {
	args := m.Called(ctx, tenant, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Agent), args.Error(1)
}

func testTenant() *models.Tenant {
	return &models.Tenant{ID: "tenant-1", Name: "Acme", Domain: "acme.com"}
}

func testRecipe() *models.Recipe {
	return &models.Recipe{
		ID:       "recipe-1",
		TenantID: "tenant-1",
		Name:     "Sales Summary",
		Template: "Show top {{limit}} from {{region}}",
		Variables: []models.VariableDefinition{
			{Name: "limit", Kind: models.VariableKindNumber, Label: "Limit", Default: float64(5)},
			{Name: "region", Kind: models.VariableKindString, Label: "Region"},
		},
	}
}

func testIdentity() models.Identity {
	return models.Identity{UserID: "user-1", Email: "user@acme.com", Role: "member"}
}

func successTranscript() []Message {
	return []Message{
		UserMessage{Text: "Show top 10 from North"},
		AgentMessage{ToolInvocations: []ToolInvocation{{Name: "search"}}},
		ToolResultMessage{ToolName: "create_artifact", Content: `{"artifact_id":"art-1"}`},
		AgentMessage{Text: "Top 10 results for North attached."},
	}
}

func newTestRunner(store *MockRunStore, builder *MockBuilder) *Runner {
	return NewRunner(store, builder, logging.NewLogger())
}

func TestExecute_Success(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)
	agent := new(MockAgent)

	var statusAtCreate models.RunStatus
	store.On("CreateRun", mock.Anything, mock.AnythingOfType("*models.RunRecord")).
		Run(func(args mock.Arguments) {
			statusAtCreate = args.Get(1).(*models.RunRecord).Status
		}).Return(nil)
	store.On("SaveRun", mock.Anything, mock.AnythingOfType("*models.RunRecord"),
		[]string{"status", "results", "completed_at"}).Return(nil)

	builder.On("Build", mock.Anything, testTenant(), testIdentity()).Return(agent, nil)

	var capturedState InitialState
	agent.On("Invoke", mock.Anything, mock.AnythingOfType("engine.InitialState"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			capturedState = args.Get(1).(InitialState)
		}).Return(successTranscript(), nil)

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(context.Background(), testTenant(), testRecipe(),
		map[string]any{"limit": float64(10), "region": "North"}, testIdentity())

	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, models.RunStatusRunning, statusAtCreate)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, "recipe-1", run.RecipeID)
	assert.Equal(t, "user-1", run.RunBy)
	assert.Equal(t, map[string]any{"limit": float64(10), "region": "North"}, run.VariableValues)

	require.Len(t, run.Results, 1)
	step := run.Results[0]
	assert.Equal(t, 1, step.Order)
	assert.True(t, step.Success)
	assert.Empty(t, step.Error)
	assert.Equal(t, "Show top 10 from North", step.RenderedPrompt)
	assert.Equal(t, "Top 10 results for North attached.", step.Response)
	assert.Equal(t, []string{"search"}, step.ToolsUsed)
	assert.Equal(t, []string{"art-1"}, step.ArtifactsCreated)

	// initial state carries the rendered instruction and passthrough fields
	require.Len(t, capturedState.Messages, 1)
	assert.Equal(t, UserMessage{Text: "Show top 10 from North"}, capturedState.Messages[0])
	assert.Equal(t, "tenant-1", capturedState.TenantID)
	assert.Equal(t, "Acme", capturedState.TenantName)
	assert.Equal(t, "user-1", capturedState.UserID)
	assert.Equal(t, "member", capturedState.UserRole)
	assert.False(t, capturedState.NeedsCorrection)
	assert.Equal(t, 0, capturedState.RetryCount)
	assert.Equal(t, map[string]any{}, capturedState.CorrectionContext)

	store.AssertExpectations(t)
	builder.AssertExpectations(t)
	agent.AssertExpectations(t)
}

func TestExecute_DefaultsApplied(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)
	agent := new(MockAgent)

	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	builder.On("Build", mock.Anything, mock.Anything, mock.Anything).Return(agent, nil)
	agent.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return([]Message{AgentMessage{Text: "ok"}}, nil)

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(context.Background(), testTenant(), testRecipe(),
		map[string]any{"region": "South"}, testIdentity())

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"limit": float64(5), "region": "South"}, run.VariableValues)
	assert.Equal(t, "Show top 5 from South", run.Results[0].RenderedPrompt)
}

func TestExecute_ValidationFailureCreatesNoRecord(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(context.Background(), testTenant(), testRecipe(),
		map[string]any{"limit": "abc"}, testIdentity())

	assert.Nil(t, run)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "Missing required variable: region")
	assert.Contains(t, verr.Errors, "Invalid number for limit: abc")

	store.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
	builder.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_AgentFailureCapturedIntoRecord(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)
	agent := new(MockAgent)

	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	builder.On("Build", mock.Anything, mock.Anything, mock.Anything).Return(agent, nil)
	agent.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("graph runtime exploded"))

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(context.Background(), testTenant(), testRecipe(),
		map[string]any{"region": "North"}, testIdentity())

	// agent failures are recorded, never returned as errors
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotNil(t, run.CompletedAt)

	require.Len(t, run.Results, 1)
	step := run.Results[0]
	assert.False(t, step.Success)
	assert.Contains(t, step.Error, "graph runtime exploded")
	assert.Empty(t, step.Response)
	assert.Empty(t, step.ToolsUsed)
	assert.Empty(t, step.ArtifactsCreated)
	assert.False(t, step.CompletedAt.IsZero())

	store.AssertExpectations(t)
}

func TestExecute_BuilderFailureCapturedIntoRecord(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)

	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	builder.On("Build", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("no agent available"))

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(context.Background(), testTenant(), testRecipe(),
		map[string]any{"region": "North"}, testIdentity())

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, run.Results[0].Error, "no agent available")
}

func TestExecute_StoreCreateFailureSurfaces(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)

	store.On("CreateRun", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(context.Background(), testTenant(), testRecipe(),
		map[string]any{"region": "North"}, testIdentity())

	assert.Nil(t, run)
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "create run", serr.Op)
}

func TestExecute_CancellationFinalizesAsFailed(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)
	agent := new(MockAgent)

	var finalized *models.RunRecord
	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			finalized = args.Get(1).(*models.RunRecord)
		}).Return(nil)
	builder.On("Build", mock.Anything, mock.Anything, mock.Anything).Return(agent, nil)

	ctx, cancel := context.WithCancel(context.Background())
	agent.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cancel()
			<-args.Get(0).(context.Context).Done()
		}).Return(nil, context.Canceled)

	runner := newTestRunner(store, builder)
	run, err := runner.Execute(ctx, testTenant(), testRecipe(),
		map[string]any{"region": "North"}, testIdentity())

	// the record is finalized, not left stuck in running
	require.NoError(t, err)
	require.NotNil(t, finalized)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, models.RunStatusFailed, finalized.Status)
	assert.NotNil(t, finalized.CompletedAt)
	assert.Contains(t, run.Results[0].Error, "context canceled")
}

func TestExecuteAsync_EquivalentToExecute(t *testing.T) {
	newMocks := func(transcript []Message) (*MockRunStore, *MockBuilder) {
		store := new(MockRunStore)
		builder := new(MockBuilder)
		agent := new(MockAgent)
		store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
		store.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		builder.On("Build", mock.Anything, mock.Anything, mock.Anything).Return(agent, nil)
		agent.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(transcript, nil)
		return store, builder
	}
	values := map[string]any{"limit": float64(3), "region": "East"}

	store1, builder1 := newMocks(successTranscript())
	syncRun, err := newTestRunner(store1, builder1).Execute(
		context.Background(), testTenant(), testRecipe(), values, testIdentity())
	require.NoError(t, err)

	store2, builder2 := newMocks(successTranscript())
	outcome := <-newTestRunner(store2, builder2).ExecuteAsync(
		context.Background(), testTenant(), testRecipe(), values, testIdentity())
	require.NoError(t, outcome.Err)
	asyncRun := outcome.Run

	// identical in every field except identifiers and timestamps
	normalize := func(run models.RunRecord) models.RunRecord {
		run.ID = ""
		run.StartedAt = time.Time{}
		run.CompletedAt = nil
		run.CreatedAt = time.Time{}
		for i := range run.Results {
			run.Results[i].StartedAt = time.Time{}
			run.Results[i].CompletedAt = time.Time{}
		}
		return run
	}
	assert.Equal(t, normalize(*syncRun), normalize(*asyncRun))
	assert.NotEqual(t, syncRun.ID, asyncRun.ID)
}

func TestExecuteAsync_ConcurrentRunsDoNotBlock(t *testing.T) {
	store := new(MockRunStore)
	builder := new(MockBuilder)
	agent := new(MockAgent)

	store.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	builder.On("Build", mock.Anything, mock.Anything, mock.Anything).Return(agent, nil)
	agent.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return([]Message{AgentMessage{Text: "ok"}}, nil)

	runner := newTestRunner(store, builder)
	values := map[string]any{"region": "West"}

	first := runner.ExecuteAsync(context.Background(), testTenant(), testRecipe(), values, testIdentity())
	second := runner.ExecuteAsync(context.Background(), testTenant(), testRecipe(), values, testIdentity())

	outcome1 := <-first
	outcome2 := <-second
	require.NoError(t, outcome1.Err)
	require.NoError(t, outcome2.Err)
	assert.NotEqual(t, outcome1.Run.ID, outcome2.Run.ID)
}
