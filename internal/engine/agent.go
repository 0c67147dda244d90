package engine

import (
	"context"

	"recipe-runner/backend/pkg/models"
)

// InitialState is the state handed to the agent runtime for one invocation:
// the rendered instruction plus tenant/identity context. NeedsCorrection,
// RetryCount and CorrectionContext are agent-internal bookkeeping fields; the
// engine sets their zero values and passes them through unchanged.
type InitialState struct {
	Messages          []Message
	TenantID          string
	TenantName        string
	UserID            string
	UserRole          string
	NeedsCorrection   bool
	RetryCount        int
	CorrectionContext map[string]any
}

// Agent executes one instruction and returns the full ordered transcript of
// the invocation.
type Agent interface {
	Invoke(ctx context.Context, state InitialState, threadID string) ([]Message, error)
}

// AgentBuilder constructs an agent scoped to a tenant and acting identity.
// Tenancy of the recipe is the caller's responsibility; the engine does not
// re-check it.
type AgentBuilder interface {
	Build(ctx context.Context, tenant *models.Tenant, identity models.Identity) (Agent, error)
}
