// Package agent provides the HTTP client for the external graph runtime
// that actually executes rendered instructions.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"recipe-runner/backend/internal/engine"
	"recipe-runner/backend/pkg/models"
)

// HTTPBuilder builds agents backed by the graph-runtime sidecar.
type HTTPBuilder struct {
	url    string
	client *http.Client
}

var _ engine.AgentBuilder = (*HTTPBuilder)(nil)

// NewHTTPBuilder creates a builder for the sidecar at the given base URL.
func NewHTTPBuilder(url string) *HTTPBuilder {
	return &HTTPBuilder{url: url, client: http.DefaultClient}
}

// Build returns an agent handle scoped to the tenant and acting identity.
func (b *HTTPBuilder) Build(ctx context.Context, tenant *models.Tenant, identity models.Identity) (engine.Agent, error) {
	if tenant == nil {
		return nil, fmt.Errorf("agent requires a tenant scope")
	}
	return &httpAgent{url: b.url, client: b.client}, nil
}

type httpAgent struct {
	url    string
	client *http.Client
}

// invokeRequest is the sidecar's initial-state wire shape. The correction
// fields belong to the agent's internal retry loop and are passed through
// untouched.
type invokeRequest struct {
	ThreadID          string               `json:"thread_id"`
	Messages          []engine.WireMessage `json:"messages"`
	TenantID          string               `json:"tenant_id"`
	TenantName        string               `json:"tenant_name"`
	UserID            string               `json:"user_id"`
	UserRole          string               `json:"user_role"`
	NeedsCorrection   bool                 `json:"needs_correction"`
	RetryCount        int                  `json:"retry_count"`
	CorrectionContext map[string]any       `json:"correction_context"`
}

type invokeResponse struct {
	Messages []engine.WireMessage `json:"messages"`
}

// Invoke submits the initial state and blocks until the sidecar returns the
// full transcript of the invocation.
func (a *httpAgent) Invoke(ctx context.Context, state engine.InitialState, threadID string) ([]engine.Message, error) {
	body, err := json.Marshal(invokeRequest{
		ThreadID:          threadID,
		Messages:          engine.ToWire(state.Messages),
		TenantID:          state.TenantID,
		TenantName:        state.TenantName,
		UserID:            state.UserID,
		UserRole:          state.UserRole,
		NeedsCorrection:   state.NeedsCorrection,
		RetryCount:        state.RetryCount,
		CorrectionContext: state.CorrectionContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoke request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+"/invoke", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent invocation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("agent invocation failed: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var decoded invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}

	return engine.FromWire(decoded.Messages)
}
