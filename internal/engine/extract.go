package engine

import (
	"encoding/json"
	"strings"
)

// Tools whose results may carry an artifact identifier.
const (
	toolCreateArtifact = "create_artifact"
	toolUpdateArtifact = "update_artifact"
)

// Extraction is the normalized view of one agent invocation's transcript.
type Extraction struct {
	Response         string
	ToolsUsed        []string
	ArtifactsCreated []string
}

// ExtractResult derives the final response, the tools invoked and the
// artifacts created from the ordered transcript of a single invocation.
//
// The response is the last agent message with non-empty text; agent messages
// that only carry pending tool invocations are skipped. Tool names keep
// first-seen order without duplicates. Artifact extraction is best-effort
// telemetry: tool results that don't parse as JSON are ignored, not errors.
func ExtractResult(transcript []Message) Extraction {
	ext := Extraction{
		ToolsUsed:        []string{},
		ArtifactsCreated: []string{},
	}

	for i := len(transcript) - 1; i >= 0; i-- {
		if m, ok := transcript[i].(AgentMessage); ok && strings.TrimSpace(m.Text) != "" {
			ext.Response = m.Text
			break
		}
	}

	seen := make(map[string]bool)
	for _, msg := range transcript {
		m, ok := msg.(AgentMessage)
		if !ok {
			continue
		}
		for _, inv := range m.ToolInvocations {
			if !seen[inv.Name] {
				seen[inv.Name] = true
				ext.ToolsUsed = append(ext.ToolsUsed, inv.Name)
			}
		}
	}

	for _, msg := range transcript {
		m, ok := msg.(ToolResultMessage)
		if !ok || (m.ToolName != toolCreateArtifact && m.ToolName != toolUpdateArtifact) {
			continue
		}
		var payload struct {
			ArtifactID string `json:"artifact_id"`
		}
		if err := json.Unmarshal([]byte(m.Content), &payload); err != nil {
			continue
		}
		if payload.ArtifactID != "" {
			ext.ArtifactsCreated = append(ext.ArtifactsCreated, payload.ArtifactID)
		}
	}

	return ext
}
