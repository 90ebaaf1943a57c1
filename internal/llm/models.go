package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ModelCatalogue lists the models installed on an Ollama server via /api/tags.
type ModelCatalogue struct {
	baseURL string
	client  *http.Client
}

// NewModelCatalogue creates a new model catalogue client.
func NewModelCatalogue(baseURL string, timeout time.Duration) *ModelCatalogue {
	return &ModelCatalogue{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

// tagsResponse represents the response from the /api/tags endpoint.
type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// ListModels returns the names of every installed model.
func (m *ModelCatalogue) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &BackendError{Op: OpTags, Kind: KindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	body, err := do(m.client, req, OpTags)
	if err != nil {
		return nil, err
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, payloadError(OpTags, fmt.Errorf("failed to decode tags response: %w", err))
	}

	names := make([]string, 0, len(tags.Models))
	for _, model := range tags.Models {
		name := model.Name
		if name == "" {
			name = model.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// MissingModels returns the entries of wanted that are not installed.
// A name without a tag matches the ":latest" tag, as Ollama resolves it.
func (m *ModelCatalogue) MissingModels(ctx context.Context, wanted ...string) ([]string, error) {
	installed, err := m.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(installed))
	for _, name := range installed {
		have[name] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, name := range wanted {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if have[name] || (!strings.Contains(name, ":") && have[name+":latest"]) {
			continue
		}
		missing = append(missing, name)
	}
	return missing, nil
}
