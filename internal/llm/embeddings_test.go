package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:11434", "nomic-embed-text", 5*time.Second)
	if client.BaseURL != "http://localhost:11434" {
		t.Errorf("NewEmbeddingsClient() BaseURL = %v", client.BaseURL)
	}
	if client.ModelName() != "nomic-embed-text" {
		t.Errorf("NewEmbeddingsClient() ModelName = %v", client.ModelName())
	}
	if client.client.Timeout != 5*time.Second {
		t.Errorf("NewEmbeddingsClient() Timeout = %v, want 5s", client.client.Timeout)
	}
}

func TestEmbeddingsClient_Embed(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		want       []float64
		wantKind   string
		wantStatus int
	}{
		{
			name: "bare embedding shape",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/api/embeddings" {
					t.Errorf("expected /api/embeddings, got %s", r.URL.Path)
				}
				var req map[string]any
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if req["model"] != "embed-model" || req["prompt"] != "Hello" || req["stream"] != false {
					t.Errorf("unexpected request body: %v", req)
				}
				_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
			},
			want: []float64{0.1, 0.2, 0.3},
		},
		{
			name: "data list shape",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[{"embedding":[1,2]},{"embedding":[3,4]}]}`))
			},
			want: []float64{1, 2},
		},
		{
			name: "empty bare embedding falls back to data",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"embedding":[],"data":[{"embedding":[5]}]}`))
			},
			want: []float64{5},
		},
		{
			name: "no vector",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"model":"embed-model"}`))
			},
			wantKind: KindPayload,
		},
		{
			name: "empty data list",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":[]}`))
			},
			wantKind: KindPayload,
		},
		{
			name: "not json",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>proxy error</html>`))
			},
			wantKind: KindPayload,
		},
		{
			name: "server error",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("model crashed while reading SECRET DOCUMENT"))
			},
			wantKind:   KindStatus,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "embed-model", 5*time.Second)
			got, err := client.Embed(context.Background(), "Hello")

			if tt.wantKind != "" {
				if !errors.Is(err, ErrEmbeddingBackend) {
					t.Fatalf("Embed() error = %v, want ErrEmbeddingBackend", err)
				}
				if errors.Is(err, ErrChatBackend) {
					t.Error("Embed() error should not match ErrChatBackend")
				}
				var backendErr *BackendError
				if !errors.As(err, &backendErr) {
					t.Fatalf("Embed() error is not *BackendError: %T", err)
				}
				if backendErr.Kind != tt.wantKind || backendErr.StatusCode != tt.wantStatus {
					t.Errorf("Embed() error kind = %s status = %d", backendErr.Kind, backendErr.StatusCode)
				}
				if strings.Contains(backendErr.Summary(), "SECRET") {
					t.Errorf("Summary() leaked response body: %s", backendErr.Summary())
				}
				if got != nil {
					t.Errorf("Embed() returned vector alongside error: %v", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("Embed() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Embed() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Embed()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEmbeddingsClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewEmbeddingsClient(url, "embed-model", time.Second)
	_, err := client.Embed(context.Background(), "Hello")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Embed() error = %v, want *BackendError", err)
	}
	if backendErr.Kind != KindTransport {
		t.Errorf("Embed() error kind = %s, want %s", backendErr.Kind, KindTransport)
	}
}

func TestEmbeddingsClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewEmbeddingsClient(server.URL, "embed-model", 50*time.Millisecond)
	_, err := client.Embed(context.Background(), "Hello")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Embed() error = %v, want *BackendError", err)
	}
	if backendErr.Kind != KindTimeout {
		t.Errorf("Embed() error kind = %s, want %s", backendErr.Kind, KindTimeout)
	}
	if backendErr.Summary() != "embeddings timed out" {
		t.Errorf("Summary() = %q", backendErr.Summary())
	}
}
