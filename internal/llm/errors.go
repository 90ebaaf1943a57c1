package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Backend operations reported in BackendError.Op.
const (
	OpEmbeddings = "embeddings"
	OpChat       = "chat"
	OpTags       = "tags"
)

// Failure classes reported in BackendError.Kind.
const (
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindStatus    = "status"
	KindPayload   = "payload"
)

var (
	// ErrEmbeddingBackend matches any failed embeddings call.
	ErrEmbeddingBackend = errors.New("embedding backend error")
	// ErrChatBackend matches any failed chat call.
	ErrChatBackend = errors.New("chat backend error")
)

// BackendError describes a failed call to the Ollama API.
type BackendError struct {
	Op         string
	Kind       string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return "ollama " + e.Summary()
	}
	return fmt.Sprintf("ollama %s: %v", e.Summary(), e.Err)
}

// Summary is a short description safe to show to API clients. It never contains
// response bodies or request content.
func (e *BackendError) Summary() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	case KindTimeout:
		return fmt.Sprintf("%s timed out", e.Op)
	case KindTransport:
		return fmt.Sprintf("%s request failed: backend unreachable", e.Op)
	case KindPayload:
		return fmt.Sprintf("%s returned an unrecognized response", e.Op)
	default:
		return fmt.Sprintf("%s failed", e.Op)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the per-operation sentinels.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrEmbeddingBackend:
		return e.Op == OpEmbeddings
	case ErrChatBackend:
		return e.Op == OpChat
	}
	return false
}

func transportError(op string, err error) *BackendError {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &BackendError{Op: op, Kind: kind, Err: err}
}

func statusError(op string, status int, body []byte) *BackendError {
	const maxBody = 500
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &BackendError{
		Op:         op,
		Kind:       KindStatus,
		StatusCode: status,
		Err:        fmt.Errorf("bad status %d: %s", status, string(body)),
	}
}

func payloadError(op string, err error) *BackendError {
	return &BackendError{Op: op, Kind: KindPayload, Err: err}
}
