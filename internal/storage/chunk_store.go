package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks docchat/internal/storage ChunkStore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"docchat/internal/contextutil"
)

const (
	docFilePattern  = "DOC-*.jsonl"
	docFileExt      = ".jsonl"
	unknownFileName = "unknown"
)

var (
	// ErrInvalidDocID is returned when a doc_id cannot be mapped to a file inside the store directory.
	ErrInvalidDocID = errors.New("invalid doc_id")
	// ErrMixedDocuments is returned when one Append call carries chunks of several documents.
	ErrMixedDocuments = errors.New("chunks belong to more than one document")
)

// ChunkStore persists chunks as one append-only record file per document.
type ChunkStore interface {
	// PathFor returns the record file backing docID.
	PathFor(docID string) string
	// Append writes chunks, which must share one doc_id, and returns the number of records written.
	Append(ctx context.Context, chunks []Chunk) (int, error)
	// Load returns the chunks of docID in file order. A missing document yields an empty slice.
	Load(ctx context.Context, docID string) ([]Chunk, error)
	// List returns every stored document sorted by doc_id.
	List(ctx context.Context) ([]DocumentSummary, error)
}

// FileStore implements ChunkStore on a directory of JSONL files.
type FileStore struct {
	dir   string
	locks sync.Map // doc_id -> *sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create doc store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string {
	return s.dir
}

// PathFor returns <dir>/<docID>.jsonl.
func (s *FileStore) PathFor(docID string) string {
	return filepath.Join(s.dir, docID+docFileExt)
}

// Append encodes every chunk up front and writes them with a single append-mode write,
// so a reader never observes a partial record. Appends to the same doc_id are serialised
// within the process.
func (s *FileStore) Append(ctx context.Context, chunks []Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	docID := chunks[0].DocID
	for _, c := range chunks[1:] {
		if c.DocID != docID {
			return 0, fmt.Errorf("%w: %q and %q", ErrMixedDocuments, docID, c.DocID)
		}
	}
	if !validDocID(docID) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDocID, docID)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return 0, fmt.Errorf("failed to encode chunk %d: %w", c.Index, err)
		}
	}

	mu := s.lockFor(docID)
	mu.Lock()
	defer mu.Unlock()

	path := s.PathFor(docID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open chunk file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to append chunks: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to sync chunk file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close chunk file: %w", err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "appended chunks",
		"doc_id", docID,
		"count", len(chunks),
		"path", path,
	)

	return len(chunks), nil
}

// Load reads the records of docID line by line. Blank lines are ignored; malformed
// records and records without text are logged and skipped.
func (s *FileStore) Load(ctx context.Context, docID string) ([]Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)
	chunks := []Chunk{}

	if !validDocID(docID) {
		logger.WarnContext(ctx, "refusing to load invalid doc_id", "doc_id", docID)
		return chunks, nil
	}

	f, err := os.Open(s.PathFor(docID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return chunks, nil
		}
		return nil, fmt.Errorf("failed to open chunk file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if chunk, ok := decodeRecord(line, docID); ok {
				chunks = append(chunks, chunk)
			} else if len(bytes.TrimSpace(line)) > 0 {
				logger.WarnContext(ctx, "skipping malformed chunk record",
					"doc_id", docID,
					"line", lineNo,
				)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read chunk file: %w", readErr)
		}
	}

	return chunks, nil
}

// List scans the store directory for document files and counts their records.
// A file that cannot be read is logged and left out.
func (s *FileStore) List(ctx context.Context) ([]DocumentSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)
	docs := []DocumentSummary{}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return docs, nil
		}
		return nil, fmt.Errorf("failed to read doc store directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(docFilePattern, entry.Name()); !ok {
			continue
		}

		count, err := countRecords(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable chunk file",
				"file", entry.Name(),
				"error", err,
			)
			continue
		}
		docs = append(docs, DocumentSummary{
			DocID:  strings.TrimSuffix(entry.Name(), docFileExt),
			Chunks: count,
		})
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].DocID < docs[j].DocID
	})

	return docs, nil
}

// CheckWritable creates and removes a probe file in the store directory.
func (s *FileStore) CheckWritable() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("failed to write to doc store: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove probe file: %w", err)
	}
	return nil
}

func (s *FileStore) lockFor(docID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(docID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// decodeRecord turns one JSONL line into a Chunk, filling defaults for missing fields.
func decodeRecord(line []byte, docID string) (Chunk, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return Chunk{}, false
	}

	var rec chunkRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Chunk{}, false
	}
	if strings.TrimSpace(rec.Text) == "" {
		return Chunk{}, false
	}

	chunk := Chunk{
		DocID:     docID,
		FileName:  unknownFileName,
		Text:      rec.Text,
		Embedding: rec.Embedding,
	}
	if rec.DocID != nil && *rec.DocID != "" {
		chunk.DocID = *rec.DocID
	}
	if rec.FileName != nil {
		chunk.FileName = *rec.FileName
	}
	if rec.Index != nil {
		chunk.Index = int(*rec.Index)
	}
	return chunk, true
}

func countRecords(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	reader := bufio.NewReader(f)
	count := 0
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			count++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return 0, err
		}
	}
}

// validDocID accepts plain file names only, so a doc_id can never address a path outside the store.
func validDocID(docID string) bool {
	if docID == "" || docID == "." || docID == ".." {
		return false
	}
	return !strings.ContainsAny(docID, `/\`+"\x00")
}
