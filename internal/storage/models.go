package storage

// Chunk is one retrievable slice of a document, persisted as a single JSONL record.
type Chunk struct {
	DocID     string    `json:"doc_id"`
	FileName  string    `json:"file_name"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"` // nil until computed
}

// HasEmbedding reports whether a vector has been attached to the chunk.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// DocumentSummary describes one stored document.
type DocumentSummary struct {
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}

// chunkRecord mirrors Chunk with optional fields so missing keys can be told apart from zero values.
// Index is decoded as a number so records written as 2.0 still load.
type chunkRecord struct {
	DocID     *string   `json:"doc_id"`
	FileName  *string   `json:"file_name"`
	Index     *float64  `json:"index"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}
