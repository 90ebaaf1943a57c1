package indexer

// File is one uploaded file awaiting extraction.
type File struct {
	Name string
	Data []byte
}

// IngestResult reports the document created by an ingestion.
type IngestResult struct {
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}
