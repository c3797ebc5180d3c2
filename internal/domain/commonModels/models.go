package commonModels

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is one source file picked up during ingestion. Only its chunks are persisted.
type Document struct {
	Subject     string  `json:"subject"`
	Folder      string  `json:"folder"`
	Name        string  `json:"source"`
	Path        string  `json:"-"`
	ContentType DocType `json:"contentType"`
	Text        string  `json:"-"`
}

type DocChunk struct {
	Doc   Document
	Index int    `json:"chunk_order"`
	Text  string `json:"content"`
}

// Metadata is the presentation record for this chunk. ChunkId is
// <folder>_<index within document>.
func (c DocChunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Subject: c.Doc.Subject,
		Source:  c.Doc.Name,
		ChunkId: fmt.Sprintf("%s_%d", c.Doc.Folder, c.Index),
	}
}

// ChunkMetadata is the per-chunk presentation record stored next to the chunk text.
type ChunkMetadata struct {
	Subject string `json:"subject"`
	Source  string `json:"source"`
	ChunkId string `json:"chunk_id"`
}

// RetrievalResult is one ranked passage handed to the generation collaborator.
type RetrievalResult struct {
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	Subject string  `json:"subject"`
}

// FileResult is the outcome of extracting and chunking a single file.
type FileResult struct {
	Subject string
	Source  string
	Chunks  int
	Err     error
}

func (f FileResult) Failed() bool {
	return f.Err != nil
}

// MarshalJSON reports Err as its message, empty for a file that succeeded.
func (f FileResult) MarshalJSON() ([]byte, error) {
	view := struct {
		Subject string `json:"subject"`
		Source  string `json:"source"`
		Chunks  int    `json:"chunks"`
		Error   string `json:"error,omitempty"`
	}{Subject: f.Subject, Source: f.Source, Chunks: f.Chunks}
	if f.Err != nil {
		view.Error = f.Err.Error()
	}
	return json.Marshal(view)
}

type IngestSummary struct {
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	TotalChunks int          `json:"total_chunks"`
	Files       []FileResult `json:"files"`
	Failures    []string     `json:"failures"`
	SnapshotId  string       `json:"snapshot_id"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
