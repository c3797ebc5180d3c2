package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/rag/chunker"
	"github.com/akolanti/StudyRAG/internal/rag/embedding"
	"github.com/akolanti/StudyRAG/internal/worker"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var logger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("Document Ingestion")
})

// Ingester turns a tree of <root>/<subject folder>/<file> into a corpus.
type Ingester struct {
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	workers  int
	minWords int
}

func NewIngester(c *chunker.Chunker, e embedding.Embedder, workers, minWords int) *Ingester {
	return &Ingester{
		chunker:  c,
		embedder: e,
		workers:  max(workers, 1),
		minWords: minWords,
	}
}

// fileOutcome is the per-file result of extract + chunk. Exactly one of
// chunks and err is meaningful.
type fileOutcome struct {
	doc    commonModels.Document
	chunks []commonModels.DocChunk
	err    error
}

// Run builds the corpus from rawDir and saves it as the current snapshot
// under corpusDir.
func (in *Ingester) Run(ctx context.Context, rawDir, corpusDir string) (commonModels.IngestSummary, error) {
	corpus, summary, err := in.Build(ctx, rawDir)
	if err != nil {
		return summary, err
	}
	manifest, err := corpus.Save(corpusDir)
	if err != nil {
		return summary, fmt.Errorf("save corpus: %w", err)
	}
	summary.SnapshotId = manifest.SnapshotId
	summary.FinishedAt = time.Now()
	return summary, nil
}

// Build extracts and chunks every supported file, embeds all chunks and
// appends them to a fresh CorpusStore in file-iteration order. Per-file
// failures are recorded in the summary and skipped. Embedding failures
// abort the whole build.
func (in *Ingester) Build(ctx context.Context, rawDir string) (*store.CorpusStore, commonModels.IngestSummary, error) {
	summary := commonModels.IngestSummary{StartedAt: time.Now(), Failures: []string{}}
	log := logger().WithTrace(ctx).With("rawDir", rawDir)

	docs, err := discover(rawDir)
	if err != nil {
		return nil, summary, err
	}
	log.Info("Scanning subject folders", "files", len(docs))

	start := time.Now()
	outcomes := make([]fileOutcome, len(docs))
	worker.Run(ctx, in.workers, len(docs), func(ctx context.Context, i int) {
		outcomes[i] = in.processFile(ctx, docs[i])
	})
	metrics.CaptureExecutionMetrics("ingest_extract", time.Since(start))
	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}

	// single writer: merge in discovery order
	var texts []string
	var metadata []commonModels.ChunkMetadata
	for _, o := range outcomes {
		result := commonModels.FileResult{Subject: o.doc.Subject, Source: o.doc.Name, Chunks: len(o.chunks), Err: o.err}
		summary.Files = append(summary.Files, result)
		if result.Failed() {
			log.Warn("Failed to process file", "file", o.doc.Name, "subject", o.doc.Subject, "error", o.err)
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s/%s: %v", o.doc.Folder, o.doc.Name, o.err))
			continue
		}
		log.Debug("file chunked", "file", o.doc.Name, "chunks", len(o.chunks))
		for _, c := range o.chunks {
			texts = append(texts, c.Text)
			metadata = append(metadata, c.Metadata())
		}
	}
	metrics.RecordIngestFiles(len(summary.Files)-len(summary.Failures), len(summary.Failures))
	log.Info("Total chunks created", "chunks", len(texts), "failed files", len(summary.Failures))

	corpus := store.NewCorpusStore(in.embedder.ModelName())
	if len(texts) > 0 {
		start = time.Now()
		vectors, err := in.embedder.BatchEmbedding(ctx, texts)
		metrics.CaptureExecutionMetrics("ingest_embedding", time.Since(start))
		if err != nil {
			return nil, summary, err
		}
		if err := corpus.Append(texts, metadata, vectors); err != nil {
			return nil, summary, err
		}
	}

	summary.TotalChunks = corpus.Len()
	summary.FinishedAt = time.Now()
	return corpus, summary, nil
}

func (in *Ingester) processFile(ctx context.Context, doc commonModels.Document) fileOutcome {
	text, err := Extract(ctx, doc.Path)
	if err != nil {
		return fileOutcome{doc: doc, err: err}
	}
	doc.Text = text

	if words := len(strings.Fields(text)); words < in.minWords {
		logger().Warn("Low text content", "file", doc.Name, "words", words)
	}

	pieces, err := in.chunker.Chunk(text)
	if err != nil {
		return fileOutcome{doc: doc, err: &commonModels.ExtractionError{File: doc.Name, Err: err}}
	}
	chunks := make([]commonModels.DocChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = commonModels.DocChunk{Doc: doc, Index: i, Text: p}
	}
	return fileOutcome{doc: doc, chunks: chunks}
}

// discover lists supported files under every subject folder of root, in
// lexical folder then file order. Loose files at the root are ignored.
func discover(root string) ([]commonModels.Document, error) {
	folders, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read raw document dir: %w", err)
	}

	var docs []commonModels.Document
	for _, folder := range folders {
		if !folder.IsDir() || strings.HasPrefix(folder.Name(), ".") {
			continue
		}
		subject := SubjectLabel(folder.Name())
		files, err := os.ReadDir(filepath.Join(root, folder.Name()))
		if err != nil {
			return nil, fmt.Errorf("read subject dir %s: %w", folder.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			docType := getDocType(f.Name())
			if docType == commonModels.ERR {
				logger().Debug("skipping unsupported file", "file", f.Name())
				continue
			}
			docs = append(docs, commonModels.Document{
				Subject:     subject,
				Folder:      folder.Name(),
				Name:        f.Name(),
				Path:        filepath.Join(root, folder.Name(), f.Name()),
				ContentType: docType,
			})
		}
	}
	return docs, nil
}

// SubjectLabel turns a folder name such as "Operating_System" into
// "Operating System". Existing capitals are kept.
func SubjectLabel(folder string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.ReplaceAll(folder, "_", " "))
}
