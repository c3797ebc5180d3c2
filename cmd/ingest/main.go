package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/rag/chunker"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/provider"
	"github.com/akolanti/StudyRAG/internal/rag/ingest"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

// ingest rebuilds the corpus snapshot from <raw>/<subject folder>/<file>.
// The summary is printed as json on stdout, logs go to stderr.
func main() {
	var configPath, rawDir, corpusDir string
	var workers int
	flag.StringVar(&configPath, "config", "studyrag.yaml", "path to the yaml config file")
	flag.StringVar(&rawDir, "raw", "", "directory of subject folders (overrides config)")
	flag.StringVar(&corpusDir, "corpus", "", "corpus snapshot directory (overrides config)")
	flag.IntVar(&workers, "workers", 0, "extraction workers (overrides config)")
	flag.Parse()

	logger_i.InitWithWriter(os.Stderr)
	logger := logger_i.NewLogger("ingest")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Could not load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	if err := logger_i.Configure(os.Stderr, logger_i.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		logger.Error("Invalid log configuration", "error", err)
		os.Exit(1)
	}
	logger = logger_i.NewLogger("ingest")
	if rawDir != "" {
		cfg.Ingest.RawPDFDir = rawDir
	}
	if corpusDir != "" {
		cfg.CorpusDir = corpusDir
	}
	if workers > 0 {
		cfg.Ingest.Workers = workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokenizer, err := chunker.NewBPETokenizer(cfg.Chunker.Encoding)
	if err != nil {
		logger.Error("Tokenizer failed to initialize", "encoding", cfg.Chunker.Encoding, "error", err)
		os.Exit(1)
	}
	c, err := chunker.New(tokenizer, chunker.WithMaxTokens(cfg.Chunker.MaxTokens), chunker.WithOverlap(cfg.Chunker.TokenOverlap))
	if err != nil {
		logger.Error("Invalid chunker configuration", "error", err)
		os.Exit(1)
	}
	embedder, err := provider.New(ctx, cfg.Embedder)
	if err != nil {
		logger.Error("Embedding provider failed to initialize", "provider", cfg.Embedder.Provider, "error", err)
		os.Exit(1)
	}

	in := ingest.NewIngester(c, embedder, cfg.Ingest.Workers, cfg.Ingest.MinWordsWarning)
	summary, err := in.Run(ctx, cfg.Ingest.RawPDFDir, cfg.CorpusDir)
	if err != nil {
		logger.Error("Ingestion failed, the previous snapshot is untouched", "error", err)
		os.Exit(1)
	}
	logger.Info("Index saved successfully", "dir", cfg.CorpusDir, "snapshot", summary.SnapshotId, "chunks", summary.TotalChunks)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Error("Could not write summary", "error", err)
		os.Exit(1)
	}
}
