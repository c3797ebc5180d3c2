package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("STUDYRAG_TOP_K", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Chunker.MaxTokens != DefaultMaxTokens || cfg.Chunker.TokenOverlap != DefaultTokenOverlap {
		t.Errorf("chunker defaults got %d/%d", cfg.Chunker.MaxTokens, cfg.Chunker.TokenOverlap)
	}
	if cfg.Retriever.TopK != DefaultTopK {
		t.Errorf("TopK got %d, want %d", cfg.Retriever.TopK, DefaultTopK)
	}
	if cfg.Embedder.Provider != "hash" || cfg.Embedder.Dimension != DefaultHashEmbeddingDimension {
		t.Errorf("embedder defaults got %+v", cfg.Embedder)
	}
	if cfg.Retriever.UnknownSource != "Unknown" || cfg.Retriever.UnknownSubject != "General" {
		t.Errorf("sentinels got %q/%q", cfg.Retriever.UnknownSource, cfg.Retriever.UnknownSubject)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := []byte("corpus_dir: /tmp/corpus\nchunker:\n  max_tokens: 128\nembedder:\n  provider: openai\nretriever:\n  top_k: 5\nlog:\n  level: info\n  format: json\n")
	if err := os.WriteFile(path, yamlData, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STUDYRAG_TOP_K", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STUDYRAG_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CorpusDir != "/tmp/corpus" {
		t.Errorf("CorpusDir got %s", cfg.CorpusDir)
	}
	if cfg.Chunker.MaxTokens != 128 || cfg.Chunker.TokenOverlap != DefaultTokenOverlap {
		t.Errorf("chunker got %+v", cfg.Chunker)
	}
	if cfg.Retriever.TopK != 7 {
		t.Errorf("env override TopK got %d, want 7", cfg.Retriever.TopK)
	}
	if cfg.Embedder.Model != OpenAIEmbeddingModel || cfg.Embedder.APIKey != "sk-test" {
		t.Errorf("openai embedder got %+v", cfg.Embedder)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("log got %+v", cfg.Log)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chunker: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected yaml error, got nil")
	}
}
