package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ChunkerConfig struct {
	MaxTokens    int    `yaml:"max_tokens"`
	TokenOverlap int    `yaml:"token_overlap"`
	Encoding     string `yaml:"encoding"`
}

// EmbedderConfig selects the embedding provider. Model identity is recorded
// in every snapshot, so changing Provider or Model requires re-ingestion.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
	APIKey    string `yaml:"-"`
}

type RetrieverConfig struct {
	TopK           int    `yaml:"top_k"`
	UnknownSource  string `yaml:"unknown_source"`
	UnknownSubject string `yaml:"unknown_subject"`
}

type AnswerConfig struct {
	Model             string `yaml:"model"`
	ConfidenceFormula string `yaml:"confidence_formula"`
	APIKey            string `yaml:"-"`
}

type IngestConfig struct {
	RawPDFDir       string `yaml:"raw_pdf_dir"`
	Workers         int    `yaml:"workers"`
	MinWordsWarning int    `yaml:"min_words_warning"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	LRUSize   int           `yaml:"lru_size"`
	TTL       time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	AuthToken  string `yaml:"-"`
}

// AppConfig is the root configuration shared by the ingest and api binaries.
type AppConfig struct {
	CorpusDir string          `yaml:"corpus_dir"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Answer    AnswerConfig    `yaml:"answer"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads the YAML file at path (a missing file yields defaults), then
// applies .env and environment overrides.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	// .env is optional, same as the environment itself
	_ = godotenv.Load()
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.CorpusDir, "STUDYRAG_CORPUS_DIR")
	setString(&cfg.Ingest.RawPDFDir, "STUDYRAG_RAW_PDF_DIR")
	setString(&cfg.Embedder.Provider, "STUDYRAG_EMBEDDER")
	setString(&cfg.Embedder.Model, "STUDYRAG_EMBEDDING_MODEL")
	setInt(&cfg.Retriever.TopK, "STUDYRAG_TOP_K")
	setString(&cfg.Answer.ConfidenceFormula, "STUDYRAG_CONFIDENCE_FORMULA")
	setString(&cfg.Cache.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Server.ListenAddr, "STUDYRAG_LISTEN_ADDR")
	setString(&cfg.Server.AuthToken, "STUDYRAG_AUTH_TOKEN")
	setString(&cfg.Answer.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Log.Level, "STUDYRAG_LOG_LEVEL")
	setString(&cfg.Log.Format, "STUDYRAG_LOG_FORMAT")

	switch cfg.Embedder.Provider {
	case "google":
		setString(&cfg.Embedder.APIKey, "GEMINI_API_KEY")
	case "openai":
		setString(&cfg.Embedder.APIKey, "OPENAI_API_KEY")
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.CorpusDir == "" {
		cfg.CorpusDir = DefaultCorpusDir
	}
	if cfg.Chunker.MaxTokens <= 0 {
		cfg.Chunker.MaxTokens = DefaultMaxTokens
	}
	if cfg.Chunker.TokenOverlap <= 0 {
		cfg.Chunker.TokenOverlap = DefaultTokenOverlap
	}
	if cfg.Chunker.Encoding == "" {
		cfg.Chunker.Encoding = DefaultTokenEncoding
	}
	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = DefaultEmbeddingProvider
	}
	if cfg.Embedder.Model == "" {
		switch cfg.Embedder.Provider {
		case "google":
			cfg.Embedder.Model = GoogleEmbeddingModel
		case "openai":
			cfg.Embedder.Model = OpenAIEmbeddingModel
		}
	}
	if cfg.Embedder.Dimension <= 0 {
		switch cfg.Embedder.Provider {
		case "google":
			cfg.Embedder.Dimension = GoogleEmbeddingDimension
		case "hash":
			cfg.Embedder.Dimension = DefaultHashEmbeddingDimension
		}
	}
	if cfg.Embedder.BatchSize <= 0 {
		cfg.Embedder.BatchSize = DefaultEmbeddingBatchSize
	}
	if cfg.Embedder.Workers <= 0 {
		cfg.Embedder.Workers = DefaultEmbeddingWorkers
	}
	if cfg.Retriever.TopK <= 0 {
		cfg.Retriever.TopK = DefaultTopK
	}
	if cfg.Retriever.UnknownSource == "" {
		cfg.Retriever.UnknownSource = DefaultUnknownSource
	}
	if cfg.Retriever.UnknownSubject == "" {
		cfg.Retriever.UnknownSubject = DefaultUnknownSubject
	}
	if cfg.Answer.Model == "" {
		cfg.Answer.Model = GeminiModelName
	}
	if cfg.Answer.ConfidenceFormula == "" {
		cfg.Answer.ConfidenceFormula = DefaultConfidenceFormula
	}
	if cfg.Ingest.RawPDFDir == "" {
		cfg.Ingest.RawPDFDir = DefaultRawPDFDir
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = DefaultIngestWorkers
	}
	if cfg.Ingest.MinWordsWarning <= 0 {
		cfg.Ingest.MinWordsWarning = DefaultMinWordsWarning
	}
	if cfg.Cache.LRUSize <= 0 {
		cfg.Cache.LRUSize = DefaultCacheLRUSize
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ServerListenAddr
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}
