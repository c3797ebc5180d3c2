package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                     = false
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	RATE_LIMIT_IDLE_EVICTION    = 10 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	QueryTimeout           = 45 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//chunking
	DefaultMaxTokens     = 400
	DefaultTokenOverlap  = 50
	DefaultTokenEncoding = "cl100k_base"

	//embeddings
	DefaultEmbeddingProvider      = "hash"
	DefaultHashEmbeddingDimension = 1024
	DefaultEmbeddingBatchSize     = 32
	DefaultEmbeddingWorkers       = 2
	GoogleEmbeddingModel          = "gemini-embedding-001"
	GoogleEmbeddingDimension      = 768
	OpenAIEmbeddingModel          = "text-embedding-3-small"
	EmbeddingRetryDelay           = 5 * time.Second

	//retrieval
	DefaultTopK           = 3
	DefaultUnknownSource  = "Unknown"
	DefaultUnknownSubject = "General"

	//answers
	GeminiModelName          = "gemini-2.5-flash"
	ConfidenceLinear20       = "linear20" // min(90, n*20)
	ConfidenceBase60         = "base60"   // min(95, 60+n*10)
	DefaultConfidenceFormula = ConfidenceLinear20
	NoContextAnswer          = "No relevant context was retrieved to answer this question."

	//ingestion
	DefaultIngestWorkers   = 4
	DefaultMinWordsWarning = 200
	PageExtractTimeout     = 10 * time.Second
	MaxPageParsers         = 16
	DefaultRawPDFDir       = "data/raw_pdfs"
	DefaultCorpusDir       = "data/faiss_index"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
	TLSHandshakeTimeout = 10 * time.Second
	ProviderCallTimeout = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisEmbeddingCacheDB = 0
	RedisPingTimeout      = 3 * time.Second
	RedisCommandTimeout   = 2 * time.Second

	//query embedding cache
	DefaultCacheLRUSize = 1024
	DefaultCacheTTL     = 24 * time.Hour
)
