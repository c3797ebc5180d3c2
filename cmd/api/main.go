// @title           StudyRAG API
// @version         1.0
// @description     Retrieval over a subject organised study corpus, with exam style answers.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/data/store"
	"github.com/akolanti/StudyRAG/internal/handlers"
	"github.com/akolanti/StudyRAG/internal/mcpserver"
	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/internal/middleware"
	"github.com/akolanti/StudyRAG/internal/rag"
	"github.com/akolanti/StudyRAG/internal/rag/embedding/provider"
	"github.com/akolanti/StudyRAG/internal/rag/llm"
	"github.com/akolanti/StudyRAG/internal/rag/llm/gemini"
	"github.com/akolanti/StudyRAG/internal/server"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var (
	configPath string
	listenAddr string
	corpusDir  string
	serveMCP   bool
)

func main() {
	flag.StringVar(&configPath, "config", "studyrag.yaml", "path to the yaml config file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides config)")
	flag.StringVar(&corpusDir, "corpus", "", "corpus snapshot directory (overrides config)")
	flag.BoolVar(&serveMCP, "mcp", false, "serve the retriever as an MCP tool over stdio instead of http")
	flag.Parse()

	// stdout belongs to the MCP transport
	logOut := io.Writer(os.Stdout)
	if serveMCP {
		logOut = os.Stderr
	}
	logger_i.InitWithWriter(logOut)
	var logger = logger_i.NewLogger("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Could not load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	if err := logger_i.Configure(logOut, logger_i.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		logger.Error("Invalid log configuration", "error", err)
		os.Exit(1)
	}
	logger = logger_i.NewLogger("main")
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if corpusDir != "" {
		cfg.CorpusDir = corpusDir
	}

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	embedder, err := provider.New(serviceContext, cfg.Embedder)
	if err != nil {
		logger.Error("Embedding provider failed to initialize", "provider", cfg.Embedder.Provider, "error", err)
		os.Exit(1)
	}

	corpus, manifest, err := store.Load(cfg.CorpusDir)
	if err != nil {
		logger.Error("Could not load corpus, run cmd/ingest first", "dir", cfg.CorpusDir, "error", err)
		os.Exit(1)
	}
	if err := manifest.CheckModel(embedder.ModelName()); err != nil {
		logger.Error("Corpus was built with a different embedding model", "error", err)
		os.Exit(1)
	}
	metrics.SetCorpusChunks(corpus.Len())
	logger.Info("Corpus loaded", "snapshot", manifest.SnapshotId, "chunks", corpus.Len(), "model", manifest.Model)

	var llmProvider llm.Provider
	if geminiClient, err := gemini.NewGeminiClient(serviceContext, cfg.Answer.Model, cfg.Answer.APIKey); err != nil {
		logger.Warn("Answer generation disabled", "error", err)
	} else {
		llmProvider = geminiClient
	}

	ragService := rag.NewService(corpus, provider.WithCache(serviceContext, embedder, cfg.Cache), llmProvider, rag.Options{
		TopK:              cfg.Retriever.TopK,
		UnknownSource:     cfg.Retriever.UnknownSource,
		UnknownSubject:    cfg.Retriever.UnknownSubject,
		ConfidenceFormula: cfg.Answer.ConfidenceFormula,
	})

	if serveMCP {
		ctx, stop := signal.NotifyContext(serviceContext, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := mcpserver.NewServer(ragService).Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("MCP server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	handler := server.Routes(
		handlers.NewRAGHandler(ragService, manifest),
		middleware.NewChain(cfg.Server.AuthToken, nil),
	)
	server.CreateServer(cfg.Server.ListenAddr, handler)
	go server.ShutDownHandler(shutdownParams)

	<-stopExecution
	logger.Info("Server stopped")
}
