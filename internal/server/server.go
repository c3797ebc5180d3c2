package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/StudyRAG/internal/adapter/utils"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/handlers"
	"github.com/akolanti/StudyRAG/internal/middleware"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var server *http.Server

var logger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("Server")
})

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	CloseServices    context.CancelFunc
}

// Routes mounts the RAG endpoints behind the middleware chain. /health,
// /metrics and /swagger stay open.
func Routes(h *handlers.RAGHandler, chain *middleware.Chain) http.Handler {
	r := utils.NewRouter()

	r.Get("/health", h.HealthHandler)
	r.Post("/query", chain.Wrap(h.QueryHandler))
	r.Post("/retrieve", chain.Wrap(h.RetrieveHandler))
	r.Get("/retrieve", chain.Wrap(h.RetrieveHandler))
	return r
}

// CreateServer starts listening in the background. ShutDownHandler stops it.
func CreateServer(listenAddr string, handler http.Handler) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger().Info("Server is listening at", "address", listenAddr)
	go func(s *http.Server) {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger().Error("Server crashed", "error", err.Error(), "addr", listenAddr)
		}
	}(server)
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	logger().Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			logger().Error("Could not shutdown gracefully", "error", err)
		}

		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		logger().Info("Gracefully shut down")
	case <-ctx.Done():
		logger().Info("Force Shut down")
		os.Exit(1)
	}
}
