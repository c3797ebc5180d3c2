package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/akolanti/StudyRAG/internal/adapter"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var logger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("RequestHandler")
})

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logger().Error("Error encoding response", "error", err)
	}
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logger().WithTrace(ctx).Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, r *http.Request, httpCode int, message string) {
	trace, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	writeJsonResponse(w, httpCode, adapter.BadRequest(trace, message, httpCode))
}
