package embedding

import (
	"sync"

	"github.com/akolanti/StudyRAG/pkg/logger_i"
)

var logger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("embedding")
})
