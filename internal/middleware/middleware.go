package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/StudyRAG/internal/metrics"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Chain runs trace injection, bearer auth and per-ip rate limiting in front
// of a handler. An empty authToken turns auth off.
type Chain struct {
	authToken string
	limiter   *IPRateLimiter
}

func NewChain(authToken string, limiter *IPRateLimiter) *Chain {
	if limiter == nil {
		limiter = NewIPRateLimiter(rate.Limit(defaultRate), defaultBurst)
	}
	if authToken == "" {
		logger_i.NewLogger("middleware").Warn("no auth token configured, requests are not authenticated")
	}
	return &Chain{authToken: authToken, limiter: limiter}
}

func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := c.processRequest(requestResponseStruct{req: r, writer: rec})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func (c *Chain) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Debug("New request received", "path", re.req.URL.Path)

	for _, step := range []func(requestResponseStruct) requestResponseStruct{injectTrace, c.authenticate, c.rateLimit} {
		re = step(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	return re
}
