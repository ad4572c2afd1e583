package logger

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"task_web/internal/htmx"
)

const HeaderRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger attaches a request-scoped logger to the request context and
// logs the start and outcome of every request.
func RequestLogger(baseLogger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = newRequestID()
			}
			w.Header().Set(HeaderRequestID, requestID)

			reqLogger := baseLogger.With(
				"request_id", requestID,
				"traceparent", generateTraceparent(),
			)

			reqLogger.Info("request started",
				"method", r.Method,
				"path", r.URL.Path,
				"mode", htmx.ModeOf(r).String(),
			)
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w}
			ctx := NewContext(r.Context(), reqLogger)
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			reqLogger.Info("request completed", "status", status, "duration", time.Since(start))
		})
	}
}

// Recover turns a handler panic into a 500 and logs it with the request logger.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}
			FromContext(r.Context()).Error("panic while handling request",
				"path", r.URL.Path,
				"panic", fmt.Sprint(rv),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

func newRequestID() string {
	id, err := nanoid.New()
	if err != nil {
		return generateSpanID()
	}
	return id
}

var requests = atomic.Int64{}

func generateTraceID() string {
	hi := rand.Uint64()
	lo := rand.Uint64()
	return fmt.Sprintf("%016x%016x", hi, lo)
}

func generateSpanID() string {
	return fmt.Sprintf("%016x", rand.Uint64())
}

// One request in a hundred is marked as sampled.
func generateTraceFlags() string {
	if requests.Add(1)%100 == 1 {
		return "01"
	}
	return "00"
}

func generateTraceparent() string {
	return fmt.Sprintf("00-%s-%s-%s", generateTraceID(), generateSpanID(), generateTraceFlags())
}
