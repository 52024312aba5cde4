package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/skycast/infrastructure/logging"
)

// requestIDHeader carries the request ID to and from clients.
const requestIDHeader = "X-Request-Id"

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLogging assigns a request ID, logs each request, and records
// request metrics.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(start)

		s.metrics.RecordRequest(r.Context(), r.URL.Path, recorder.status, elapsed)
		logging.NewEvent(s.log.Info()).
			Add(logging.Component("api")).
			Add(logging.RequestID(requestID)).
			Add(logging.Route(r.Method + " " + r.URL.Path)).
			Add(logging.Status(recorder.status)).
			Add(logging.Duration(elapsed)).
			Msg("request handled")
	})
}
