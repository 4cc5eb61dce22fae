package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs one line per request and puts a request-scoped logger carrying the
// chi request id on the context. Must run after chimw.RequestID.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := log.With().Str("request_id", chimw.GetReqID(r.Context())).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = logger.Error()
		case status >= 400:
			evt = logger.Warn()
		default:
			evt = logger.Info()
		}
		evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Str("remote_ip", ClientIP(r)).
			Msg("request")
	})
}
