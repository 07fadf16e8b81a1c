package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/faeln1/go-discord-observer/pkg/logger"
)

func Logging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				log.Warnf("%s %s %d %s", r.Method, r.URL.Path, status, time.Since(start))
				return
			}
			log.Debugf("%s %s %d %s", r.Method, r.URL.Path, status, time.Since(start))
		})
	}
}
