package docstore

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/tada/internal/auth"
)

type claimsKey struct{}

// claimsFrom returns the verified claims authenticate stored on the request.
func claimsFrom(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return c, ok
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			writeError(w, http.StatusUnauthorized, "expected 'Authorization: Bearer <token>'")
			return
		}
		claims, err := auth.Verify(s.secret, h, s.now())
		if err != nil {
			s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe logs and counts every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(m.Code)).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(m.Duration.Seconds())
		s.log.Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", m.Code).
			Dur("duration", m.Duration).
			Int64("bytes", m.Written).
			Msg("handled")
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				writeError(w, http.StatusInternalServerError, "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
