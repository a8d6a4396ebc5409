package middleware

import (
	"net/http"

	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a request ID, honoring one the caller
// already supplied, and stamps it into both the response header and the
// logging context so a single ID threads through the handler and every
// log line it emits.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			if generated, err := uuid.New(); err == nil {
				id = generated.String()
			}
		}

		w.Header().Set(requestIDHeader, id)
		ctx := wrap.WithRequestID(r.Context(), id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
