package middleware

import (
	"github.com/wayfarer-go/navigator/pkg/hasher"
	"github.com/wayfarer-go/navigator/pkg/logger"
)

// Middleware groups the HTTP cross-cutting concerns applied to every route:
// request identification, structured logging, panic recovery, metrics, and
// bearer-token authentication of the session-mutating endpoints.
type Middleware struct {
	jwtSecret      string
	wsStreamKeyHash string
	log            logger.Logger
}

func NewMiddleware(jwtSecret, wsStreamKey string, log logger.Logger) *Middleware {
	return &Middleware{
		jwtSecret:       jwtSecret,
		wsStreamKeyHash: hasher.Hash(wsStreamKey),
		log:             log,
	}
}
