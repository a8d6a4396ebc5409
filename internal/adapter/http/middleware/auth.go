package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wayfarer-go/navigator/pkg/hasher"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type contextKey string

const deviceIDContextKey contextKey = "device_id"

// Auth validates a bearer JWT minted by whatever identity system fronts this
// host and injects the authenticated device ID into the request context.
// It does not itself decide whether that device may act on a given
// session; handlers own that check.
func (m *Middleware) Auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		deviceID, err := m.verifyDeviceToken(token)
		if err != nil {
			m.log.Warn(wrap.WithAction(r.Context(), "http_auth"), "rejected bearer token", "error", err.Error())
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), deviceIDContextKey, deviceID)
		next(w, r.WithContext(ctx))
	})
}

// AuthWebSocket authenticates the WebSocket upgrade path, where a browser
// client cannot always set an Authorization header, via a `key` query
// parameter checked against the configured stream key's hash.
func (m *Middleware) AuthWebSocket(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if key == "" || !hasher.Verify(key, m.wsStreamKeyHash) {
			errorResponse(w, http.StatusUnauthorized, "invalid or missing stream key")
			return
		}
		next(w, r)
	})
}

func (m *Middleware) verifyDeviceToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	deviceID, _ := claims["device_id"].(string)
	if deviceID == "" {
		return "", errors.New("token missing device_id claim")
	}

	return deviceID, nil
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}

// DeviceIDFromContext returns the authenticated device ID injected by Auth,
// or "" if the request was never authenticated.
func DeviceIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(deviceIDContextKey).(string)
	return v
}
