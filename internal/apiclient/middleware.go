package apiclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"ledgerdesk/internal/repository"
)

// RequestIDHeader correlates client log lines with backend logs.
const RequestIDHeader = "X-Request-ID"

// Handler sends one prepared request.
type Handler func(req *http.Request) (*Response, error)

// Middleware decorates a Handler with one cross-cutting concern.
type Middleware func(next Handler) Handler

// Chain wraps h so that mws[0] runs first.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithRequestID stamps requests that do not carry an id yet.
func WithRequestID() Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*Response, error) {
			if req.Header.Get(RequestIDHeader) == "" {
				req.Header.Set(RequestIDHeader, uuid.NewString())
			}
			return next(req)
		}
	}
}

// WithBearerToken reads the persisted access token for every request and
// attaches it. Without a token the request goes out unauthenticated.
func WithBearerToken(tokens repository.TokenStore, logger logrus.FieldLogger) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*Response, error) {
			token, err := repository.AccessToken(req.Context(), tokens)
			if err != nil {
				logger.WithError(err).Warn("read access token")
			}
			if token != "" {
				(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
			}
			return next(req)
		}
	}
}

// WithLogging logs every exchange at debug level.
func WithLogging(logger logrus.FieldLogger, relPath func(*http.Request) string) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*Response, error) {
			start := time.Now()
			resp, err := next(req)

			fields := logrus.Fields{
				"method":     req.Method,
				"path":       relPath(req),
				"request_id": req.Header.Get(RequestIDHeader),
				"duration":   time.Since(start).String(),
			}
			if resp != nil {
				fields["status"] = resp.StatusCode
			}
			entry := logger.WithFields(fields)
			if err != nil {
				entry.WithError(err).Debug("api call failed")
			} else {
				entry.Debug("api call")
			}
			return resp, err
		}
	}
}
