package apiclient

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/repository"
)

const (
	// LoginPath is exempt from global error handling; the login flow reports its own errors.
	LoginPath = "/login"

	NoticeSessionExpired = "Session expired. Please login again."
	NoticeForbidden      = "You do not have permission to perform this action."
	NoticeGeneric        = "An error occurred. Please try again."
)

// Action is what the error policy does for one failed response.
type Action struct {
	// Passthrough means no notice and no side effect.
	Passthrough bool
	Kind        Kind
	Notice      string
	// ExpireSession clears local storage and sends the user to the login entry point.
	ExpireSession bool
}

// Classify decides the action for a failed response to path. It never inspects
// network failures; those carry no response.
func Classify(path string, status int, body []byte) Action {
	if path == LoginPath {
		return Action{Passthrough: true, Kind: kindFor(status, detailOf(body))}
	}

	detail := detailOf(body)
	switch kind := kindFor(status, detail); kind {
	case KindUnauthorized:
		return Action{Kind: kind, Notice: NoticeSessionExpired, ExpireSession: true}
	case KindForbidden:
		return Action{Kind: kind, Notice: NoticeForbidden}
	case KindValidation:
		return Action{Kind: kind, Notice: detail}
	default:
		return Action{Kind: kind, Notice: NoticeGeneric}
	}
}

// Policy performs the side effects chosen by Classify. The error always keeps
// propagating to the caller.
type Policy struct {
	tokens    repository.TokenStore
	notifier  notify.Notifier
	navigator notify.Navigator
	logger    logrus.FieldLogger

	mu        sync.RWMutex
	listeners []func(ctx context.Context)
}

func NewPolicy(tokens repository.TokenStore, notifier notify.Notifier, navigator notify.Navigator, logger logrus.FieldLogger) *Policy {
	if notifier == nil {
		notifier = notify.Discard
	}
	if navigator == nil {
		navigator = notify.Nowhere
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Policy{
		tokens:    tokens,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger,
	}
}

// OnSessionExpired registers fn to run after a non-login 401 wiped local storage.
func (p *Policy) OnSessionExpired(fn func(ctx context.Context)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Handle applies the policy to err. Errors that are not response errors are ignored.
func (p *Policy) Handle(ctx context.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind == KindNetwork {
		return
	}

	action := Classify(apiErr.Path, apiErr.StatusCode, apiErr.Body)
	if action.Passthrough {
		return
	}

	p.logger.WithFields(logrus.Fields{
		"method": apiErr.Method,
		"path":   apiErr.Path,
		"status": apiErr.StatusCode,
		"kind":   action.Kind.String(),
	}).Warn("request failed")

	if action.ExpireSession {
		p.expireSession(context.WithoutCancel(ctx))
		return
	}
	p.notifier.Notify(notify.LevelError, action.Notice)
}

func (p *Policy) expireSession(ctx context.Context) {
	if p.tokens != nil {
		if err := p.tokens.Clear(ctx); err != nil {
			p.logger.WithError(err).Error("clear local storage")
		}
	}
	p.notifier.Notify(notify.LevelError, NoticeSessionExpired)

	p.mu.RLock()
	listeners := append([]func(context.Context){}, p.listeners...)
	p.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx)
	}

	p.navigator.Navigate(LoginPath)
}

// WithErrorPolicy runs p on every failed call and returns the failure unchanged.
func WithErrorPolicy(p *Policy) Middleware {
	return func(next Handler) Handler {
		return func(req *http.Request) (*Response, error) {
			resp, err := next(req)
			if err != nil {
				p.Handle(req.Context(), err)
			}
			return resp, err
		}
	}
}
