package viewmodel

import (
	"context"
	"sync"

	"ledgerdesk/internal/apiclient"
	"ledgerdesk/internal/notify"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/dashboard"

// Authenticator signs a user in; *session.Manager satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
}

// LoginForm is the login page. Login failures bypass the client's global
// error handling, so the form reports them itself.
type LoginForm struct {
	auth      Authenticator
	notifier  notify.Notifier
	navigator notify.Navigator

	mu       sync.RWMutex
	username string
	password string
	loading  bool
}

func NewLoginForm(auth Authenticator, notifier notify.Notifier, navigator notify.Navigator) *LoginForm {
	if notifier == nil {
		notifier = notify.Discard
	}
	if navigator == nil {
		navigator = notify.Nowhere
	}
	return &LoginForm{auth: auth, notifier: notifier, navigator: navigator}
}

func (f *LoginForm) SetUsername(username string) {
	f.mu.Lock()
	f.username = username
	f.mu.Unlock()
}

func (f *LoginForm) SetPassword(password string) {
	f.mu.Lock()
	f.password = password
	f.mu.Unlock()
}

// Submit signs in with the entered credentials.
func (f *LoginForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	f.loading = true
	username, password := f.username, f.password
	f.mu.Unlock()

	err := f.auth.Login(ctx, username, password)

	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()

	if err != nil {
		f.notifier.Notify(notify.LevelError, apiclient.Message(err))
		return err
	}
	f.notifier.Notify(notify.LevelSuccess, "Login successful")
	f.navigator.Navigate(DashboardPath)
	return nil
}

func (f *LoginForm) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}
