package viewmodel

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/service"
)

// AccountsView is the chart of accounts page.
type AccountsView struct {
	svc      service.AccountingService
	notifier notify.Notifier
	logger   logrus.FieldLogger

	mu         sync.RWMutex
	accounts   []domain.Account
	filter     AccountFilter
	loading    bool
	submitting bool
	deleting   map[int64]bool
}

func NewAccountsView(svc service.AccountingService, notifier notify.Notifier, logger logrus.FieldLogger) *AccountsView {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AccountsView{
		svc:      svc,
		notifier: notifier,
		logger:   logger,
		filter:   AccountFilter{Type: AllTypes},
		deleting: make(map[int64]bool),
	}
}

// Categories lists the account types a form may offer.
func (v *AccountsView) Categories() []domain.AccountCategory {
	return domain.AccountCategories()
}

// Fetch replaces the collection with the backend's current list.
func (v *AccountsView) Fetch(ctx context.Context) error {
	v.setLoading(true)
	defer v.setLoading(false)

	accounts, err := v.svc.ListAccounts(ctx, nil)
	if err != nil {
		v.logger.WithError(err).Error("failed to load accounts")
		v.notifier.Notify(notify.LevelError, "Failed to load accounts")
		return err
	}

	v.mu.Lock()
	v.accounts = accounts
	v.mu.Unlock()
	return nil
}

func (v *AccountsView) SetSearch(search string) {
	v.mu.Lock()
	v.filter.Search = search
	v.mu.Unlock()
}

// SetTypeFilter selects one account type, or AllTypes.
func (v *AccountsView) SetTypeFilter(accountType string) {
	v.mu.Lock()
	v.filter.Type = accountType
	v.mu.Unlock()
}

func (v *AccountsView) Filter() AccountFilter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Accounts returns the unfiltered collection.
func (v *AccountsView) Accounts() []domain.Account {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Account(nil), v.accounts...)
}

// Filtered applies the current filter to the fetched collection.
func (v *AccountsView) Filtered() []domain.Account {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return FilterAccounts(v.accounts, v.filter)
}

// Create posts a new account and reloads the list. When only the reload
// fails the error wraps ErrRefetch and the created account is returned.
func (v *AccountsView) Create(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	v.setSubmitting(true)
	defer v.setSubmitting(false)

	account, err := v.svc.CreateAccount(ctx, in)
	if err != nil {
		v.logger.WithError(err).Error("failed to create account")
		v.notifier.Notify(notify.LevelError, "Failed to create account")
		return nil, err
	}
	v.notifier.Notify(notify.LevelSuccess, "Account created successfully")
	return account, refetched("accounts", v.Fetch(ctx))
}

// Update follows the same error contract as Create.
func (v *AccountsView) Update(ctx context.Context, id int64, in domain.AccountInput) (*domain.Account, error) {
	v.setSubmitting(true)
	defer v.setSubmitting(false)

	account, err := v.svc.UpdateAccount(ctx, id, in)
	if err != nil {
		v.logger.WithError(err).WithField("account_id", id).Error("failed to update account")
		v.notifier.Notify(notify.LevelError, "Failed to update account")
		return nil, err
	}
	v.notifier.Notify(notify.LevelSuccess, "Account updated successfully")
	return account, refetched("accounts", v.Fetch(ctx))
}

func (v *AccountsView) Delete(ctx context.Context, id int64) error {
	v.setDeleting(id, true)
	defer v.setDeleting(id, false)

	if err := v.svc.DeleteAccount(ctx, id); err != nil {
		v.logger.WithError(err).WithField("account_id", id).Error("failed to delete account")
		v.notifier.Notify(notify.LevelError, "Failed to delete account")
		return err
	}
	v.notifier.Notify(notify.LevelSuccess, "Account deleted successfully")
	return refetched("accounts", v.Fetch(ctx))
}

func (v *AccountsView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

func (v *AccountsView) Submitting() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.submitting
}

// Deleting reports whether a delete of id is in flight.
func (v *AccountsView) Deleting(id int64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.deleting[id]
}

func (v *AccountsView) setLoading(b bool) {
	v.mu.Lock()
	v.loading = b
	v.mu.Unlock()
}

func (v *AccountsView) setSubmitting(b bool) {
	v.mu.Lock()
	v.submitting = b
	v.mu.Unlock()
}

func (v *AccountsView) setDeleting(id int64, b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if b {
		v.deleting[id] = true
		return
	}
	delete(v.deleting, id)
}
