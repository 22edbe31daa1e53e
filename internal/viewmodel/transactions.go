package viewmodel

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/service"
)

// TransactionsView is the transactions page. Type, account and date filters
// are sent to the backend and also applied locally; search is local only.
type TransactionsView struct {
	svc      service.AccountingService
	notifier notify.Notifier
	logger   logrus.FieldLogger
	now      func() time.Time

	mu           sync.RWMutex
	transactions []domain.Transaction
	accounts     []domain.Account
	filter       TransactionFilter
	loading      bool
	submitting   bool
	deleting     map[int64]bool
}

func NewTransactionsView(svc service.AccountingService, notifier notify.Notifier, logger logrus.FieldLogger) *TransactionsView {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TransactionsView{
		svc:      svc,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		filter:   TransactionFilter{Type: AllTypes},
		deleting: make(map[int64]bool),
	}
}

// Load fetches transactions and the accounts used for labels in parallel.
// Both fetches always run to completion.
func (v *TransactionsView) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return v.Fetch(ctx) })
	g.Go(func() error { return v.FetchAccounts(ctx) })
	return g.Wait()
}

// Params renders the server-side part of the current filter.
func (v *TransactionsView) Params() service.Params {
	f := v.Filter()
	params := service.Params{}
	if f.Type != "" && f.Type != AllTypes {
		params["transaction_type"] = f.Type
	}
	if f.AccountID != 0 {
		params["account_id"] = strconv.FormatInt(f.AccountID, 10)
	}
	if f.StartDate != "" {
		params["start_date"] = f.StartDate
	}
	if f.EndDate != "" {
		params["end_date"] = f.EndDate
	}
	return params
}

// Fetch replaces the transaction collection using the current filter.
func (v *TransactionsView) Fetch(ctx context.Context) error {
	v.setLoading(true)
	defer v.setLoading(false)

	txs, err := v.svc.ListTransactions(ctx, v.Params())
	if err != nil {
		v.logger.WithError(err).Error("failed to load transactions")
		v.notifier.Notify(notify.LevelError, "Failed to load transactions")
		return err
	}

	v.mu.Lock()
	v.transactions = txs
	v.mu.Unlock()
	return nil
}

// FetchAccounts refreshes the account list used to label transactions.
func (v *TransactionsView) FetchAccounts(ctx context.Context) error {
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

func (v *TransactionsView) SetSearch(search string) {
	v.mu.Lock()
	v.filter.Search = search
	v.mu.Unlock()
}

// SetTypeFilter selects "debit", "credit" or AllTypes.
func (v *TransactionsView) SetTypeFilter(txType string) {
	v.mu.Lock()
	v.filter.Type = txType
	v.mu.Unlock()
}

// SetAccountFilter selects one account; 0 selects all.
func (v *TransactionsView) SetAccountFilter(accountID int64) {
	v.mu.Lock()
	v.filter.AccountID = accountID
	v.mu.Unlock()
}

// SetDateRange sets the inclusive YYYY-MM-DD bounds; empty leaves a side open.
func (v *TransactionsView) SetDateRange(start, end string) {
	v.mu.Lock()
	v.filter.StartDate = start
	v.filter.EndDate = end
	v.mu.Unlock()
}

func (v *TransactionsView) Filter() TransactionFilter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

func (v *TransactionsView) Transactions() []domain.Transaction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Transaction(nil), v.transactions...)
}

// Filtered applies the current filter to the fetched collection.
func (v *TransactionsView) Filtered() []domain.Transaction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return FilterTransactions(v.transactions, v.accounts, v.filter)
}

// AccountLabel resolves an account id against the fetched accounts.
func (v *TransactionsView) AccountLabel(id int64) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return AccountLabel(v.accounts, id)
}

// Create posts a transaction stamped with the current time unless in carries one.
// A failed reload afterwards wraps ErrRefetch; the returned record is still valid.
func (v *TransactionsView) Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	v.setSubmitting(true)
	defer v.setSubmitting(false)

	if in.CreatedAt == nil {
		now := domain.NewTimestamp(v.now().UTC())
		in.CreatedAt = &now
	}
	tx, err := v.svc.CreateTransaction(ctx, in)
	if err != nil {
		v.logger.WithError(err).Error("failed to create transaction")
		v.notifier.Notify(notify.LevelError, "Failed to create transaction")
		return nil, err
	}
	v.notifier.Notify(notify.LevelSuccess, "Transaction created successfully")
	return tx, refetched("transactions", v.Fetch(ctx))
}

// Update never sends created_at.
func (v *TransactionsView) Update(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error) {
	v.setSubmitting(true)
	defer v.setSubmitting(false)

	in.CreatedAt = nil
	tx, err := v.svc.UpdateTransaction(ctx, id, in)
	if err != nil {
		v.logger.WithError(err).WithField("transaction_id", id).Error("failed to update transaction")
		v.notifier.Notify(notify.LevelError, "Failed to update transaction")
		return nil, err
	}
	v.notifier.Notify(notify.LevelSuccess, "Transaction updated successfully")
	return tx, refetched("transactions", v.Fetch(ctx))
}

func (v *TransactionsView) Delete(ctx context.Context, id int64) error {
	v.setDeleting(id, true)
	defer v.setDeleting(id, false)

	if err := v.svc.DeleteTransaction(ctx, id); err != nil {
		v.logger.WithError(err).WithField("transaction_id", id).Error("failed to delete transaction")
		v.notifier.Notify(notify.LevelError, "Failed to delete transaction")
		return err
	}
	v.notifier.Notify(notify.LevelSuccess, "Transaction deleted successfully")
	return refetched("transactions", v.Fetch(ctx))
}

func (v *TransactionsView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

func (v *TransactionsView) Submitting() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.submitting
}

func (v *TransactionsView) Deleting(id int64) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.deleting[id]
}

func (v *TransactionsView) setLoading(b bool) {
	v.mu.Lock()
	v.loading = b
	v.mu.Unlock()
}

func (v *TransactionsView) setSubmitting(b bool) {
	v.mu.Lock()
	v.submitting = b
	v.mu.Unlock()
}

func (v *TransactionsView) setDeleting(id int64, b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if b {
		v.deleting[id] = true
		return
	}
	delete(v.deleting, id)
}
