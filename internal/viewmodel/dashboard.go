package viewmodel

import (
	"context"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/service"
)

// DefaultRecentLimit is how many recent transactions the dashboard shows.
const DefaultRecentLimit = 5

// Stats are the dashboard counters.
type Stats struct {
	TotalAccounts       int
	TotalTransactions   int
	TotalJournalEntries int
}

// Dashboard aggregates four collections fetched concurrently. Its state only
// changes when all four succeed.
type Dashboard struct {
	svc         service.AccountingService
	notifier    notify.Notifier
	logger      logrus.FieldLogger
	recentLimit int

	mu      sync.RWMutex
	stats   Stats
	recent  []domain.Transaction
	loading bool
}

func NewDashboard(svc service.AccountingService, notifier notify.Notifier, logger logrus.FieldLogger, recentLimit int) *Dashboard {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logrus.New()
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Dashboard{svc: svc, notifier: notifier, logger: logger, recentLimit: recentLimit}
}

// Refresh waits for every fetch before deciding; one failure rejects the whole
// aggregate with a single notice.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.loading = false
		d.mu.Unlock()
	}()

	var (
		g        errgroup.Group
		accounts []domain.Account
		txs      []domain.Transaction
		entries  []domain.JournalEntry
		recent   []domain.Transaction
	)
	g.Go(func() (err error) {
		accounts, err = d.svc.ListAccounts(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		txs, err = d.svc.ListTransactions(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		entries, err = d.svc.ListJournalEntries(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		recent, err = d.svc.ListTransactions(ctx, service.Params{"limit": strconv.Itoa(d.recentLimit)})
		return err
	})
	if err := g.Wait(); err != nil {
		d.logger.WithError(err).Error("failed to load dashboard data")
		d.notifier.Notify(notify.LevelError, "Failed to load dashboard data")
		return err
	}

	d.mu.Lock()
	d.stats = Stats{
		TotalAccounts:       len(accounts),
		TotalTransactions:   len(txs),
		TotalJournalEntries: len(entries),
	}
	d.recent = recent
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// Recent returns the most recent transactions, newest first.
func (d *Dashboard) Recent() []domain.Transaction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.Transaction(nil), d.recent...)
}

func (d *Dashboard) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loading
}
