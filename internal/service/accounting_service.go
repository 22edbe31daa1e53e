package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"ledgerdesk/internal/apiclient"
	"ledgerdesk/internal/domain"
)

const (
	accountsPath       = "/chart-of-accounts"
	transactionsPath   = "/transactions"
	journalEntriesPath = "/journal-entries"

	trialBalancePath    = "/reports/trial-balance"
	incomeStatementPath = "/reports/income-statement"
	balanceSheetPath    = "/reports/balance-sheet"
)

// AccountingService covers the chart of accounts, transactions, journal
// entries and reports.
type AccountingService interface {
	ListAccounts(ctx context.Context, params Params) ([]domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	CreateAccount(ctx context.Context, in domain.AccountInput) (*domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, in domain.AccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context, params Params) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error

	ListJournalEntries(ctx context.Context, params Params) ([]domain.JournalEntry, error)
	GetJournalEntry(ctx context.Context, id int64) (*domain.JournalEntry, error)
	CreateJournalEntry(ctx context.Context, in domain.JournalEntryInput) (*domain.JournalEntry, error)
	UpdateJournalEntry(ctx context.Context, id int64, in domain.JournalEntryInput) (*domain.JournalEntry, error)
	DeleteJournalEntry(ctx context.Context, id int64) error

	TrialBalance(ctx context.Context, asOfDate string) (json.RawMessage, error)
	IncomeStatement(ctx context.Context, startDate, endDate string) (json.RawMessage, error)
	BalanceSheet(ctx context.Context, asOfDate string) (json.RawMessage, error)
}

type accountingService struct {
	api API
}

func NewAccountingService(api API) AccountingService {
	return &accountingService{api: api}
}

func (s *accountingService) ListAccounts(ctx context.Context, params Params) ([]domain.Account, error) {
	var out []domain.Account
	if err := s.api.Get(ctx, accountsPath, params.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *accountingService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	var out domain.Account
	if err := s.api.Get(ctx, itemPath(accountsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) CreateAccount(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	var out domain.Account
	if err := s.api.Post(ctx, accountsPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) UpdateAccount(ctx context.Context, id int64, in domain.AccountInput) (*domain.Account, error) {
	var out domain.Account
	if err := s.api.Put(ctx, itemPath(accountsPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) DeleteAccount(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, itemPath(accountsPath, id))
}

func (s *accountingService) ListTransactions(ctx context.Context, params Params) ([]domain.Transaction, error) {
	var out []domain.Transaction
	if err := s.api.Get(ctx, transactionsPath, params.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *accountingService) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := s.api.Get(ctx, itemPath(transactionsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) CreateTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := s.api.Post(ctx, transactionsPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) UpdateTransaction(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := s.api.Put(ctx, itemPath(transactionsPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) DeleteTransaction(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, itemPath(transactionsPath, id))
}

func (s *accountingService) ListJournalEntries(ctx context.Context, params Params) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	if err := s.api.Get(ctx, journalEntriesPath, params.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *accountingService) GetJournalEntry(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	var out domain.JournalEntry
	if err := s.api.Get(ctx, itemPath(journalEntriesPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) CreateJournalEntry(ctx context.Context, in domain.JournalEntryInput) (*domain.JournalEntry, error) {
	var out domain.JournalEntry
	if err := s.api.Post(ctx, journalEntriesPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) UpdateJournalEntry(ctx context.Context, id int64, in domain.JournalEntryInput) (*domain.JournalEntry, error) {
	var out domain.JournalEntry
	if err := s.api.Put(ctx, itemPath(journalEntriesPath, id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *accountingService) DeleteJournalEntry(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, itemPath(journalEntriesPath, id))
}

func (s *accountingService) TrialBalance(ctx context.Context, asOfDate string) (json.RawMessage, error) {
	return s.report(ctx, trialBalancePath, url.Values{"as_of_date": {asOfDate}})
}

func (s *accountingService) IncomeStatement(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return s.report(ctx, incomeStatementPath, url.Values{"start_date": {startDate}, "end_date": {endDate}})
}

func (s *accountingService) BalanceSheet(ctx context.Context, asOfDate string) (json.RawMessage, error) {
	return s.report(ctx, balanceSheetPath, url.Values{"as_of_date": {asOfDate}})
}

// report returns the response body exactly as received.
func (s *accountingService) report(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	resp, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}
