// Package viewmodel holds the page-level state of the console: fetched
// collections, client-side filters and busy flags. Views always re-fetch
// after a mutation instead of patching their copy.
package viewmodel

import (
	"errors"
	"fmt"
	"strings"

	"ledgerdesk/internal/domain"
)

// ErrRefetch marks a mutation the backend accepted whose follow-up list
// reload failed. Any record returned alongside it is still valid.
var ErrRefetch = errors.New("saved, but reloading the list failed")

func refetched(list string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: reload %s: %w", ErrRefetch, list, err)
}

// AllTypes disables type filtering.
const AllTypes = "all"

// UnknownAccount labels a transaction whose account is not in the fetched list.
const UnknownAccount = "Unknown Account"

// AccountFilter narrows the chart of accounts.
type AccountFilter struct {
	Search string
	// Type is an account type or AllTypes; empty means AllTypes.
	Type string
}

// TransactionFilter narrows a transaction list. Dates are YYYY-MM-DD and inclusive.
type TransactionFilter struct {
	Search string
	// Type is "debit", "credit" or AllTypes; empty means AllTypes.
	Type      string
	AccountID int64
	StartDate string
	EndDate   string
}

func typeSelected(filter, value string) bool {
	return filter == "" || filter == AllTypes || filter == value
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// FilterAccounts returns the accounts matching f in input order.
// Search matches name, code and description case-insensitively.
func FilterAccounts(accounts []domain.Account, f AccountFilter) []domain.Account {
	needle := strings.ToLower(f.Search)
	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if !typeSelected(f.Type, string(a.AccountType)) {
			continue
		}
		if needle != "" &&
			!containsFold(a.AccountName, needle) &&
			!containsFold(a.AccountCode, needle) &&
			!containsFold(a.Description, needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// AccountLabel renders the account with id as "<code> - <name>".
func AccountLabel(accounts []domain.Account, id int64) string {
	for _, a := range accounts {
		if a.ID == id {
			return a.Label()
		}
	}
	return UnknownAccount
}

// FilterTransactions returns the transactions matching f in input order.
// Search matches description, reference and the resolved account label.
func FilterTransactions(txs []domain.Transaction, accounts []domain.Account, f TransactionFilter) []domain.Transaction {
	needle := strings.ToLower(f.Search)
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !typeSelected(f.Type, string(tx.TransactionType)) {
			continue
		}
		if f.AccountID != 0 && tx.AccountID != f.AccountID {
			continue
		}
		if !withinDates(tx, f.StartDate, f.EndDate) {
			continue
		}
		if needle != "" &&
			!containsFold(tx.Description, needle) &&
			!containsFold(tx.Reference, needle) &&
			!containsFold(AccountLabel(accounts, tx.AccountID), needle) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func withinDates(tx domain.Transaction, start, end string) bool {
	if start == "" && end == "" {
		return true
	}
	if tx.CreatedAt.IsZero() {
		return false
	}
	day := tx.CreatedAt.Format("2006-01-02")
	if start != "" && day < start {
		return false
	}
	if end != "" && day > end {
		return false
	}
	return true
}
