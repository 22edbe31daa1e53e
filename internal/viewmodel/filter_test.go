package viewmodel

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ledgerdesk/internal/domain"
)

var chart = []domain.Account{
	{ID: 1, AccountCode: "1000", AccountName: "Cash on Hand", AccountType: domain.AccountTypeAsset},
	{ID: 2, AccountCode: "CASH-01", AccountName: "Petty Fund", AccountType: domain.AccountTypeAsset},
	{ID: 3, AccountCode: "4000", AccountName: "Sales", AccountType: domain.AccountTypeRevenue, Description: "cash and card sales"},
	{ID: 4, AccountCode: "5000", AccountName: "Rent", AccountType: domain.AccountTypeExpense},
}

func accountIDs(accounts []domain.Account) []int64 {
	out := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ID)
	}
	return out
}

func transactionIDs(txs []domain.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestFilterAccountsSearchIsCaseInsensitive(t *testing.T) {
	got := FilterAccounts(chart, AccountFilter{Search: "cash"})
	assert.Equal(t, []int64{1, 2, 3}, accountIDs(got))

	got = FilterAccounts(chart, AccountFilter{Search: "CASH", Type: string(domain.AccountTypeAsset)})
	assert.Equal(t, []int64{1, 2}, accountIDs(got))
}

func TestFilterAccountsTypeAll(t *testing.T) {
	assert.Len(t, FilterAccounts(chart, AccountFilter{Type: AllTypes}), len(chart))
	assert.Len(t, FilterAccounts(chart, AccountFilter{}), len(chart))
	assert.Equal(t, []int64{4}, accountIDs(FilterAccounts(chart, AccountFilter{Type: "Expense"})))
	assert.Empty(t, FilterAccounts(chart, AccountFilter{Search: "nothing matches"}))
}

func TestFilterAccountsIsPure(t *testing.T) {
	f := AccountFilter{Search: "cash"}
	first := FilterAccounts(chart, f)
	second := FilterAccounts(chart, f)
	assert.Equal(t, first, second)
	assert.Len(t, chart, 4, "input untouched")
}

func at(day string) domain.Timestamp {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return domain.NewTimestamp(t.Add(12 * time.Hour))
}

var postings = []domain.Transaction{
	{ID: 10, AccountID: 1, TransactionType: domain.TransactionDebit, Amount: decimal.NewFromInt(100), Description: "Opening float", CreatedAt: at("2024-01-02")},
	{ID: 11, AccountID: 3, TransactionType: domain.TransactionCredit, Amount: decimal.NewFromInt(100), Description: "Invoice", Reference: "INV-7", CreatedAt: at("2024-01-15")},
	{ID: 12, AccountID: 99, TransactionType: domain.TransactionDebit, Amount: decimal.NewFromInt(5), Description: "Misc", CreatedAt: at("2024-02-01")},
}

func TestFilterTransactionsSearchesResolvedLabel(t *testing.T) {
	assert.Equal(t, []int64{10}, transactionIDs(FilterTransactions(postings, chart, TransactionFilter{Search: "cash on"})))
	assert.Equal(t, []int64{11}, transactionIDs(FilterTransactions(postings, chart, TransactionFilter{Search: "inv-7"})))
	assert.Equal(t, []int64{12}, transactionIDs(FilterTransactions(postings, chart, TransactionFilter{Search: "unknown"})))
}

func TestFilterTransactionsTypeAccountAndDates(t *testing.T) {
	got := FilterTransactions(postings, chart, TransactionFilter{Type: "debit"})
	assert.Equal(t, []int64{10, 12}, transactionIDs(got))

	got = FilterTransactions(postings, chart, TransactionFilter{Type: AllTypes, AccountID: 3})
	assert.Equal(t, []int64{11}, transactionIDs(got))

	got = FilterTransactions(postings, chart, TransactionFilter{StartDate: "2024-01-15", EndDate: "2024-02-01"})
	assert.Equal(t, []int64{11, 12}, transactionIDs(got), "bounds are inclusive")

	got = FilterTransactions(postings, chart, TransactionFilter{EndDate: "2024-01-14"})
	assert.Equal(t, []int64{10}, transactionIDs(got))
}

func TestAccountLabel(t *testing.T) {
	assert.Equal(t, "1000 - Cash on Hand", AccountLabel(chart, 1))
	assert.Equal(t, UnknownAccount, AccountLabel(chart, 42))
	assert.Equal(t, UnknownAccount, AccountLabel(nil, 1))
}
