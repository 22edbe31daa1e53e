package domain

import "fmt"

// AccountType is the fundamental accounting class of an account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
)

// NormalBalance is the side on which an account type increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// AccountCategory describes one account type for selection lists.
type AccountCategory struct {
	Type          AccountType
	Label         string
	NormalBalance NormalBalance
}

// AccountCategories returns the chart of accounts categories in display order.
func AccountCategories() []AccountCategory {
	return []AccountCategory{
		{Type: AccountTypeAsset, Label: "Assets", NormalBalance: NormalBalanceDebit},
		{Type: AccountTypeLiability, Label: "Liabilities", NormalBalance: NormalBalanceCredit},
		{Type: AccountTypeEquity, Label: "Equity", NormalBalance: NormalBalanceCredit},
		{Type: AccountTypeRevenue, Label: "Revenue", NormalBalance: NormalBalanceCredit},
		{Type: AccountTypeExpense, Label: "Expenses", NormalBalance: NormalBalanceDebit},
	}
}

// NormalBalanceOf reports the normal balance side of t.
func NormalBalanceOf(t AccountType) (NormalBalance, bool) {
	for _, c := range AccountCategories() {
		if c.Type == t {
			return c.NormalBalance, true
		}
	}
	return "", false
}

// Account is a read copy of a chart of accounts record owned by the backend.
type Account struct {
	ID              int64       `json:"id"`
	AccountCode     string      `json:"account_code"`
	AccountName     string      `json:"account_name"`
	AccountType     AccountType `json:"account_type"`
	ParentAccountID *int64      `json:"parent_account_id,omitempty"`
	Description     string      `json:"description,omitempty"`
	IsActive        bool        `json:"is_active"`
}

// Label renders the account the way lists show it: "<code> - <name>".
func (a Account) Label() string {
	return fmt.Sprintf("%s - %s", a.AccountCode, a.AccountName)
}

// AccountInput is the body of account create and update calls.
type AccountInput struct {
	AccountCode     string      `json:"account_code"`
	AccountName     string      `json:"account_name"`
	AccountType     AccountType `json:"account_type"`
	ParentAccountID *int64      `json:"parent_account_id,omitempty"`
	Description     string      `json:"description,omitempty"`
	IsActive        bool        `json:"is_active"`
}
