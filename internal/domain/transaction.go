package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransactionType is the side a transaction posts to.
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

// Transaction is a read copy of a single posting owned by the backend.
type Transaction struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"account_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	JournalEntryID  *int64          `json:"journal_entry_id,omitempty"`
	CreatedAt       Timestamp       `json:"created_at"`
}

// TransactionInput is the body of transaction create and update calls.
// CreatedAt is only sent on create.
type TransactionInput struct {
	AccountID       int64           `json:"account_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	JournalEntryID  *int64          `json:"journal_entry_id"`
	CreatedAt       *Timestamp      `json:"created_at,omitempty"`
}

// MarshalJSON sends the amount as a JSON number; the backend schema types it
// as a float and decimal would otherwise quote it.
func (in TransactionInput) MarshalJSON() ([]byte, error) {
	type plain TransactionInput
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(in), json.Number(in.Amount.String())})
}

// JournalEntry groups the postings of one accounting event.
type JournalEntry struct {
	ID           int64         `json:"id"`
	EntryDate    string        `json:"entry_date,omitempty"`
	Description  string        `json:"description"`
	Reference    string        `json:"reference,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	CreatedAt    *Timestamp    `json:"created_at,omitempty"`
}

// JournalEntryInput is the body of journal entry create and update calls.
type JournalEntryInput struct {
	EntryDate   string `json:"entry_date,omitempty"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`
}
