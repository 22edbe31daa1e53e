package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLabel(t *testing.T) {
	a := Account{AccountCode: "1000", AccountName: "Cash on Hand"}
	assert.Equal(t, "1000 - Cash on Hand", a.Label())
}

func TestNormalBalanceOf(t *testing.T) {
	tests := []struct {
		accountType AccountType
		want        NormalBalance
	}{
		{AccountTypeAsset, NormalBalanceDebit},
		{AccountTypeLiability, NormalBalanceCredit},
		{AccountTypeEquity, NormalBalanceCredit},
		{AccountTypeRevenue, NormalBalanceCredit},
		{AccountTypeExpense, NormalBalanceDebit},
	}
	for _, tt := range tests {
		got, ok := NormalBalanceOf(tt.accountType)
		assert.True(t, ok, tt.accountType)
		assert.Equal(t, tt.want, got, tt.accountType)
	}

	_, ok := NormalBalanceOf("Contra")
	assert.False(t, ok)
}

func TestTransactionDecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": 7,
		"account_id": 3,
		"transaction_type": "credit",
		"amount": 125.50,
		"description": "Invoice 42",
		"reference": null,
		"journal_entry_id": 2,
		"created_at": "2024-01-31T09:15:00.123456"
	}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(payload), &tx))

	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, TransactionCredit, tx.TransactionType)
	assert.True(t, decimal.RequireFromString("125.5").Equal(tx.Amount))
	assert.Empty(t, tx.Reference)
	require.NotNil(t, tx.JournalEntryID)
	assert.Equal(t, int64(2), *tx.JournalEntryID)
	assert.Equal(t, time.Date(2024, 1, 31, 9, 15, 0, 123456000, time.UTC), tx.CreatedAt.Time)
}

func TestTransactionInputSendsAmountAsNumber(t *testing.T) {
	in := TransactionInput{
		AccountID:       3,
		TransactionType: TransactionDebit,
		Amount:          decimal.RequireFromString("12.34"),
		Description:     "Stamps",
	}

	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"account_id": 3,
		"transaction_type": "debit",
		"amount": 12.34,
		"description": "Stamps",
		"journal_entry_id": null
	}`, string(out))

	var back TransactionInput
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, in.Amount.Equal(back.Amount))
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, raw := range []string{
		"2024-01-31T09:15:00Z",
		"2024-01-31T09:15:00+02:00",
		"2024-01-31T09:15:00",
		"2024-01-31 09:15:00",
		"2024-01-31",
	} {
		_, err := ParseTimestamp(raw)
		assert.NoError(t, err, raw)
	}

	_, err := ParseTimestamp("31/01/2024")
	assert.Error(t, err)
}

func TestTimestampNullRoundTrip(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &ts))
	assert.True(t, ts.IsZero())

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
