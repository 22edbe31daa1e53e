package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerdesk/internal/apiclient"
	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/repository/memory"
)

type call struct {
	method string
	path   string
	query  url.Values
	body   any
}

// mockAPI records every call and answers with reply, or err when set.
type mockAPI struct {
	calls []call
	reply string
	err   error
}

func (m *mockAPI) record(method, path string, query url.Values, body, dst any) error {
	m.calls = append(m.calls, call{method: method, path: path, query: query, body: body})
	if m.err != nil {
		return m.err
	}
	if dst != nil && m.reply != "" {
		return json.Unmarshal([]byte(m.reply), dst)
	}
	return nil
}

func (m *mockAPI) Do(ctx context.Context, r *apiclient.Request) (*apiclient.Response, error) {
	if err := m.record(r.Method, r.Path, r.Query, r.Body, nil); err != nil {
		return nil, err
	}
	return &apiclient.Response{StatusCode: http.StatusOK, Body: []byte(m.reply)}, nil
}

func (m *mockAPI) Get(ctx context.Context, path string, query url.Values, dst any) error {
	return m.record(http.MethodGet, path, query, nil, dst)
}

func (m *mockAPI) Post(ctx context.Context, path string, body, dst any) error {
	return m.record(http.MethodPost, path, nil, body, dst)
}

func (m *mockAPI) Put(ctx context.Context, path string, body, dst any) error {
	return m.record(http.MethodPut, path, nil, body, dst)
}

func (m *mockAPI) Delete(ctx context.Context, path string) error {
	return m.record(http.MethodDelete, path, nil, nil, nil)
}

func (m *mockAPI) last(t *testing.T) call {
	t.Helper()
	require.NotEmpty(t, m.calls)
	return m.calls[len(m.calls)-1]
}

func TestAccountingService_Accounts(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{reply: `[{"id":1,"account_code":"1000","account_name":"Cash","account_type":"Asset","is_active":true}]`}
	svc := NewAccountingService(api)

	accounts, err := svc.ListAccounts(ctx, Params{"search": "cash", "account_type": "Asset"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Cash", accounts[0].AccountName)
	c := api.last(t)
	assert.Equal(t, http.MethodGet, c.method)
	assert.Equal(t, "/chart-of-accounts", c.path)
	assert.Equal(t, url.Values{"search": {"cash"}, "account_type": {"Asset"}}, c.query)

	_, err = svc.ListAccounts(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, api.last(t).query)

	api.reply = `{"id":4,"account_code":"4000"}`
	in := domain.AccountInput{AccountCode: "4000", AccountName: "Sales", AccountType: domain.AccountTypeRevenue, IsActive: true}
	created, err := svc.CreateAccount(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, call{method: http.MethodPost, path: "/chart-of-accounts", body: in}, api.last(t))

	_, err = svc.GetAccount(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "/chart-of-accounts/4", api.last(t).path)

	_, err = svc.UpdateAccount(ctx, 4, in)
	require.NoError(t, err)
	assert.Equal(t, call{method: http.MethodPut, path: "/chart-of-accounts/4", body: in}, api.last(t))

	require.NoError(t, svc.DeleteAccount(ctx, 4))
	assert.Equal(t, call{method: http.MethodDelete, path: "/chart-of-accounts/4"}, api.last(t))
}

func TestAccountingService_TransactionsAndJournalEntries(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{reply: `[]`}
	svc := NewAccountingService(api)

	_, err := svc.ListTransactions(ctx, Params{"limit": "5"})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"limit": {"5"}}, api.last(t).query)

	api.reply = `{"id":9}`
	in := domain.TransactionInput{AccountID: 1, TransactionType: domain.TransactionDebit, Amount: decimal.NewFromInt(10), Description: "Rent"}
	_, err = svc.CreateTransaction(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, call{method: http.MethodPost, path: "/transactions", body: in}, api.last(t))

	_, err = svc.UpdateTransaction(ctx, 9, in)
	require.NoError(t, err)
	assert.Equal(t, "/transactions/9", api.last(t).path)

	_, err = svc.GetTransaction(ctx, 9)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTransaction(ctx, 9))
	assert.Equal(t, call{method: http.MethodDelete, path: "/transactions/9"}, api.last(t))

	api.reply = `[]`
	_, err = svc.ListJournalEntries(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "/journal-entries", api.last(t).path)

	api.reply = `{"id":2}`
	je := domain.JournalEntryInput{Description: "Opening balances"}
	_, err = svc.CreateJournalEntry(ctx, je)
	require.NoError(t, err)
	_, err = svc.UpdateJournalEntry(ctx, 2, je)
	require.NoError(t, err)
	assert.Equal(t, call{method: http.MethodPut, path: "/journal-entries/2", body: je}, api.last(t))
	_, err = svc.GetJournalEntry(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteJournalEntry(ctx, 2))
	assert.Equal(t, "/journal-entries/2", api.last(t).path)
}

func TestAccountingService_Reports(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{reply: `{"rows":[]}`}
	svc := NewAccountingService(api)

	body, err := svc.IncomeStatement(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":[]}`, string(body))
	c := api.last(t)
	assert.Equal(t, "/reports/income-statement", c.path)
	assert.Equal(t, url.Values{"start_date": {"2024-01-01"}, "end_date": {"2024-01-31"}}, c.query)

	_, err = svc.BalanceSheet(ctx, "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, "/reports/balance-sheet", api.last(t).path)
	assert.Equal(t, url.Values{"as_of_date": {"2024-03-31"}}, api.last(t).query)
}

func TestTrialBalanceAgainstServer(t *testing.T) {
	const raw = "{\"as_of_date\": \"2024-01-31\",  \"rows\": [{\"account\": \"1000\", \"debit\": 150.0}]}\n"
	var gotURI string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.Method + " " + r.URL.RequestURI()
		_, _ = w.Write([]byte(raw))
	}))
	defer server.Close()

	client, err := apiclient.New(apiclient.Config{BaseURL: server.URL + "/api/v1", Tokens: memory.NewTokenStore()})
	require.NoError(t, err)

	body, err := NewAccountingService(client).TrialBalance(context.Background(), "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "GET /api/v1/reports/trial-balance?as_of_date=2024-01-31", gotURI)
	assert.Equal(t, raw, string(body))
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	api := &mockAPI{err: boom}

	acc := NewAccountingService(api)
	_, err := acc.ListAccounts(ctx, nil)
	assert.Same(t, boom, err)
	_, err = acc.TrialBalance(ctx, "2024-01-31")
	assert.Same(t, boom, err)
	assert.Same(t, boom, acc.DeleteTransaction(ctx, 1))

	auth := NewAuthService(api)
	_, err = auth.Me(ctx)
	assert.Same(t, boom, err)

	users := NewUserService(api)
	_, err = users.ListUsers(ctx, nil)
	assert.Same(t, boom, err)
	assert.Len(t, api.calls, 5, "no retries")
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{reply: `{"access_token":"tok","token_type":"bearer"}`}
	svc := NewAuthService(api)

	tok, err := svc.Login(ctx, domain.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	assert.Equal(t, call{method: http.MethodPost, path: "/login", body: domain.Credentials{Username: "alice", Password: "secret"}}, api.last(t))

	api.reply = `{"id":1,"username":"alice","is_superuser":true}`
	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.True(t, me.IsSuperuser)
	assert.Equal(t, "/me", api.last(t).path)

	change := domain.PasswordChange{CurrentPassword: "secret", NewPassword: "secret2"}
	require.NoError(t, svc.ChangePassword(ctx, change))
	assert.Equal(t, call{method: http.MethodPost, path: "/change-password", body: change}, api.last(t))

	api.reply = `{"access_token":"fresh"}`
	tok, err = svc.RefreshToken(ctx, "refresh-me")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, call{method: http.MethodPost, path: "/refresh", body: map[string]string{"refresh_token": "refresh-me"}}, api.last(t))
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{reply: `{"id":3,"username":"bob"}`}
	svc := NewUserService(api)

	in := domain.UserInput{Username: "bob", Password: "pw", IsActive: true}
	u, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, call{method: http.MethodPost, path: "/users", body: in}, api.last(t))

	_, err = svc.GetUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "/users/3", api.last(t).path)

	_, err = svc.UpdateUser(ctx, 3, in)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, api.last(t).method)

	require.NoError(t, svc.DeleteUser(ctx, 3))
	assert.Equal(t, call{method: http.MethodDelete, path: "/users/3"}, api.last(t))

	api.reply = `[]`
	_, err = svc.ListUsers(ctx, Params{"is_active": "true"})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"is_active": {"true"}}, api.last(t).query)
}
