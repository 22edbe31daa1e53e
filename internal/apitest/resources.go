package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"ledgerdesk/internal/domain"
)

// SeedAccount stores an account and returns it with its id.
func (b *Backend) SeedAccount(in domain.AccountInput) domain.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := accountFromInput(b.nextIDLocked(), in)
	b.accounts[a.ID] = a
	return a
}

// SeedTransaction stores a transaction and returns it with its id.
func (b *Backend) SeedTransaction(in domain.TransactionInput) domain.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx := transactionFromInput(b.nextIDLocked(), in)
	b.transactions[tx.ID] = tx
	return tx
}

// SeedJournalEntry stores a journal entry and returns it with its id.
func (b *Backend) SeedJournalEntry(in domain.JournalEntryInput) domain.JournalEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	je := journalFromInput(b.nextIDLocked(), in)
	b.journal[je.ID] = je
	return je
}

func accountFromInput(id int64, in domain.AccountInput) domain.Account {
	return domain.Account{
		ID:              id,
		AccountCode:     in.AccountCode,
		AccountName:     in.AccountName,
		AccountType:     in.AccountType,
		ParentAccountID: in.ParentAccountID,
		Description:     in.Description,
		IsActive:        in.IsActive,
	}
}

func transactionFromInput(id int64, in domain.TransactionInput) domain.Transaction {
	created := domain.NewTimestamp(time.Now().UTC())
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		created = *in.CreatedAt
	}
	return domain.Transaction{
		ID:              id,
		AccountID:       in.AccountID,
		TransactionType: in.TransactionType,
		Amount:          in.Amount,
		Description:     in.Description,
		Reference:       in.Reference,
		JournalEntryID:  in.JournalEntryID,
		CreatedAt:       created,
	}
}

func journalFromInput(id int64, in domain.JournalEntryInput) domain.JournalEntry {
	now := domain.NewTimestamp(time.Now().UTC())
	return domain.JournalEntry{
		ID:          id,
		EntryDate:   in.EntryDate,
		Description: in.Description,
		Reference:   in.Reference,
		CreatedAt:   &now,
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		detail(c, http.StatusUnprocessableEntity, "invalid id %q", c.Param("id"))
		return 0, false
	}
	return id, true
}

func sortedByID[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func (b *Backend) listAccounts(c *gin.Context) {
	b.mu.Lock()
	accounts := sortedByID(b.accounts)
	b.mu.Unlock()

	accountType := c.Query("account_type")
	search := strings.ToLower(c.Query("search"))
	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if accountType != "" && string(a.AccountType) != accountType {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(a.AccountName+" "+a.AccountCode), search) {
			continue
		}
		out = append(out, a)
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) getAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	a, found := b.accounts[id]
	b.mu.Unlock()
	if !found {
		detail(c, http.StatusNotFound, "Account not found")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (b *Backend) validAccountInput(c *gin.Context, in domain.AccountInput, selfID int64) bool {
	if strings.TrimSpace(in.AccountCode) == "" || strings.TrimSpace(in.AccountName) == "" {
		detail(c, http.StatusUnprocessableEntity, "account_code and account_name are required")
		return false
	}
	if _, ok := domain.NormalBalanceOf(in.AccountType); !ok {
		detail(c, http.StatusUnprocessableEntity, "unknown account_type %q", in.AccountType)
		return false
	}
	for _, a := range b.accounts {
		if a.ID != selfID && a.AccountCode == in.AccountCode {
			detail(c, http.StatusBadRequest, "Account code %s already exists", in.AccountCode)
			return false
		}
	}
	return true
}

func (b *Backend) createAccount(c *gin.Context) {
	var in domain.AccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid account payload")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validAccountInput(c, in, 0) {
		return
	}
	a := accountFromInput(b.nextIDLocked(), in)
	b.accounts[a.ID] = a
	c.JSON(http.StatusCreated, a)
}

func (b *Backend) updateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.AccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid account payload")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.accounts[id]; !found {
		detail(c, http.StatusNotFound, "Account not found")
		return
	}
	if !b.validAccountInput(c, in, id) {
		return
	}
	a := accountFromInput(id, in)
	b.accounts[id] = a
	c.JSON(http.StatusOK, a)
}

func (b *Backend) deleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.accounts[id]; !found {
		detail(c, http.StatusNotFound, "Account not found")
		return
	}
	for _, tx := range b.transactions {
		if tx.AccountID == id {
			detail(c, http.StatusBadRequest, "Account has transactions and cannot be deleted")
			return
		}
	}
	delete(b.accounts, id)
	c.Status(http.StatusNoContent)
}

func (b *Backend) listTransactions(c *gin.Context) {
	b.mu.Lock()
	txs := sortedByID(b.transactions)
	b.mu.Unlock()

	from, ok := parseDay(c, "start_date")
	if !ok {
		return
	}
	to, ok := parseDay(c, "end_date")
	if !ok {
		return
	}
	txType := c.Query("transaction_type")
	accountID := c.Query("account_id")
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if txType != "" && string(tx.TransactionType) != txType {
			continue
		}
		if accountID != "" && strconv.FormatInt(tx.AccountID, 10) != accountID {
			continue
		}
		if !from.IsZero() && tx.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && tx.CreatedAt.After(endOfDay(to)) {
			continue
		}
		out = append(out, tx)
	}

	// newest first, like the real service
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) getTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	tx, found := b.transactions[id]
	b.mu.Unlock()
	if !found {
		detail(c, http.StatusNotFound, "Transaction not found")
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (b *Backend) validTransactionInput(c *gin.Context, in domain.TransactionInput) bool {
	if _, ok := b.accounts[in.AccountID]; !ok {
		detail(c, http.StatusBadRequest, "Account %d does not exist", in.AccountID)
		return false
	}
	if in.TransactionType != domain.TransactionDebit && in.TransactionType != domain.TransactionCredit {
		detail(c, http.StatusUnprocessableEntity, "transaction_type must be debit or credit")
		return false
	}
	if !in.Amount.IsPositive() {
		detail(c, http.StatusUnprocessableEntity, "amount must be positive")
		return false
	}
	return true
}

func (b *Backend) createTransaction(c *gin.Context) {
	var in domain.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid transaction payload")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.validTransactionInput(c, in) {
		return
	}
	tx := transactionFromInput(b.nextIDLocked(), in)
	b.transactions[tx.ID] = tx
	c.JSON(http.StatusCreated, tx)
}

func (b *Backend) updateTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid transaction payload")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	existing, found := b.transactions[id]
	if !found {
		detail(c, http.StatusNotFound, "Transaction not found")
		return
	}
	if !b.validTransactionInput(c, in) {
		return
	}
	tx := transactionFromInput(id, in)
	tx.CreatedAt = existing.CreatedAt
	b.transactions[id] = tx
	c.JSON(http.StatusOK, tx)
}

func (b *Backend) deleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.transactions[id]; !found {
		detail(c, http.StatusNotFound, "Transaction not found")
		return
	}
	delete(b.transactions, id)
	c.Status(http.StatusNoContent)
}

func (b *Backend) listJournalEntries(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := sortedByID(b.journal)
	for i := range entries {
		entries[i].Transactions = b.journalTransactionsLocked(entries[i].ID)
	}
	c.JSON(http.StatusOK, entries)
}

func (b *Backend) journalTransactionsLocked(id int64) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range sortedByID(b.transactions) {
		if tx.JournalEntryID != nil && *tx.JournalEntryID == id {
			out = append(out, tx)
		}
	}
	return out
}

func (b *Backend) getJournalEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	je, found := b.journal[id]
	if !found {
		detail(c, http.StatusNotFound, "Journal entry not found")
		return
	}
	je.Transactions = b.journalTransactionsLocked(id)
	c.JSON(http.StatusOK, je)
}

func (b *Backend) createJournalEntry(c *gin.Context) {
	var in domain.JournalEntryInput
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Description) == "" {
		detail(c, http.StatusUnprocessableEntity, "description is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	je := journalFromInput(b.nextIDLocked(), in)
	b.journal[je.ID] = je
	c.JSON(http.StatusCreated, je)
}

func (b *Backend) updateJournalEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.JournalEntryInput
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Description) == "" {
		detail(c, http.StatusUnprocessableEntity, "description is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	existing, found := b.journal[id]
	if !found {
		detail(c, http.StatusNotFound, "Journal entry not found")
		return
	}
	je := journalFromInput(id, in)
	je.CreatedAt = existing.CreatedAt
	b.journal[id] = je
	c.JSON(http.StatusOK, je)
}

func (b *Backend) deleteJournalEntry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.journal[id]; !found {
		detail(c, http.StatusNotFound, "Journal entry not found")
		return
	}
	delete(b.journal, id)
	c.Status(http.StatusNoContent)
}

func (b *Backend) listUsers(c *gin.Context) {
	b.mu.Lock()
	records := sortedByID(b.users)
	b.mu.Unlock()

	out := make([]domain.User, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.user)
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	rec, found := b.users[id]
	b.mu.Unlock()
	if !found {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, rec.user)
}

func (b *Backend) createUser(c *gin.Context) {
	var in domain.UserInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Username == "" || in.Password == "" {
		detail(c, http.StatusUnprocessableEntity, "username and password are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), b.opts.HashCost)
	if err != nil {
		detail(c, http.StatusInternalServerError, "hash password: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findUserLocked(in.Username) != nil {
		detail(c, http.StatusBadRequest, "Username already registered")
		return
	}
	now := domain.NewTimestamp(time.Now().UTC())
	rec := &userRecord{
		user: domain.User{
			ID:          b.nextIDLocked(),
			Username:    in.Username,
			Email:       in.Email,
			FullName:    in.FullName,
			IsSuperuser: in.IsSuperuser,
			IsActive:    in.IsActive,
			CreatedAt:   &now,
		},
		passwordHash: string(hash),
	}
	b.users[rec.user.ID] = rec
	c.JSON(http.StatusCreated, rec.user)
}

func (b *Backend) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid user payload")
		return
	}

	var hash []byte
	if in.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), b.opts.HashCost); err != nil {
			detail(c, http.StatusInternalServerError, "hash password: %v", err)
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, found := b.users[id]
	if !found {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if in.Username != "" {
		rec.user.Username = in.Username
	}
	rec.user.Email = in.Email
	rec.user.FullName = in.FullName
	rec.user.IsSuperuser = in.IsSuperuser
	rec.user.IsActive = in.IsActive
	if hash != nil {
		rec.passwordHash = string(hash)
	}
	c.JSON(http.StatusOK, rec.user)
}

func (b *Backend) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if currentUser(c).ID == id {
		detail(c, http.StatusBadRequest, "Users cannot delete themselves")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.users[id]; !found {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	delete(b.users, id)
	c.Status(http.StatusNoContent)
}
