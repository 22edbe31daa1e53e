package apitest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ledgerdesk/internal/domain"
)

const dateLayout = "2006-01-02"

type balanceLine struct {
	AccountID   int64              `json:"account_id"`
	AccountCode string             `json:"account_code"`
	AccountName string             `json:"account_name"`
	AccountType domain.AccountType `json:"account_type"`
	Debit       decimal.Decimal    `json:"debit"`
	Credit      decimal.Decimal    `json:"credit"`
	Balance     decimal.Decimal    `json:"balance"`
}

// parseDay returns the end of the given day, or zero when s is empty.
func parseDay(c *gin.Context, name string) (time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "%s must be YYYY-MM-DD", name)
		return time.Time{}, false
	}
	return t, true
}

func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}

// balancesLocked sums postings per account in [from, to]; zero bounds are open.
func (b *Backend) balancesLocked(from, to time.Time) []balanceLine {
	sums := make(map[int64]*balanceLine)
	for _, tx := range b.transactions {
		at := tx.CreatedAt.Time
		if !from.IsZero() && at.Before(from) {
			continue
		}
		if !to.IsZero() && at.After(endOfDay(to)) {
			continue
		}
		line, ok := sums[tx.AccountID]
		if !ok {
			line = &balanceLine{Debit: decimal.Zero, Credit: decimal.Zero}
			sums[tx.AccountID] = line
		}
		if tx.TransactionType == domain.TransactionDebit {
			line.Debit = line.Debit.Add(tx.Amount)
		} else {
			line.Credit = line.Credit.Add(tx.Amount)
		}
	}

	out := make([]balanceLine, 0, len(sums))
	for _, a := range sortedByID(b.accounts) {
		line, ok := sums[a.ID]
		if !ok {
			continue
		}
		line.AccountID = a.ID
		line.AccountCode = a.AccountCode
		line.AccountName = a.AccountName
		line.AccountType = a.AccountType
		if side, _ := domain.NormalBalanceOf(a.AccountType); side == domain.NormalBalanceCredit {
			line.Balance = line.Credit.Sub(line.Debit)
		} else {
			line.Balance = line.Debit.Sub(line.Credit)
		}
		out = append(out, *line)
	}
	return out
}

func totalOf(lines []balanceLine, t domain.AccountType) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.AccountType == t {
			total = total.Add(l.Balance)
		}
	}
	return total
}

func linesOf(lines []balanceLine, t domain.AccountType) []balanceLine {
	out := make([]balanceLine, 0)
	for _, l := range lines {
		if l.AccountType == t {
			out = append(out, l)
		}
	}
	return out
}

func (b *Backend) trialBalance(c *gin.Context) {
	asOf, ok := parseDay(c, "as_of_date")
	if !ok {
		return
	}
	b.mu.Lock()
	lines := b.balancesLocked(time.Time{}, asOf)
	b.mu.Unlock()

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	c.JSON(http.StatusOK, gin.H{
		"as_of_date":    c.Query("as_of_date"),
		"accounts":      lines,
		"total_debits":  debits,
		"total_credits": credits,
		"is_balanced":   debits.Equal(credits),
	})
}

func (b *Backend) incomeStatement(c *gin.Context) {
	from, ok := parseDay(c, "start_date")
	if !ok {
		return
	}
	to, ok := parseDay(c, "end_date")
	if !ok {
		return
	}
	b.mu.Lock()
	lines := b.balancesLocked(from, to)
	b.mu.Unlock()

	revenue := totalOf(lines, domain.AccountTypeRevenue)
	expenses := totalOf(lines, domain.AccountTypeExpense)
	c.JSON(http.StatusOK, gin.H{
		"start_date":     c.Query("start_date"),
		"end_date":       c.Query("end_date"),
		"revenue":        linesOf(lines, domain.AccountTypeRevenue),
		"expenses":       linesOf(lines, domain.AccountTypeExpense),
		"total_revenue":  revenue,
		"total_expenses": expenses,
		"net_income":     revenue.Sub(expenses),
	})
}

func (b *Backend) balanceSheet(c *gin.Context) {
	asOf, ok := parseDay(c, "as_of_date")
	if !ok {
		return
	}
	b.mu.Lock()
	lines := b.balancesLocked(time.Time{}, asOf)
	b.mu.Unlock()

	assets := totalOf(lines, domain.AccountTypeAsset)
	liabilities := totalOf(lines, domain.AccountTypeLiability)
	// retained earnings roll into equity until the period is closed
	equity := totalOf(lines, domain.AccountTypeEquity).
		Add(totalOf(lines, domain.AccountTypeRevenue)).
		Sub(totalOf(lines, domain.AccountTypeExpense))
	c.JSON(http.StatusOK, gin.H{
		"as_of_date":        c.Query("as_of_date"),
		"assets":            linesOf(lines, domain.AccountTypeAsset),
		"liabilities":       linesOf(lines, domain.AccountTypeLiability),
		"equity":            linesOf(lines, domain.AccountTypeEquity),
		"total_assets":      assets,
		"total_liabilities": liabilities,
		"total_equity":      equity,
		"is_balanced":       assets.Equal(liabilities.Add(equity)),
	})
}
