package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/service"
	"ledgerdesk/internal/session"
	"ledgerdesk/internal/storage"
	"ledgerdesk/internal/viewmodel"
)

var (
	errNotLoggedIn   = errors.New("not logged in, run: ledgerdesk login -u <username>")
	errSuperuserOnly = errors.New("this command is available to superusers only")
	errNoArchive     = errors.New("report archive is not configured (set LEDGERDESK_ARCHIVE_BUCKET)")
)

const dateLayout = "2006-01-02"

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "accounts":
		return a.accounts(ctx, args)
	case "transactions":
		return a.transactions(ctx, args)
	case "journal":
		return a.journal(ctx)
	case "dashboard":
		return a.dashboard(ctx)
	case "report":
		return a.report(ctx, args)
	case "archives":
		return a.archives(ctx, args)
	case "users":
		return a.listUsers(ctx)
	case "password":
		return a.changePassword(ctx)
	case "refresh":
		return a.refresh(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

// requireSession restores the persisted session before a protected command.
func (a *app) requireSession(ctx context.Context) error {
	if a.session.Init(ctx) != session.StateAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flag: -u")
	}

	pw := *password
	if pw == "" {
		var err error
		if pw, err = a.prompt("Password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	form := viewmodel.NewLoginForm(a.session, a.notifier, a.navigator)
	form.SetUsername(*username)
	form.SetPassword(pw)
	if err := form.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.session.CurrentUser().Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	user := a.session.CurrentUser()

	w := a.table()
	fmt.Fprintf(w, "username\t%s\n", user.Username)
	if user.FullName != "" {
		fmt.Fprintf(w, "name\t%s\n", user.FullName)
	}
	if user.Email != "" {
		fmt.Fprintf(w, "email\t%s\n", user.Email)
	}
	fmt.Fprintf(w, "superuser\t%t\n", user.IsSuperuser)
	if claims, err := a.session.TokenClaims(ctx); err == nil && !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "token expires\t%s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	} else if err != nil {
		a.logger.WithError(err).Debug("decode token claims")
	}
	return w.Flush()
}

func (a *app) accounts(ctx context.Context, args []string) error {
	fs := a.flags("accounts")
	search := fs.String("search", "", "match name, code or description")
	accountType := fs.String("type", viewmodel.AllTypes, "Asset, Liability, Equity, Revenue, Expense or all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	view := viewmodel.NewAccountsView(a.accounting, a.notifier, a.logger)
	if err := view.Fetch(ctx); err != nil {
		return err
	}
	view.SetSearch(*search)
	view.SetTypeFilter(*accountType)

	w := a.table()
	fmt.Fprintln(w, "ID\tCODE\tNAME\tTYPE\tACTIVE")
	for _, acc := range view.Filtered() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", acc.ID, acc.AccountCode, acc.AccountName, acc.AccountType, acc.IsActive)
	}
	return w.Flush()
}

func (a *app) transactions(ctx context.Context, args []string) error {
	fs := a.flags("transactions")
	search := fs.String("search", "", "match description, reference or account")
	txType := fs.String("type", viewmodel.AllTypes, "debit, credit or all")
	account := fs.Int64("account", 0, "account id")
	from := fs.String("from", "", "first day, YYYY-MM-DD")
	to := fs.String("to", "", "last day, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, d := range []string{*from, *to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", d)
		}
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	view := viewmodel.NewTransactionsView(a.accounting, a.notifier, a.logger)
	view.SetTypeFilter(*txType)
	view.SetAccountFilter(*account)
	view.SetDateRange(*from, *to)
	if err := view.Load(ctx); err != nil {
		return err
	}
	view.SetSearch(*search)

	return a.printTransactions(view.Filtered(), view.AccountLabel)
}

func (a *app) printTransactions(txs []domain.Transaction, label func(int64) string) error {
	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tACCOUNT\tTYPE\tAMOUNT\tDESCRIPTION\tREFERENCE")
	for _, tx := range txs {
		date := ""
		if !tx.CreatedAt.IsZero() {
			date = tx.CreatedAt.Format(dateLayout)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, date, label(tx.AccountID), tx.TransactionType, tx.Amount.StringFixed(2), tx.Description, tx.Reference)
	}
	return w.Flush()
}

func (a *app) journal(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	entries, err := a.accounting.ListJournalEntries(ctx, nil)
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tREFERENCE\tPOSTINGS")
	for _, je := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", je.ID, je.EntryDate, je.Description, je.Reference, len(je.Transactions))
	}
	return w.Flush()
}

func (a *app) dashboard(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	dash := viewmodel.NewDashboard(a.accounting, a.notifier, a.logger, a.cfg.Dashboard.RecentLimit)
	if err := dash.Refresh(ctx); err != nil {
		return err
	}
	stats := dash.Stats()

	w := a.table()
	fmt.Fprintf(w, "accounts\t%d\n", stats.TotalAccounts)
	fmt.Fprintf(w, "transactions\t%d\n", stats.TotalTransactions)
	fmt.Fprintf(w, "journal entries\t%d\n", stats.TotalJournalEntries)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "\nrecent transactions")
	label := func(id int64) string { return fmt.Sprintf("#%d", id) }
	return a.printTransactions(dash.Recent(), label)
}

func (a *app) report(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("report name required: trial-balance, income-statement or balance-sheet")
	}
	name := args[0]

	today := time.Now().Format(dateLayout)
	fs := a.flags("report " + name)
	asOf := fs.String("as-of", today, "report date, YYYY-MM-DD")
	from := fs.String("from", "", "period start, YYYY-MM-DD")
	to := fs.String("to", today, "period end, YYYY-MM-DD")
	archive := fs.Bool("archive", false, "upload the report to the archive bucket")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *archive && a.archive == nil {
		return errNoArchive
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	var (
		raw    json.RawMessage
		params service.Params
		err    error
	)
	switch name {
	case "trial-balance":
		params = service.Params{"as_of_date": *asOf}
		raw, err = a.accounting.TrialBalance(ctx, *asOf)
	case "income-statement":
		if *from == "" {
			return fmt.Errorf("income-statement needs -from")
		}
		params = service.Params{"start_date": *from, "end_date": *to}
		raw, err = a.accounting.IncomeStatement(ctx, *from, *to)
	case "balance-sheet":
		params = service.Params{"as_of_date": *asOf}
		raw, err = a.accounting.BalanceSheet(ctx, *asOf)
	default:
		return fmt.Errorf("unknown report %q", name)
	}
	if err != nil {
		return err
	}

	if err := writeJSON(a.out, raw); err != nil {
		return err
	}
	if !*archive {
		return nil
	}

	key := storage.ReportKey(a.cfg.Archive.KeyPrefix, name, params, time.Now())
	location, err := a.archive.Put(ctx, key, raw)
	if err != nil {
		return err
	}
	a.notifier.Notify(notify.LevelSuccess, "Report archived to "+location)
	return nil
}

// writeJSON indents raw when it is JSON and copies it verbatim otherwise.
func writeJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func (a *app) archives(ctx context.Context, args []string) error {
	fs := a.flags("archives")
	prefix := fs.String("prefix", a.cfg.Archive.KeyPrefix, "key prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.archive == nil {
		return errNoArchive
	}

	objects, err := a.archive.List(ctx, *prefix)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
	for _, obj := range objects {
		modified := ""
		if obj.LastModified != nil {
			modified = obj.LastModified.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", obj.Key, obj.Size, modified)
	}
	return w.Flush()
}

func (a *app) listUsers(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if !a.session.IsSuperuser() {
		return errSuperuserOnly
	}
	users, err := a.users.ListUsers(ctx, nil)
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tSUPERUSER\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", u.ID, u.Username, u.Email, u.IsSuperuser, u.IsActive)
	}
	return w.Flush()
}

func (a *app) changePassword(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	current, err := a.prompt("Current password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	next, err := a.prompt("New password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if strings.TrimSpace(next) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if err := a.auth.ChangePassword(ctx, domain.PasswordChange{CurrentPassword: current, NewPassword: next}); err != nil {
		return err
	}
	a.notifier.Notify(notify.LevelSuccess, "Password changed successfully")
	return nil
}

func (a *app) refresh(ctx context.Context, args []string) error {
	fs := a.flags("refresh")
	token := fs.String("token", "", "refresh token (default: the one saved by login)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.Refresh(ctx, *token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Access token refreshed")
	return nil
}
