package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"ledgerdesk/internal/config"
)

const usage = `usage: ledgerdesk <command> [flags]

commands:
  login -u <username> [-p <password>]
  logout
  whoami
  accounts [-search s] [-type t]
  transactions [-search s] [-type debit|credit] [-account id] [-from date] [-to date]
  journal
  dashboard
  report trial-balance|income-statement|balance-sheet [-as-of date] [-from date] [-to date] [-archive]
  archives [-prefix p]
  users
  password
  refresh [-token t]   (defaults to the refresh token saved by login)`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return flag.ErrHelp
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	a, err := newApp(ctx, cfg, logger, stdin, stdout)
	if err != nil {
		return err
	}
	defer a.close()

	return a.dispatch(ctx, args[0], args[1:])
}
