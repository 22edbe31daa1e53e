package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"ledgerdesk/internal/apiclient"
	"ledgerdesk/internal/config"
	"ledgerdesk/internal/notify"
	"ledgerdesk/internal/repository/sqlite"
	"ledgerdesk/internal/service"
	"ledgerdesk/internal/session"
	"ledgerdesk/internal/storage"
)

// app is the console's object graph for one invocation.
type app struct {
	cfg    config.Config
	logger *logrus.Logger
	stdin  io.Reader
	lines  *bufio.Reader
	out    io.Writer

	db         *sql.DB
	notifier   notify.Notifier
	navigator  notify.Navigator
	client     *apiclient.Client
	accounting service.AccountingService
	users      service.UserService
	auth       service.AuthService
	session    *session.Manager
	archive    storage.Archive
}

func newApp(ctx context.Context, cfg config.Config, logger *logrus.Logger, stdin io.Reader, stdout io.Writer) (*app, error) {
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	tokens := sqlite.NewTokenRepository(db)
	if err := tokens.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init token repository: %w", err)
	}

	notifier := notify.NewLogNotifier(logger)
	navigator := notify.NavigatorFunc(func(path string) {
		logger.WithField("path", path).Info("navigate")
	})

	client, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		Tokens:    tokens,
		Notifier:  notifier,
		Navigator: navigator,
		Logger:    logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	auth := service.NewAuthService(client)
	sess := session.NewManager(auth, tokens, logger)
	sess.Watch(client)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		stdin:      stdin,
		lines:      bufio.NewReader(stdin),
		out:        stdout,
		db:         db,
		notifier:   notifier,
		navigator:  navigator,
		client:     client,
		accounting: service.NewAccountingService(client),
		users:      service.NewUserService(client),
		auth:       auth,
		session:    sess,
	}

	if cfg.Archive.Bucket != "" {
		archive, err := buildArchive(ctx, cfg, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setup archive: %w", err)
		}
		a.archive = archive
	}
	return a, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("close database")
	}
}

func buildArchive(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Archive, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Archive.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Debugf("archiving reports to s3 bucket %s (region %s)", cfg.Archive.Bucket, cfg.Archive.Region)
	return storage.NewS3Archive(client, cfg.Archive.Bucket)
}

// prompt reads one secret line, without echo on a terminal.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	defer fmt.Fprintln(a.out)

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := a.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
