package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"glosspress/app/internal/config"
	appdb "glosspress/app/internal/db"
	"glosspress/app/internal/docshost"
	"glosspress/app/internal/glossary"
	apphttp "glosspress/app/internal/http"
	applog "glosspress/app/internal/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "glosspress",
		Short:         "Publish glossary entries to the documentation repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the shared dependencies behind every subcommand.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	hub     *sentry.Hub
	db      *gorm.DB
	repo    *glossary.GormRepository
	cleanup func()
}

func newApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, eris.Wrap(err, "failure initialising logger")
	}

	hub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, eris.Wrap(err, "failure initialising sentry")
	}

	conn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		flush()
		return nil, eris.Wrap(err, "opening database")
	}

	cleanup := func() {
		if closeErr := appdb.Close(conn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
		flush()
	}

	if err := glossary.Migrate(ctx, conn, logger); err != nil {
		cleanup()
		return nil, eris.Wrap(err, "running migrations")
	}

	repo, err := glossary.NewRepository(conn, logger)
	if err != nil {
		cleanup()
		return nil, eris.Wrap(err, "building glossary repository")
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		hub:     hub,
		db:      conn,
		repo:    repo,
		cleanup: cleanup,
	}, nil
}

func (a *app) newService() (glossary.Service, error) {
	publisher, err := docshost.NewClient(docshost.ClientOptions{
		Token:      a.cfg.GitHubToken,
		Owner:      a.cfg.DocsRepoOwner,
		Repo:       a.cfg.DocsRepoName,
		BaseBranch: a.cfg.DocsBaseBranch,
		PathPrefix: a.cfg.DocsPathPrefix,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating docs host client")
	}

	return glossary.NewService(a.repo, publisher, a.logger, a.hub)
}

func publishCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "publish [term]",
		Short: "Open a pull request that publishes one glossary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			application, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer application.cleanup()

			service, err := application.newService()
			if err != nil {
				return err
			}

			strategy := glossary.CacheFirst
			if refresh {
				strategy = glossary.Refresh
			}

			entry, err := service.Publish(ctx, args[0], strategy)
			if err != nil {
				return err
			}

			fmt.Printf("%s -> %s\n", entry.Term, entry.PublishedURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-publish even when a publish URL already exists")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List glossary entries and their publish state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			application, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer application.cleanup()

			entries, err := application.repo.ListEntries(ctx)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No glossary entries yet.")
				return nil
			}

			for _, entry := range entries {
				state := "unpublished"
				if entry.PublishedURL != "" {
					state = entry.PublishedURL
				}
				fmt.Printf("%-30s %-30s %s\n", entry.Term, entry.Slug, state)
			}

			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [term]",
		Short: "Print the rendered MDX document for a glossary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			application, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer application.cleanup()

			entry, err := application.repo.GetByTerm(ctx, args[0])
			if err != nil {
				return err
			}
			if entry == nil {
				return eris.Errorf("no glossary entry for term: %s", args[0])
			}

			document, err := glossary.RenderEntry(entry)
			if err != nil {
				return err
			}

			fmt.Print(string(document))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the publish API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx)
		},
	}
}

func runServer(ctx context.Context) error {
	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.cleanup()

	service, err := application.newService()
	if err != nil {
		return err
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		GlossaryService:    service,
		Database:           application.db,
		Logger:             application.logger,
		SentryHub:          application.hub,
		DocsHostConfigured: application.cfg.DocsHostConfigured(),
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: 5,
			Burst:             10,
			ClientTTL:         10 * time.Minute,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", application.cfg.ServerPort),
		Handler: transport.Handler(),
	}

	application.logger.WithFields(logrus.Fields{
		"addr": httpServer.Addr,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		application.logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), application.cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	application.logger.Info("http server shut down cleanly")
	return nil
}
