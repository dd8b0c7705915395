package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/logging"
	"github.com/Zachkp/termfolio/internal/server"
	"github.com/Zachkp/termfolio/internal/sound"
	"github.com/Zachkp/termfolio/internal/store"
)

const (
	maintenanceInterval = time.Hour
	limiterIdle         = 10 * time.Minute
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := content.LoadOrDefault(cfg.ContentPath)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	holder := content.NewHolder(p)

	// Hashed addresses are only comparable within one process.
	db, err := store.Open(ctx, cfg.DBPath, uuid.NewString())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	submitter := contact.Chain{
		contact.NewFormEndpoint(cfg.FormURL()),
		&contact.SMTPMailer{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			To:   cfg.ToEmail,
		},
	}
	if cfg.FormURL() == "" && !cfg.SMTPConfigured() {
		log.Warn("no contact delivery configured, submissions will fail")
	}

	srv, err := server.New(server.Deps{
		Config:  cfg,
		Content: holder,
		Store:   db,
		Contact: contact.NewService(submitter, server.MessageRecorder{Store: db}, log.Named("contact")),
		Sound:   sound.NewPlayer(nil, sound.WithEnabled(cfg.SoundEnabled), sound.WithVolume(cfg.SoundVolume)),
		Log:     log,
	})
	if err != nil {
		return err
	}
	if err := srv.SyncLinks(ctx); err != nil {
		return fmt.Errorf("sync links: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	if cfg.WatchContent && cfg.ContentPath != "" {
		w := content.NewWatcher(cfg.ContentPath, holder, log.Named("content"))
		w.OnReload = func(*content.Portfolio) {
			if err := srv.SyncLinks(ctx); err != nil {
				log.Warn("sync links", zap.Error(err))
			}
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	g.Go(func() error {
		t := time.NewTicker(maintenanceInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				maintain(ctx, db, srv, cfg.VisitorRetention, log)
			}
		}
	})

	log.Info("portfolio starting",
		zap.String("addr", cfg.Addr()),
		zap.String("reveal_policy", cfg.RevealPolicy.String()),
		zap.Bool("watch_content", cfg.WatchContent))
	return g.Wait()
}

func maintain(ctx context.Context, db *store.Store, srv *server.Server, retention time.Duration, log *zap.Logger) {
	if retention > 0 {
		n, err := db.CleanupVisitors(ctx, retention)
		if err != nil {
			log.Warn("visitor cleanup", zap.Error(err))
		} else if n > 0 {
			log.Info("visitor cleanup", zap.Int64("deleted", n))
		}
	}
	if n := srv.SweepLimiter(limiterIdle); n > 0 {
		log.Debug("rate limiter swept", zap.Int("clients", n))
	}
}
