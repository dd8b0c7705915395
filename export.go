package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/export"
	"github.com/Zachkp/termfolio/internal/logging"
	"github.com/Zachkp/termfolio/internal/server"
)

var (
	exportOut        string
	exportPDF        bool
	exportPDFName    string
	exportPDFTimeout time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the portfolio as a static site",
	Long:  "Export renders the page with client side reveals into a directory that any static host can serve, optionally printing it to PDF.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "dist", "output directory")
	exportCmd.Flags().BoolVar(&exportPDF, "pdf", false, "also print the page to PDF with headless Chrome")
	exportCmd.Flags().StringVar(&exportPDFName, "pdf-name", "portfolio.pdf", "name of the printed PDF")
	exportCmd.Flags().DurationVar(&exportPDFTimeout, "pdf-timeout", time.Minute, "time allowed for printing")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
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
		return err
	}
	srv, err := server.New(server.Deps{Config: cfg, Content: content.NewHolder(p), Log: log})
	if err != nil {
		return err
	}

	resume, resumeName := srv.ResumeFile()
	res, err := export.Site(ctx, srv, export.Options{
		OutDir:     exportOut,
		Assets:     server.StaticFS(),
		ResumePath: resume,
		ResumeName: resumeName,
		PDF:        exportPDF,
		PDFName:    exportPDFName,
		PDFTimeout: exportPDFTimeout,
		Log:        log,
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.Info("export complete",
		zap.String("index", res.Index),
		zap.Int("assets", res.Assets),
		zap.String("resume", res.Resume),
		zap.String("pdf", res.PDF))
	return nil
}
