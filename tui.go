package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/logging"
	"github.com/Zachkp/termfolio/internal/sound"
	"github.com/Zachkp/termfolio/internal/tui"
)

var (
	tuiLogFile string
	tuiStyle   string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the portfolio in the terminal",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "termfolio.log", "file to log to while the terminal is in use")
	tuiCmd.Flags().StringVar(&tuiStyle, "style", "dark", "markdown style (dark, light, dracula, notty...)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout belongs to the terminal view.
	log, err := logging.ToFile(cfg.LogLevel, tuiLogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p, err := content.LoadOrDefault(cfg.ContentPath)
	if err != nil {
		return err
	}

	return tui.Run(tui.Deps{
		Content: p,
		Policy:  cfg.RevealPolicy,
		Player: sound.NewPlayer(sound.BellSink{W: os.Stdout},
			sound.WithLogger(log),
			sound.WithEnabled(cfg.SoundEnabled),
			sound.WithVolume(cfg.SoundVolume)),
		Log:   log,
		Style: tuiStyle,
	})
}
