// Command termfolio serves the terminal themed portfolio, shows it in a
// terminal, or exports it as a static site.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/termfolio/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "termfolio",
	Short:         "Terminal themed portfolio",
	Long:          "termfolio serves a single page portfolio whose sections type themselves out as they scroll into view.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
