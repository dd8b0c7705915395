package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/reveal"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a content file against the schema",
	Long:  "Validate checks a portfolio YAML file. Without an argument the built in content is checked.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw := content.DefaultYAML()
	name := "built in content"
	if len(args) == 1 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		raw, name = b, args[0]
	}

	if err := content.ValidateSchema(raw); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p, err := content.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok\n", name)
	for _, sec := range p.OrderedSections() {
		fmt.Fprintf(out, "  %-14s %d stages, reveals in %s\n",
			sec.ID, len(sec.Stages), reveal.TotalDuration(sec.RevealStages()))
	}
	return nil
}
