package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/titleflix/extractor"
)

var flagSelectors string

var extractCmd = &cobra.Command{
	Use:   "extract <file.html>",
	Short: "Print the title resolved from a saved player page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ex, err := loadExtractor(flagSelectors)
		if err != nil {
			return err
		}

		title, ok := ex.FromHTML(string(raw))
		if !ok {
			return fmt.Errorf("no title found in %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), title)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "Print whether a URL is a watch page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		page := extractor.Classify(args[0])
		if page.IsWatch() {
			fmt.Fprintf(cmd.OutOrStdout(), "watch %s\n", page.ID)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "unknown")
	},
}

func init() {
	extractCmd.Flags().StringVar(&flagSelectors, "selectors", os.Getenv("TITLEFLIX_SELECTORS_FILE"), "YAML file overriding the title selectors")
}
