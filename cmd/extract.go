package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ascentvc/diligence-cli/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <deck.pdf>",
	Short: "Extract text and content analysis from a pitch deck",
	Long: `Runs the extraction fallback chain on a PDF and prints the extracted
text, per-strategy attempts, and the content analysis without scoring.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	pre, chain, err := initExtraction()
	if err != nil {
		return err
	}

	doc, err := pre.Prepare(args[0])
	if err != nil {
		return err
	}
	defer pre.Cleanup(doc)

	res, err := chain.Run(cmd.Context(), doc)
	if err != nil {
		var failed *extract.AllFailedError
		if errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, "extraction failed on every strategy:")
			for _, a := range failed.Attempts {
				fmt.Fprintf(os.Stderr, "  %-14s words=%d error=%s\n", a.Strategy, a.WordCount, a.Error)
			}
			for _, s := range failed.Suggestions {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", s)
			}
		}
		return err
	}
	return printJSON(res)
}
