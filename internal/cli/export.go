package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cardforge/internal/card"
	"cardforge/internal/export"
	"cardforge/internal/pipeline"
)

var exportFlags struct {
	cardPath string
	outPath  string
}

var exportCmd = &cobra.Command{
	Use:   "export <state.json>",
	Short: "Render a saved pipeline state as a markdown document",
	Long: `Takes a state file written by 'run --save-state' and renders the
full markdown export: included fields, every stage result, and the
iteration history. --card re-attaches the card file the state was
produced from; the export needs it for the header and field list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		lookup := func(int) (*card.CharacterCard, bool) { return nil, false }
		if exportFlags.cardPath != "" {
			raw, err := os.ReadFile(exportFlags.cardPath)
			if err != nil {
				return fmt.Errorf("read card: %w", err)
			}
			c, err := card.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse card: %w", err)
			}
			lookup = func(int) (*card.CharacterCard, bool) { return c, true }
		}

		st, err := pipeline.Restore(data, lookup)
		if err != nil {
			return err
		}
		if st.Card == nil {
			return fmt.Errorf("state has no card attached; pass --card")
		}
		if !pipeline.CanExport(st) {
			return fmt.Errorf("state has no rewrite result; nothing to export")
		}
		doc := export.Markdown(st, time.Now())

		if exportFlags.outPath == "" || exportFlags.outPath == "-" {
			fmt.Fprintln(cmd.OutOrStdout(), doc)
			return nil
		}
		if err := os.WriteFile(exportFlags.outPath, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", exportFlags.outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.cardPath, "card", "", "card file the state belongs to")
	exportCmd.Flags().StringVar(&exportFlags.outPath, "out", "", "output path (default stdout)")
}
