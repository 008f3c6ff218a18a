package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardforge/internal/card"
)

var cardsDir string

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the cards in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := card.NewFileProvider(cardsDir)
		if err != nil {
			return err
		}
		cards := provider.List()
		if len(cards) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cards found.")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-6s %-24s %-10s %s\n", "INDEX", "NAME", "GREETINGS", "TAGS")
		for i, c := range cards {
			fmt.Fprintf(w, "%-6d %-24s %-10d %s\n", i, c.Name, len(c.AlternateGreetings), strings.Join(c.Tags, ", "))
		}
		return nil
	},
}

func init() {
	cardsCmd.Flags().StringVar(&cardsDir, "dir", "./cards", "card directory")
}
