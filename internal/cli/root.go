// Package cli implements the cardforge command line. The commands are
// thin shells over the same internal packages the API server uses; no
// pipeline logic lives here.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "cardforge",
	Short: "cardforge - character card improvement pipeline",
	Long: `cardforge runs character cards through a staged improvement pipeline:
score the original, rewrite it, analyze the rewrite, and refine the
rewrite until the analysis accepts it. Results export as markdown.

The same pipeline is served over HTTP by the api binary; this CLI runs
it against a single card file.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(validateSchemaCmd)
	rootCmd.AddCommand(exportCmd)
}
