package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardforge/internal/schema"
	"cardforge/internal/util/jsonutil"
)

var schemaFlags struct {
	fix bool
}

var validateSchemaCmd = &cobra.Command{
	Use:   "validate-schema <schema.json>",
	Short: "Validate a structured-output schema against provider limits",
	Long: `Checks a schema envelope the way the pipeline does before a
structured run: envelope shape, supported keywords, branch and
definition limits. --fix rewrites the schema value with the common
problems removed and prints the result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		res := schema.Validate(string(data))
		w := cmd.OutOrStdout()

		if !res.Valid {
			fmt.Fprintf(w, "INVALID\n%s\n", res.Error)
		} else if res.Schema == nil {
			fmt.Fprintln(w, "valid (empty; structured output disabled)")
		} else {
			fmt.Fprintf(w, "valid: %s (complexity: %s)\n", res.Schema.Name, schema.Score(res.Schema.Value))
		}
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warn)
		}
		for _, line := range res.Info {
			fmt.Fprintf(w, "info: %s\n", line)
		}

		if schemaFlags.fix && res.Valid && res.Schema != nil {
			fixed := schema.AutoFix(res.Schema.Value)
			out, err := jsonutil.MarshalNoEscape(map[string]any{
				"name":   res.Schema.Name,
				"strict": res.Schema.Strict,
				"value":  fixed,
			})
			if err != nil {
				return fmt.Errorf("marshal fixed schema: %w", err)
			}
			fmt.Fprintf(w, "\n%s\n", out)
		}
		if !res.Valid {
			return fmt.Errorf("schema %s failed validation", args[0])
		}
		return nil
	},
}

func init() {
	validateSchemaCmd.Flags().BoolVar(&schemaFlags.fix, "fix", false, "print an auto-fixed copy of the schema")
}
