package cli

import (
	"fmt"

	"github.com/ppiankov/assignparse/internal/validate"
	"github.com/spf13/cobra"
)

// validateCmd checks record files against the schema
var validateCmd = &cobra.Command{
	Use:   "validate <record.json>...",
	Short: "Validate record files against the record schema",
	Long: `Validate checks JSON record files (for example, output of batch or of
another tool) against the fixed record schema and reports the first
violation of each invalid file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := validate.NewValidator()
		if err != nil {
			return err
		}

		invalid := 0
		for _, r := range v.ValidateFiles(cmd.Context(), args) {
			if r.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", r.Path)
				continue
			}
			invalid++
			fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %s\n", r.Path, r.Message)
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d files invalid", invalid, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
