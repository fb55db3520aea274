package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// strategiesCmd lists the registered strategies
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available parsing strategies",
	Long: `List the strategies registered with the current configuration, with
their fallback. Completion-backed strategies whose endpoint is not
configured are listed as unavailable with the reason.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		for _, id := range a.registry.IDs() {
			s, err := a.registry.Get(id)
			if err != nil {
				return err
			}
			fallback := s.Fallback()
			if fallback == "" {
				fallback = "-"
			}
			marker := " "
			if id == a.cfg.Strategy {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-10s fallback: %s\n", marker, id, fallback)
		}

		unavailable := a.registry.Unavailable()
		ids := make([]string, 0, len(unavailable))
		for id := range unavailable {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(out, "  %-10s unavailable: %s\n", id, unavailable[id])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
