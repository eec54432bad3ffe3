package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List registry categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		entries := a.registry.Load(cmd.Context())
		counts := make(map[string]int)
		for _, e := range entries {
			counts[e.Category]++
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tENTRIES")
		for _, c := range registry.Categories {
			if counts[c] > 0 {
				fmt.Fprintf(w, "%s\t%d\n", c, counts[c])
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
