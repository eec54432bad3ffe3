package cli

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>...",
	Aliases: []string{"uninstall", "rm"},
	Short:   "Remove installed skills",
	Long: `Remove skills from the project: the canonical copy under .agents/skills/,
every agent link or copy, and the lockfile entry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	return summaryError(a.runner(cmd.OutOrStdout()).Remove(cmd.Context(), args))
}
