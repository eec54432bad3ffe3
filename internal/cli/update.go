package cli

import (
	"fmt"

	"github.com/agentx-labs/skilldocs/internal/workflow"
	"github.com/spf13/cobra"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Refresh installed skills from their sources",
	Long: `Re-fetch installed skills and reinstall those whose content changed.

Requests are conditional on the ETag and Last-Modified values recorded in the
lockfile, so unchanged sources cost one round trip and no writes. --force
ignores those values and rewrites every skill.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Ignore cache validators and rewrite every skill")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	opts := workflow.UpdateOptions{Force: updateForce}
	if len(args) > 0 {
		opts.Name = args[0]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Checking for updates...")
	return summaryError(a.runner(out).Update(cmd.Context(), opts))
}
