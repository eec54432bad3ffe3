package cli

import (
	"fmt"

	"github.com/agentx-labs/skilldocs/internal/agents"
	"github.com/agentx-labs/skilldocs/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	installFull   bool
	installForce  bool
	installAgents []string
	installYes    bool
)

var installCmd = &cobra.Command{
	Use:   "install <name>...",
	Short: "Install documentation skills",
	Long: `Install one or more documentation skills from the registry.

Names are matched against registry slugs and display names; close misspellings
are resolved to the best match. The skill is written once under .agents/skills/
and linked into every agent directory detected in the project. Use --agent to
choose agents explicitly.`,
	Example: `  skilldocs install astro
  skilldocs install react zod --agent claude-code,cursor
  skilldocs install svelte --full`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installFull, "full", false, "Install llms-full.txt when the source publishes one")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Reinstall skills that are already installed")
	installCmd.Flags().StringSliceVarP(&installAgents, "agent", "a", nil, "Agents to link into (comma-separated, default: detected)")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Never prompt; fail names that do not resolve")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	var selected []agents.Agent
	if len(installAgents) > 0 {
		var err error
		if selected, err = agents.ParseNames(installAgents); err != nil {
			return err
		}
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	var opts []workflow.Option
	if p := interactivePrompter(out, installYes); p != nil {
		opts = append(opts, workflow.WithPrompter(p))
	}

	fmt.Fprintln(out, "Installing...")
	sum := a.runner(out, opts...).Install(cmd.Context(), args, workflow.InstallOptions{
		Full:   installFull,
		Force:  installForce,
		Agents: selected,
	})
	return summaryError(sum)
}

// summaryError turns per-entry failures into a short command error. The
// details were already printed line by line.
func summaryError(sum *workflow.Summary) error {
	if sum.Err() == nil {
		return nil
	}
	return fmt.Errorf("%s failed for %d of %d", sum.Command, sum.Failed(), len(sum.Outcomes))
}
