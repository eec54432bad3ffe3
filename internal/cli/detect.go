package cli

import (
	"fmt"
	"strings"

	"github.com/agentx-labs/skilldocs/internal/detector"
	"github.com/agentx-labs/skilldocs/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	detectCategories []string
	detectInstall    bool
	detectJSON       bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Suggest skills for the project's dependencies",
	Long: `Read package.json, go.mod and requirements.txt and suggest registry entries
for the declared dependencies. Skills that are already installed are skipped.
Use --install to install every suggestion.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringSliceVarP(&detectCategories, "category", "c", nil, "Only suggest entries in these categories")
	detectCmd.Flags().BoolVar(&detectInstall, "install", false, "Install every suggestion")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(detectCmd)
}

// detectEntry is one suggestion for display.
type detectEntry struct {
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Packages []string `json:"packages"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	r := a.runner(out)
	matches := r.Detect(cmd.Context(), detectCategories)

	if detectJSON {
		return printJSON(out, detectRows(matches))
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "No new skills found for this project's dependencies.")
		return nil
	}

	fmt.Fprintf(out, "Found %d skill(s) for this project:\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(out, "  • %s (%s) ← %s\n", m.Entry.Name, m.Slug, strings.Join(m.MatchedPackages, ", "))
	}

	if !detectInstall {
		fmt.Fprintf(out, "\nRun '%s detect --install' to install them.\n", rootCmd.Name())
		return nil
	}

	slugs := make([]string, len(matches))
	for i, m := range matches {
		slugs[i] = m.Slug
	}
	fmt.Fprintln(out, "\nInstalling...")
	return summaryError(r.Install(cmd.Context(), slugs, workflow.InstallOptions{}))
}

func detectRows(matches []detector.Match) []detectEntry {
	rows := make([]detectEntry, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, detectEntry{
			Slug:     m.Slug,
			Name:     m.Entry.Name,
			Category: m.Entry.Category,
			Packages: m.MatchedPackages,
		})
	}
	return rows
}
