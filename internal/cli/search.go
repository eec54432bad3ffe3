package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/spf13/cobra"
)

var (
	searchCategories []string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the documentation registry",
	Long: `Search registry entries by slug, name, domain and description.

Matching is fuzzy and ignores case and accents. Without a query every entry is
listed. Use --category to restrict results (see 'categories').`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchCategories, "category", "c", nil, "Filter by category (comma-separated, matches any)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

// searchEntry is one row of search output.
type searchEntry struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Full        bool    `json:"full"`
	Score       float64 `json:"score"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	entries := a.registry.Load(cmd.Context())
	var results []registry.SearchResult
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		results = a.registry.Search(args[0])
	} else {
		for _, e := range entries {
			results = append(results, registry.SearchResult{Entry: e})
		}
	}

	rows := searchRows(results, searchCategories)
	if len(rows) == 0 {
		msg := "No skills found"
		if len(args) > 0 {
			msg += fmt.Sprintf(" matching %q", args[0])
		}
		if len(searchCategories) > 0 {
			msg += fmt.Sprintf(" with --category=%s", strings.Join(searchCategories, ","))
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}

	if searchJSON {
		return printJSON(cmd.OutOrStdout(), rows)
	}
	return printSearchTable(cmd.OutOrStdout(), rows)
}

// searchRows filters results to cats, keeping their order.
func searchRows(results []registry.SearchResult, cats []string) []searchEntry {
	want := make(map[string]bool, len(cats))
	for _, c := range cats {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			want[c] = true
		}
	}

	var rows []searchEntry
	for _, r := range results {
		if len(want) > 0 && !want[r.Entry.Category] {
			continue
		}
		rows = append(rows, searchEntry{
			Slug:        r.Entry.Slug,
			Name:        r.Entry.Name,
			Category:    r.Entry.Category,
			Description: r.Entry.Description,
			Full:        r.Entry.HasFull(),
			Score:       r.Score,
		})
	}
	return rows
}

func printSearchTable(out io.Writer, rows []searchEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tCATEGORY\tDESCRIPTION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Slug, r.Name, r.Category, truncate(r.Description, 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
