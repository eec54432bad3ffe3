package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed skills",
	Long: `List the skills installed in this project, with the source and fetch time
recorded in the lockfile. Skills present on disk but missing from the lockfile
are listed as untracked.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry is one installed skill for display.
type listEntry struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Format      string    `json:"format,omitempty"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt,omitempty"`
	Tracked     bool      `json:"tracked"`
	OnDisk      bool      `json:"onDisk"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	lf, err := a.store.Read(cmd.Context())
	if err != nil {
		return err
	}
	onDisk, err := a.installer.InstalledSlugs()
	if err != nil {
		return err
	}

	entries := listEntries(lf, onDisk)
	for i := range entries {
		if !entries[i].OnDisk {
			continue
		}
		if h, err := a.installer.ReadHeader(entries[i].Slug); err == nil {
			entries[i].Description = h.Description
		}
	}

	if listJSON {
		if entries == nil {
			entries = []listEntry{}
		}
		return printJSON(cmd.OutOrStdout(), entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No skills installed yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tFORMAT\tFETCHED")
	for _, e := range entries {
		name, format, fetched := e.Name, e.Format, "-"
		if !e.FetchedAt.IsZero() {
			fetched = e.FetchedAt.Local().Format("2006-01-02 15:04")
		}
		switch {
		case !e.Tracked:
			format = "untracked"
		case !e.OnDisk:
			format += " (missing)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Slug, name, format, fetched)
	}
	return w.Flush()
}

// listEntries merges the lockfile with the skills found on disk, sorted by slug.
func listEntries(lf *lockfile.Lockfile, onDisk []string) []listEntry {
	present := make(map[string]bool, len(onDisk))
	for _, s := range onDisk {
		present[s] = true
	}

	var out []listEntry
	seen := make(map[string]bool)
	for _, slug := range lf.Slugs() {
		e := lf.Entries[slug]
		seen[slug] = true
		out = append(out, listEntry{
			Slug:      slug,
			Name:      e.Name,
			Format:    e.Format,
			SourceURL: e.SourceURL,
			FetchedAt: e.FetchedAt,
			Tracked:   true,
			OnDisk:    present[slug],
		})
	}
	for _, slug := range onDisk {
		if !seen[slug] {
			out = append(out, listEntry{Slug: slug, Name: slug, OnDisk: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
