// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

var (
	archiveStatus string
	archiveType   string
	archiveSource string
	archiveLimit  int
	archiveJSON   bool
	runsLimit     int
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Search and maintain the draft archive",
	Long: `Archive maintains a SQLite full-text index over the saved draft
records and the history of past runs.`,
}

var archiveReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Index new and changed draft records",
	RunE:  runArchiveReindex,
}

var archiveQueryCmd = &cobra.Command{
	Use:   "query [query...]",
	Short: "Search archived drafts by full text or filters",
	Long: `Query searches the archive. Positional arguments form a full-text
query over titles, summaries, and bodies; --status, --type, and
--source narrow the results. Full-text matches come back best first,
filter-only queries newest first.`,
	Args: cobra.ArbitraryArgs,
	RunE: runArchiveQuery,
}

var archiveRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past pipeline runs",
	RunE:  runArchiveRuns,
}

func init() {
	archiveQueryCmd.Flags().StringVar(&archiveStatus, "status", "", "filter by status: draft, ready_for_review, or needs_revision")
	archiveQueryCmd.Flags().StringVar(&archiveType, "type", "", "filter by content type: newsletter, blog, or youtube_script")
	archiveQueryCmd.Flags().StringVar(&archiveSource, "source", "", "filter by source tag: pubmed, biorxiv, medrxiv, or clinical_trial")
	archiveQueryCmd.Flags().IntVar(&archiveLimit, "limit", 20, "most results to return")
	archiveQueryCmd.Flags().BoolVar(&archiveJSON, "json", false, "print results as JSON")
	archiveRunsCmd.Flags().IntVar(&runsLimit, "limit", 20, "most runs to list")

	archiveCmd.AddCommand(archiveReindexCmd)
	archiveCmd.AddCommand(archiveQueryCmd)
	archiveCmd.AddCommand(archiveRunsCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveReindex(cmd *cobra.Command, args []string) error {
	archive, err := store.NewArchive(buildConfig().Store)
	if err != nil {
		return err
	}
	defer archive.Close()

	summary, err := archive.Reindex(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d records failed indexing", summary.Failed)
	}
	return nil
}

func runArchiveQuery(cmd *cobra.Command, args []string) error {
	opts := store.QueryOptions{
		Query:      strings.Join(args, " "),
		Source:     archiveSource,
		MaxResults: archiveLimit,
	}
	if archiveStatus != "" {
		switch s := types.DraftStatus(archiveStatus); s {
		case types.StatusDraft, types.StatusReady, types.StatusNeedsRevision:
			opts.Status = s
		default:
			return fmt.Errorf("unknown status %q: use draft, ready_for_review, or needs_revision", archiveStatus)
		}
	}
	if archiveType != "" {
		ct, err := parseContentType(archiveType)
		if err != nil {
			return err
		}
		opts.ContentType = ct
	}
	if opts.IsEmpty() {
		return errors.New("query or filter required: provide a search query, --status, --type, or --source")
	}

	archive, err := store.NewArchive(buildConfig().Store)
	if err != nil {
		return err
	}
	defer archive.Close()

	results, err := archive.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if archiveJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	}

	fmt.Printf("%-4s %-16s %-14s %-44s %s\n", "#", "Status", "Type", "Title", "Created")
	fmt.Println(strings.Repeat("-", 96))
	for i, r := range results {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format("2006-01-02")
		}
		fmt.Printf("%-4d %-16s %-14s %-44s %s\n",
			i+1, r.Status, r.ContentType, truncate(r.Title, 44), created)
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

func runArchiveRuns(cmd *cobra.Command, args []string) error {
	archive, err := store.NewArchive(buildConfig().Store)
	if err != nil {
		return err
	}
	defer archive.Close()

	runs, err := archive.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s %-17s %-9s %-10s %-6s %-14s %s\n",
		"Run", "Started", "Duration", "Processed", "Ready", "NeedsRevision", "Skipped")
	fmt.Println(strings.Repeat("-", 104))
	for _, r := range runs {
		fmt.Printf("%-36s %-17s %-9s %-10d %-6d %-14d %d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"),
			r.Duration.Round(time.Second), r.Processed, r.Ready, r.NeedsRevision, r.Skipped)
	}
	return nil
}

// truncate shortens a string to max runes for table display. Titles are
// mostly Korean, so byte slicing would cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
