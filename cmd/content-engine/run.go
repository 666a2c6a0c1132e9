// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/internal/discover"
	"github.com/pdiddy/content-engine/internal/factcheck"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/store"
)

var (
	runTarget        int
	runMaxCandidates int
	runContentType   string
	runProvider      string
	runNoPreprints   bool
	runNoTrials      bool
	runDryRun        bool
	runFrom          string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: discover, generate, fact-check, save",
	Long: `Run discovers recent research, generates drafts with the configured
AI provider, fact-checks each draft against its source abstract, and
saves the results as JSON records under the drafts directory.

The run stops once enough drafts pass fact-checking (run.target_ready)
or the candidate cap is reached (run.max_candidates).`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runTarget, "target", 0, "ready drafts to aim for (overrides run.target_ready)")
	runCmd.Flags().IntVar(&runMaxCandidates, "max-candidates", 0, "most candidates to process (overrides run.max_candidates)")
	runCmd.Flags().StringVar(&runContentType, "content-type", "", "content type: newsletter, blog, or youtube_script")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "AI provider to prefer (kimi, gemini, openai, claude)")
	runCmd.Flags().BoolVar(&runNoPreprints, "no-preprints", false, "skip bioRxiv and medRxiv")
	runCmd.Flags().BoolVar(&runNoTrials, "no-trials", false, "skip ClinicalTrials.gov")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "discover and print candidates without generating")
	runCmd.Flags().StringVar(&runFrom, "from", "", "use candidates from a discovery manifest instead of discovering")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := buildConfig()

	if runTarget > 0 {
		cfg.Run.TargetReady = runTarget
	}
	if runMaxCandidates > 0 {
		cfg.Run.MaxCandidates = runMaxCandidates
	}
	if runContentType != "" {
		ct, err := parseContentType(runContentType)
		if err != nil {
			return err
		}
		cfg.Generation.ContentType = ct
	}
	if runProvider != "" {
		cfg.Generation.Primary = runProvider
	}
	if runNoPreprints {
		cfg.Sources.EnablePreprints = false
	}
	if runNoTrials {
		cfg.Sources.EnableTrials = false
	}

	registry := ai.NewRegistry(ctx, cfg.Generation, cfg.Keys, logger)
	if _, err := registry.Primary(); err != nil {
		return fmt.Errorf("add API key files under .secrets/: %w", err)
	}

	var out discover.Output
	if runFrom != "" {
		m, err := discover.ReadManifest(runFrom)
		if err != nil {
			return err
		}
		out = m.Output()
		fmt.Printf("Loaded %d candidates from %s\n", len(out.Selected), runFrom)
	} else {
		out = discover.New(cfg, logger).Run(ctx)
		fmt.Printf("Selected %d of %d unique candidates\n", len(out.Selected), out.TotalUnique)
	}
	if len(out.Selected) == 0 {
		fmt.Println("No candidates discovered.")
		return nil
	}
	if runDryRun {
		discover.FormatTable(out, os.Stdout)
		return nil
	}

	gen := generate.New(registry, cfg, logger)
	provider, err := checkProvider(registry, cfg)
	if err != nil {
		return err
	}
	checker := factcheck.NewChecker(provider, logger)
	loop := factcheck.NewLoop(checker, gen, cfg.FactCheck, logger)
	ctl := pipeline.New(gen, loop, cfg.Run, logger)

	summary, runErr := ctl.Run(ctx, out.Selected, os.Stdout)

	// Even a failed or cancelled run saves the drafts it produced, so
	// bookkeeping below runs on a fresh context.
	files := store.NewFiles(cfg.Store.DraftsDir)
	saved := 0
	for _, d := range summary.Drafts {
		if _, err := files.Save(d); err != nil {
			logger.Warn("saving draft", zap.String("draft_id", d.ID), zap.Error(err))
			continue
		}
		saved++
	}

	if archive, err := store.NewArchive(cfg.Store); err != nil {
		logger.Warn("opening archive", zap.Error(err))
	} else {
		bookCtx := context.Background()
		if _, err := archive.Reindex(bookCtx, io.Discard); err != nil {
			logger.Warn("reindexing archive", zap.Error(err))
		}
		rec := store.RunRecord{
			ID:            summary.RunID,
			StartedAt:     summary.StartedAt,
			Duration:      summary.Duration,
			Processed:     summary.Processed,
			Ready:         summary.Ready,
			NeedsRevision: summary.NeedsRevision(),
			Skipped:       summary.Skipped,
		}
		if err := archive.RecordRun(bookCtx, rec); err != nil {
			logger.Warn("recording run", zap.Error(err))
		}
		archive.Close()
	}

	if len(summary.BySource) > 0 {
		tags := make([]string, 0, len(summary.BySource))
		for tag := range summary.BySource {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		fmt.Println("By source:")
		for _, tag := range tags {
			fmt.Printf("  %s: %d\n", tag, summary.BySource[tag])
		}
	}
	fmt.Printf("Saved %d drafts to %s\n", saved, cfg.Store.DraftsDir)

	return runErr
}
