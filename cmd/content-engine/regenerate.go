// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/internal/factcheck"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

var (
	regenStatus   string
	regenProvider string
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Regenerate saved drafts that need revision",
	Long: `Regenerate reruns generation and fact-checking for saved drafts,
rewriting each record file in place. By default it picks up drafts
with status needs_revision; pass --status all to redo everything.`,
	RunE: runRegenerate,
}

func init() {
	regenerateCmd.Flags().StringVar(&regenStatus, "status", string(types.StatusNeedsRevision), "drafts to redo: draft, ready_for_review, needs_revision, or all")
	regenerateCmd.Flags().StringVar(&regenProvider, "provider", "", "AI provider to prefer (kimi, gemini, openai, claude)")
	rootCmd.AddCommand(regenerateCmd)
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	switch regenStatus {
	case "all", string(types.StatusDraft), string(types.StatusReady), string(types.StatusNeedsRevision):
	default:
		return fmt.Errorf("unknown status %q: use draft, ready_for_review, needs_revision, or all", regenStatus)
	}

	ctx := cmd.Context()
	cfg := buildConfig()
	if regenProvider != "" {
		cfg.Generation.Primary = regenProvider
	}

	files := store.NewFiles(cfg.Store.DraftsDir)
	records, err := files.List()
	if err != nil {
		return err
	}
	var selected []store.Record
	for _, rec := range records {
		if regenStatus == "all" || string(rec.Draft.Status) == regenStatus {
			selected = append(selected, rec)
		}
	}
	if len(selected) == 0 {
		if regenStatus == "all" {
			fmt.Println("No drafts found.")
		} else {
			fmt.Printf("No drafts with status %s.\n", regenStatus)
		}
		return nil
	}

	registry := ai.NewRegistry(ctx, cfg.Generation, cfg.Keys, logger)
	if _, err := registry.Primary(); err != nil {
		return fmt.Errorf("add API key files under .secrets/: %w", err)
	}
	provider, err := checkProvider(registry, cfg)
	if err != nil {
		return err
	}
	checker := factcheck.NewChecker(provider, logger)

	var ready, needsRev, skipped int
	for i, rec := range selected {
		fmt.Printf("regenerating (%d/%d): %s\n", i+1, len(selected), rec.Draft.Title)

		// Each record keeps its own content type, so the generator is
		// rebuilt per record.
		cfgRec := cfg
		cfgRec.Generation.ContentType = rec.Draft.ContentType
		gen := generate.New(registry, cfgRec, logger)
		loop := factcheck.NewLoop(checker, gen, cfg.FactCheck, logger)

		draft, err := gen.Generate(ctx, rec.Draft.Candidate)
		if err != nil {
			if errors.Is(err, ai.ErrNoProvider) || ctx.Err() != nil {
				return err
			}
			fmt.Printf("  skipped: %v\n", err)
			skipped++
		} else {
			loop.Run(ctx, draft)
			if err := files.Rewrite(rec.Path, draft); err != nil {
				return err
			}
			if draft.Status == types.StatusReady {
				ready++
				fmt.Println("  ready for review")
			} else {
				needsRev++
				fmt.Println("  needs revision")
			}
		}

		if i < len(selected)-1 && cfg.Run.Cooldown > 0 {
			select {
			case <-time.After(cfg.Run.Cooldown):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	fmt.Printf("\nRegenerated %d drafts: %d ready, %d need revision, %d skipped\n",
		ready+needsRev, ready, needsRev, skipped)

	archive, err := store.NewArchive(cfg.Store)
	if err != nil {
		return err
	}
	defer archive.Close()
	if _, err := archive.Reindex(ctx, os.Stdout); err != nil {
		return err
	}
	return nil
}
