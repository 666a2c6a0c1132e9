// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/ai"
	"github.com/pdiddy/content-engine/internal/discover"
	"github.com/pdiddy/content-engine/internal/factcheck"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/pkg/types"
)

var (
	generateFrom        string
	generateIndex       int
	generateContentType string
	generateProvider    string
	generateSave        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one draft from a discovery manifest",
	Long: `Generate produces a single draft for one candidate out of a manifest
written by discover --out, fact-checks it once, and prints the draft
as JSON. Unlike run, it does not auto-revise; use it to inspect what a
provider does with a specific paper.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateFrom, "from", "", "discovery manifest to read candidates from")
	generateCmd.Flags().IntVar(&generateIndex, "index", 0, "candidate position in the manifest")
	generateCmd.Flags().StringVar(&generateContentType, "content-type", "", "content type: newsletter, blog, or youtube_script")
	generateCmd.Flags().StringVar(&generateProvider, "provider", "", "AI provider to prefer (kimi, gemini, openai, claude)")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "also save the draft to the drafts directory")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateFrom == "" {
		return errors.New("provide --from with a discovery manifest")
	}

	ctx := cmd.Context()
	cfg := buildConfig()
	if generateContentType != "" {
		ct, err := parseContentType(generateContentType)
		if err != nil {
			return err
		}
		cfg.Generation.ContentType = ct
	}
	if generateProvider != "" {
		cfg.Generation.Primary = generateProvider
	}

	m, err := discover.ReadManifest(generateFrom)
	if err != nil {
		return err
	}
	out := m.Output()
	if generateIndex < 0 || generateIndex >= len(out.Selected) {
		return fmt.Errorf("index %d out of range: manifest has %d candidates", generateIndex, len(out.Selected))
	}
	candidate := out.Selected[generateIndex]

	registry := ai.NewRegistry(ctx, cfg.Generation, cfg.Keys, logger)
	gen := generate.New(registry, cfg, logger)
	draft, err := gen.Generate(ctx, candidate)
	if err != nil {
		return err
	}

	provider, err := checkProvider(registry, cfg)
	if err != nil {
		return err
	}
	verdict := factcheck.NewChecker(provider, logger).Check(ctx, draft)
	draft.FactCheckIssues = verdict.Issues
	if verdict.Safe {
		draft.Status = types.StatusReady
	} else {
		draft.Status = types.StatusNeedsRevision
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(draft); err != nil {
		return err
	}

	if generateSave {
		path, err := store.NewFiles(cfg.Store.DraftsDir).Save(draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Draft saved to %s\n", path)
	}
	return nil
}
