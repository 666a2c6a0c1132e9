// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/discover"
)

var (
	discoverJSON       bool
	discoverCSL        bool
	discoverOut        string
	discoverNoPreprint bool
	discoverNoTrials   bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and rank recent research candidates",
	Long: `Discover queries PubMed, bioRxiv, medRxiv, and ClinicalTrials.gov for
recent longevity research, removes duplicates, scores each candidate,
and prints the selected slate.

Write the slate to a manifest with --out to generate from it later
without repeating the search.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "print candidates as JSON")
	discoverCmd.Flags().BoolVar(&discoverCSL, "csl", false, "print candidates as CSL-JSON citation items")
	discoverCmd.Flags().StringVar(&discoverOut, "out", "", "write a discovery manifest to this path")
	discoverCmd.Flags().BoolVar(&discoverNoPreprint, "no-preprints", false, "skip bioRxiv and medRxiv")
	discoverCmd.Flags().BoolVar(&discoverNoTrials, "no-trials", false, "skip ClinicalTrials.gov")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if discoverNoPreprint {
		cfg.Sources.EnablePreprints = false
	}
	if discoverNoTrials {
		cfg.Sources.EnableTrials = false
	}

	out := discover.New(cfg, logger).Run(cmd.Context())

	if discoverOut != "" {
		if err := discover.WriteManifest(discoverOut, cfg, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Manifest written to %s\n", discoverOut)
	}

	switch {
	case discoverJSON:
		return discover.FormatJSON(out, os.Stdout)
	case discoverCSL:
		return discover.FormatCSL(out, os.Stdout)
	default:
		discover.FormatTable(out, os.Stdout)
	}
	return nil
}
