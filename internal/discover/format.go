// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes the selected slate as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Selected) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-56s  %-26s  %-4s  %-5s  %s\n",
		"Rank", "Title", "Venue", "Year", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, c := range out.Selected {
		year := ""
		if !c.Date.IsZero() {
			year = fmt.Sprintf("%d", c.Date.Year())
		}
		fmt.Fprintf(w, "%-4d  %-56s  %-26s  %-4s  %-5.1f  %s\n",
			i+1, truncate(c.Title, 56), truncate(c.Venue, 26), year, c.Score, c.SourceTag())
	}

	fmt.Fprintf(w, "\n%d selected from %d unique", len(out.Selected), out.TotalUnique)
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the selected slate as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Selected)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
