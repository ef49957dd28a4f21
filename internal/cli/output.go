// Package cli implements the domainsel command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/domainsel/internal/cache"
	"github.com/hyperjump/domainsel/internal/selector"
	"github.com/hyperjump/domainsel/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

func outputFormat(asJSON bool) OutputFormat {
	if asJSON {
		return OutputJSON
	}
	return OutputText
}

type resultJSON struct {
	Mode      string  `json:"mode"`
	Output    string  `json:"output"`
	Total     int     `json:"total"`
	Selected  int     `json:"selected"`
	Seed      *uint64 `json:"seed,omitempty"`
	RunID     string  `json:"run_id,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

// WriteResult writes a run summary to w in the given format.
func WriteResult(w io.Writer, res *selector.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resultJSON{
			Mode:      res.Mode,
			Output:    res.Output,
			Total:     res.Total,
			Selected:  res.Selected,
			Seed:      res.Seed,
			RunID:     res.RunID,
			ElapsedMS: res.Elapsed.Milliseconds(),
		})
	}
	fmt.Fprintf(w, "Selected %d of %d documents (%s) in %dms\n", res.Selected, res.Total, res.Mode, res.Elapsed.Milliseconds())
	fmt.Fprintf(w, "Output: %s\n", res.Output)
	if res.Seed != nil {
		fmt.Fprintf(w, "Seed: %d\n", *res.Seed)
	}
	if res.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", utils.ShortDigest(res.RunID, 8))
	}
	return nil
}

type entryJSON struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Filename  string `json:"filename"`
	Corpus    string `json:"corpus"`
	Vocab     string `json:"vocab"`
	Repr      string `json:"repr,omitempty"`
	Func      string `json:"func,omitempty"`
	FineTune  string `json:"fine_tune,omitempty"`
	Size      int64  `json:"size"`
	SHA256    string `json:"sha256"`
	RunID     string `json:"run_id"`
	CreatedAt string `json:"created_at"`
	Status    string `json:"status,omitempty"`
}

func toEntryJSON(e cache.Entry, status cache.EntryStatus) entryJSON {
	return entryJSON{
		ID:        e.ID,
		Kind:      e.Key.Kind.String(),
		Filename:  e.Filename,
		Corpus:    e.Key.Corpus,
		Vocab:     e.Key.Vocab,
		Repr:      e.Key.Repr,
		Func:      e.Key.Func,
		FineTune:  e.Key.FineTune,
		Size:      e.Size,
		SHA256:    e.SHA256,
		RunID:     e.RunID,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		Status:    string(status),
	}
}

// WriteEntries writes manifest entries to w in the given format.
func WriteEntries(w io.Writer, entries []cache.Entry, format OutputFormat) error {
	if format == OutputJSON {
		out := make([]entryJSON, len(entries))
		for i, e := range entries {
			out[i] = toEntryJSON(e, "")
		}
		return writeJSON(w, out)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cache entries.")
		return nil
	}
	fmt.Fprintf(w, "%d cache entries\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "%-13s %10d  %s  %s\n", e.Key.Kind, e.Size, utils.ShortDigest(e.SHA256, 12), e.Filename)
	}
	return nil
}

// WriteVerification writes verification results to w and returns how many
// entries drifted from the manifest.
func WriteVerification(w io.Writer, results []cache.Verification, format OutputFormat) (int, error) {
	drift := 0
	for _, r := range results {
		if r.Status != cache.StatusOK {
			drift++
		}
	}
	if format == OutputJSON {
		out := make([]entryJSON, len(results))
		for i, r := range results {
			out[i] = toEntryJSON(r.Entry, r.Status)
		}
		return drift, writeJSON(w, out)
	}
	for _, r := range results {
		fmt.Fprintf(w, "%-8s %s\n", r.Status, r.Entry.Filename)
	}
	fmt.Fprintf(w, "\n%d entries checked, %d drifted\n", len(results), drift)
	return drift, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
