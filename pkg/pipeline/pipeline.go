// Package pipeline runs the extract → fetch → annotate flow for one cask file.
//
// # Flow
//
//	START → EXTRACT {found → FETCH, not found → done}
//	      → FETCH   {subsets → ANNOTATE, empty or error → done}
//	      → ANNOTATE {written, skipped → done; I/O error → done with failure}
//
// Only a file that cannot be read at all is reported as an error from
// [Runner.Run]; that is a usage problem the caller should surface. Every other
// result, including fetch and write failures, comes back in the [Report] so
// a batch keeps going past one bad file.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, annotator, logger)
//	report, err := runner.Run(ctx, "Casks/font-noto-sans-jp.rb", pipeline.Options{})
//	if err != nil {
//	    return err // unreadable file
//	}
//	fmt.Println(report.Outcome)
package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/fontmeta/pkg/cask"
	"github.com/matzehuels/fontmeta/pkg/integrations/googlefonts"
)

// Fetcher resolves a font id to its metadata.
// *googlefonts.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, fontID string, refresh bool) (*googlefonts.Family, error)
}

// Annotator writes the metadata block. *cask.Annotator satisfies it.
type Annotator interface {
	Annotate(ctx context.Context, path string, subsets []string, fontID string) (*cask.Result, error)
}

// Options controls a single run.
type Options struct {
	Refresh bool // Bypass cached registry responses
}

// Outcome is the terminal state of a run.
type Outcome int

const (
	// OutcomeNotApplicable means the file does not reference a Google Fonts family.
	OutcomeNotApplicable Outcome = iota
	// OutcomeFetchFailed means the metadata request failed; nothing was written.
	OutcomeFetchFailed
	// OutcomeNoSubsets means the metadata listed no subsets; nothing was written.
	OutcomeNoSubsets
	// OutcomeWritten means the block was prepended.
	OutcomeWritten
	// OutcomeAlreadyAnnotated means the marker was present; nothing was written.
	OutcomeAlreadyAnnotated
	// OutcomeDryRun means the block was generated but not written.
	OutcomeDryRun
	// OutcomeWriteFailed means locking, reading or rewriting the file failed.
	OutcomeWriteFailed
)

// String returns a short human-readable name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotApplicable:
		return "not a Google Font"
	case OutcomeFetchFailed:
		return "fetch failed"
	case OutcomeNoSubsets:
		return "no languages"
	case OutcomeWritten:
		return "annotated"
	case OutcomeAlreadyAnnotated:
		return "already annotated"
	case OutcomeDryRun:
		return "dry run"
	case OutcomeWriteFailed:
		return "write failed"
	default:
		return "unknown"
	}
}

// Report describes one run.
type Report struct {
	RunID    string
	Path     string
	FontID   string
	URL      string
	Subsets  []string
	Cached   bool   // Subsets were served from cache
	Block    string // Generated block for OutcomeWritten and OutcomeDryRun
	Outcome  Outcome
	Err      error // Set for OutcomeFetchFailed and OutcomeWriteFailed
	Duration time.Duration
}

// Failed reports whether the run should count as a failure for the file.
// Only write failures qualify; fetch problems are treated as "nothing to do".
func (r *Report) Failed() bool {
	return r.Outcome == OutcomeWriteFailed
}
