package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/fontmeta/pkg/observability"
	"github.com/matzehuels/fontmeta/pkg/pipeline"
)

// =============================================================================
// Batch Summary
// =============================================================================

// renderSummary renders one row per report. styled selects rounded borders
// and colored outcomes for terminals.
func renderSummary(reports []*pipeline.Report, styled bool) string {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options.DrawBorder = false
	}

	tw.AppendHeader(table.Row{"File", "Font ID", "Languages", "Result", "Time"})
	for _, r := range reports {
		outcome := r.Outcome.String()
		if styled {
			outcome = outcomeColors(r.Outcome).Sprint(outcome)
		}
		tw.AppendRow(table.Row{
			r.Path,
			orDash(r.FontID),
			orDash(joinSubsets(r.Subsets)),
			outcome,
			r.Duration.Round(time.Millisecond),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 48},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func outcomeColors(o pipeline.Outcome) text.Colors {
	switch o {
	case pipeline.OutcomeWritten:
		return text.Colors{text.FgGreen}
	case pipeline.OutcomeFetchFailed, pipeline.OutcomeNoSubsets:
		return text.Colors{text.FgYellow}
	case pipeline.OutcomeWriteFailed:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// shouldStyle reports whether w is an interactive terminal.
func shouldStyle(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func joinSubsets(subsets []string) string {
	return strings.Join(subsets, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// Run Statistics
// =============================================================================

// runStats counts pipeline, cache and HTTP events for the batch summary line.
type runStats struct {
	observability.NoopHTTPHooks

	mu        sync.Mutex
	fetched   int
	annotated int
	hits      int
	misses    int
	requests  int
}

func newRunStats() *runStats { return &runStats{} }

// register installs s as the pipeline, cache and HTTP hooks.
func (s *runStats) register() {
	observability.SetPipelineHooks(s)
	observability.SetCacheHooks(s)
	observability.SetHTTPHooks(s)
}

func (s *runStats) OnExtract(context.Context, string, string, bool) {}

func (s *runStats) OnFetchStart(context.Context, string) {}

func (s *runStats) OnFetchComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	if err == nil {
		s.mu.Lock()
		s.fetched++
		s.mu.Unlock()
	}
}

func (s *runStats) OnAnnotateComplete(_ context.Context, _, result string, _ time.Duration, err error) {
	if err == nil && result == "written" {
		s.mu.Lock()
		s.annotated++
		s.mu.Unlock()
	}
}

func (s *runStats) OnCacheHit(context.Context, string) {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *runStats) OnCacheMiss(context.Context, string) {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *runStats) OnCacheSet(context.Context, string, int) {}

func (s *runStats) OnRequest(context.Context, string, string, string) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
}

// keyvals returns the counters as logger key/value pairs.
func (s *runStats) keyvals() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []any{
		"written", s.annotated,
		"fetched", s.fetched,
		"requests", s.requests,
		"cache", fmt.Sprintf("%d/%d", s.hits, s.hits+s.misses),
	}
}
