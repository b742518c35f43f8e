package pipeline

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/fontmeta/pkg/cask"
	fmerrors "github.com/matzehuels/fontmeta/pkg/errors"
	"github.com/matzehuels/fontmeta/pkg/integrations/googlefonts"
	"github.com/matzehuels/fontmeta/pkg/observability"
)

// Runner executes the pipeline. It holds no per-run state and can be reused
// across files.
type Runner struct {
	Fetcher   Fetcher
	Annotator Annotator
	Logger    *log.Logger
}

// NewRunner creates a runner. A nil logger uses log.Default().
func NewRunner(f Fetcher, a Annotator, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Fetcher: f, Annotator: a, Logger: logger}
}

// Run processes the cask at path.
//
// The returned error is non-nil only when path cannot be read (an
// *errors.Error with a usage code) or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, path string, opts Options) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Path: path}
	logger := r.Logger.With("run", report.RunID[:8])
	defer func() { report.Duration = time.Since(start) }()

	content, err := readCask(path)
	if err != nil {
		return nil, err
	}

	// Extract
	id, ok := googlefonts.ExtractFontID(string(content))
	observability.Pipeline().OnExtract(ctx, path, id, ok)
	if !ok {
		logger.Info("not a Google Fonts (ofl) cask, skipping", "file", path)
		report.Outcome = OutcomeNotApplicable
		return report, nil
	}
	report.FontID = id
	logger.Info("found Google Font ID", "font_id", id)

	// Fetch
	fetchStart := time.Now()
	observability.Pipeline().OnFetchStart(ctx, id)
	fam, err := r.Fetcher.Fetch(ctx, id, opts.Refresh)
	nSubsets := 0
	if fam != nil {
		nSubsets = len(fam.Subsets)
	}
	observability.Pipeline().OnFetchComplete(ctx, id, nSubsets, time.Since(fetchStart), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("could not retrieve languages", "font_id", id, "err", err)
		report.Outcome = OutcomeFetchFailed
		report.Err = err
		return report, nil
	}
	report.URL = fam.URL
	report.Subsets = fam.Subsets
	report.Cached = fam.Cached
	if len(fam.Subsets) == 0 {
		logger.Info("no languages found, skipping update", "font_id", id)
		report.Outcome = OutcomeNoSubsets
		return report, nil
	}
	logger.Info("found languages", "languages", fam.Subsets, "cached", fam.Cached)

	// Annotate
	annotateStart := time.Now()
	res, err := r.Annotator.Annotate(ctx, path, fam.Subsets, id)
	if err != nil {
		observability.Pipeline().OnAnnotateComplete(ctx, path, "error", time.Since(annotateStart), err)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		logger.Error("failed to write metadata", "file", path, "err", err)
		report.Outcome = OutcomeWriteFailed
		report.Err = err
		return report, nil
	}
	observability.Pipeline().OnAnnotateComplete(ctx, path, res.Status.String(), time.Since(annotateStart), nil)

	report.Block = res.Block
	switch res.Status {
	case cask.StatusWritten:
		logger.Info("added metadata", "file", res.Path)
		report.Outcome = OutcomeWritten
	case cask.StatusAlreadyAnnotated:
		logger.Info("metadata already exists, skipping", "file", res.Path)
		report.Outcome = OutcomeAlreadyAnnotated
	case cask.StatusDryRun:
		logger.Info("dry run, not writing", "file", res.Path)
		report.Outcome = OutcomeDryRun
	default:
		report.Outcome = OutcomeNoSubsets
	}
	return report, nil
}

// CheckReadable verifies that path exists and can be opened for reading.
// Failures are usage errors.
func CheckReadable(path string) error {
	if err := fmerrors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return classifyOpenError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmerrors.Wrap(fmerrors.ErrCodeInvalidPath, err, "cannot stat %s", path)
	}
	if info.IsDir() {
		return fmerrors.New(fmerrors.ErrCodeInvalidPath, "%s is a directory", path)
	}
	return nil
}

func readCask(path string) ([]byte, error) {
	if err := CheckReadable(path); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}
	return content, nil
}

func classifyOpenError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmerrors.Wrap(fmerrors.ErrCodeFileNotFound, err, "file not found: %s", path)
	}
	return fmerrors.Wrap(fmerrors.ErrCodeInvalidPath, err, "cannot read %s", path)
}
