package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fontmeta/internal/config"
	"github.com/matzehuels/fontmeta/pkg/buildinfo"
	"github.com/matzehuels/fontmeta/pkg/cache"
	"github.com/matzehuels/fontmeta/pkg/cask"
	fmerrors "github.com/matzehuels/fontmeta/pkg/errors"
	"github.com/matzehuels/fontmeta/pkg/integrations/googlefonts"
	"github.com/matzehuels/fontmeta/pkg/observability"
	"github.com/matzehuels/fontmeta/pkg/pipeline"
)

// annotateFlags holds flag values for the root command.
type annotateFlags struct {
	dryRun      bool
	refresh     bool
	noCache     bool
	strict      bool
	metadataURL string
	timeout     time.Duration
}

// annotateCommand creates the root command, which annotates cask files.
func (c *CLI) annotateCommand() *cobra.Command {
	var flags annotateFlags

	cmd := &cobra.Command{
		Use:   "fontmeta [flags] <cask-file> [<cask-file>...]",
		Short: "Annotate Homebrew font casks with Google Fonts language metadata",
		Long: `fontmeta finds the Google Fonts family a cask installs, fetches the
family's METADATA.pb from the google/fonts repository and prepends a
comment block listing its language subsets.

Files that already carry the block are left untouched, as are casks that
do not reference a Google Fonts (ofl) family.`,
		Example: `  fontmeta Casks/font-noto-sans-jp.rb
  fontmeta --dry-run Casks/font-*.rb
  fontmeta --metadata-url "https://mirror.example.com/ofl/{font_id}/METADATA.pb" cask.rb`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeCaskFiles,
		SilenceUsage:      true,
		SilenceErrors:     true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("timeout") && flags.timeout < 0 {
				return fmerrors.New(fmerrors.ErrCodeInvalidInput, "--timeout must not be negative")
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runAnnotate(ctx, args, flags, cmd.Flags().Changed("timeout"))
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the block instead of writing it")
	f.BoolVar(&flags.refresh, "refresh", false, "bypass cached metadata")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the metadata cache")
	f.BoolVar(&flags.strict, "strict", false, "exit non-zero when a file cannot be written")
	f.StringVar(&flags.metadataURL, "metadata-url", "", "METADATA.pb URL template containing "+googlefonts.Placeholder)
	f.DurationVar(&flags.timeout, "timeout", 0, "HTTP timeout (default from config, 10s)")

	return cmd
}

// runAnnotate processes each path in order. Unreadable paths are reported
// before any file is touched.
func (c *CLI) runAnnotate(ctx context.Context, paths []string, flags annotateFlags, timeoutSet bool) error {
	for _, p := range paths {
		if err := pipeline.CheckReadable(p); err != nil {
			return err
		}
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.metadataURL != "" {
		cfg.Metadata.URLTemplate = flags.metadataURL
	}
	if timeoutSet {
		cfg.Metadata.Timeout = flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, closeFn, err := c.newRunner(ctx, cfg, flags, len(paths) > 1)
	if err != nil {
		return err
	}
	defer closeFn()

	stats := newRunStats()
	stats.register()
	defer observability.Reset()

	prog := newProgress(c.Logger)
	reports := make([]*pipeline.Report, 0, len(paths))
	for _, p := range paths {
		report, err := runner.Run(ctx, p, pipeline.Options{Refresh: flags.refresh})
		if err != nil {
			return err
		}
		printReport(report)
		reports = append(reports, report)
	}

	if len(paths) > 1 {
		fmt.Println()
		fmt.Println(renderSummary(reports, shouldStyle(os.Stdout)))
		prog.done(fmt.Sprintf("processed %d files", len(paths)), stats.keyvals()...)
	}

	if flags.strict {
		if n := countFailed(reports); n > 0 {
			return fmerrors.New(fmerrors.ErrCodeIO, "%d file(s) could not be annotated", n)
		}
	}
	return nil
}

// newRunner wires the cache, fetcher and annotator for one invocation. The
// returned func releases the cache backend.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, flags annotateFlags, batch bool) (*pipeline.Runner, func(), error) {
	backend, err := newCache(ctx, cfg, flags.noCache)
	if err != nil {
		return nil, nil, err
	}
	if batch && !flags.noCache {
		// Families shared by several casks are parsed once per run.
		backend = cache.NewLayered(cache.NewMemoryCache(cache.DefaultMemoryEntries, cfg.Cache.TTL), backend)
	}

	client := googlefonts.NewClient(backend, googlefonts.Options{
		URLTemplate: cfg.Metadata.URLTemplate,
		CacheTTL:    cfg.Cache.TTL,
		Timeout:     cfg.Metadata.Timeout,
		Retries:     cfg.Metadata.Retries,
		RetryDelay:  cfg.Metadata.RetryDelay,
		UserAgent:   userAgent(cfg),
	})
	annotator := cask.NewAnnotator(cask.AnnotatorOptions{
		Style:       cfg.Annotate.Style,
		Source:      cfg.Annotate.Source,
		DryRun:      flags.dryRun,
		LockTimeout: cfg.Annotate.LockTimeout,
	})

	closeFn := func() {
		if err := backend.Close(); err != nil {
			c.Logger.Debug("closing cache", "err", err)
		}
	}
	return pipeline.NewRunner(client, annotator, c.Logger), closeFn, nil
}

func userAgent(cfg *config.Config) string {
	if cfg.Metadata.UserAgent != "" {
		return cfg.Metadata.UserAgent
	}
	return buildinfo.UserAgent(appName)
}

// printReport prints the one-line outcome for a file.
func printReport(r *pipeline.Report) {
	switch r.Outcome {
	case pipeline.OutcomeWritten:
		printSuccess("%s", r.Path)
		printDetail("%s · %s", r.FontID, joinSubsets(r.Subsets))
	case pipeline.OutcomeDryRun:
		printInfo("%s (dry run)", r.Path)
		fmt.Print(r.Block)
	case pipeline.OutcomeAlreadyAnnotated:
		printInfo("%s already annotated", r.Path)
	case pipeline.OutcomeNotApplicable:
		printInfo("%s is not a Google Font (ofl), skipped", r.Path)
	case pipeline.OutcomeNoSubsets:
		printWarning("%s: no languages found for %s", r.Path, r.FontID)
	case pipeline.OutcomeFetchFailed:
		printWarning("%s: could not fetch metadata for %s", r.Path, r.FontID)
		printDetail("%s", fmerrors.UserMessage(r.Err))
	case pipeline.OutcomeWriteFailed:
		printError("%s: %s", r.Path, fmerrors.UserMessage(r.Err))
	}
}

func countFailed(reports []*pipeline.Report) int {
	n := 0
	for _, r := range reports {
		if r.Failed() {
			n++
		}
	}
	return n
}
