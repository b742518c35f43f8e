package cask

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/matzehuels/fontmeta/pkg/cache"
	"github.com/matzehuels/fontmeta/pkg/errors"
)

// DefaultLockTimeout bounds how long Annotate waits for another process.
const DefaultLockTimeout = 5 * time.Second

const lockRetryDelay = 50 * time.Millisecond

// Status is the outcome of an [Annotator.Annotate] call.
type Status int

const (
	StatusWritten Status = iota
	StatusAlreadyAnnotated
	StatusNoSubsets
	StatusDryRun
)

// String returns the status name used in logs and hooks.
func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusAlreadyAnnotated:
		return "already-annotated"
	case StatusNoSubsets:
		return "no-subsets"
	case StatusDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// Result describes what Annotate did.
type Result struct {
	Status Status
	Path   string // Resolved path that was (or would have been) rewritten
	Block  string // Generated block; empty for StatusNoSubsets and StatusAlreadyAnnotated
}

// AnnotatorOptions configures an [Annotator].
type AnnotatorOptions struct {
	Style       string        // Empty uses DefaultStyle
	Source      string        // Empty uses DefaultSource
	DryRun      bool          // Build the block but never write
	LockTimeout time.Duration // 0 uses DefaultLockTimeout
	LockDir     string        // Directory for lock files; empty uses os.TempDir()
}

// Annotator prepends metadata blocks to cask files.
type Annotator struct {
	style       string
	source      string
	dryRun      bool
	lockTimeout time.Duration
	lockDir     string
}

// NewAnnotator creates an Annotator with opts applied over the defaults.
func NewAnnotator(opts AnnotatorOptions) *Annotator {
	a := &Annotator{
		style:       opts.Style,
		source:      opts.Source,
		dryRun:      opts.DryRun,
		lockTimeout: opts.LockTimeout,
		lockDir:     opts.LockDir,
	}
	if a.style == "" {
		a.style = DefaultStyle
	}
	if a.source == "" {
		a.source = DefaultSource
	}
	if a.lockTimeout <= 0 {
		a.lockTimeout = DefaultLockTimeout
	}
	if a.lockDir == "" {
		a.lockDir = os.TempDir()
	}
	return a
}

// Annotate prepends a block describing subsets and fontID to the file at path.
//
// It is a no-op returning StatusNoSubsets when subsets is empty and
// StatusAlreadyAnnotated when the file already contains [BeginMarker].
// Failures to lock, read or write the file are returned as *errors.Error with
// ErrCodeLocked or ErrCodeIO; the file is left unchanged in every error case.
func (a *Annotator) Annotate(ctx context.Context, path string, subsets []string, fontID string) (*Result, error) {
	if len(subsets) == 0 {
		return &Result{Status: StatusNoSubsets, Path: path}, nil
	}

	resolved, err := resolve(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "resolve %s", path)
	}

	unlock, err := a.lock(ctx, resolved)
	if err != nil {
		return nil, err
	}
	defer unlock()

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "stat %s", path)
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	if HasMarker(content) {
		return &Result{Status: StatusAlreadyAnnotated, Path: resolved}, nil
	}

	block := MetadataBlock(Metadata{
		Languages: subsets,
		Style:     a.style,
		Source:    a.source,
		FontID:    fontID,
	})
	if a.dryRun {
		return &Result{Status: StatusDryRun, Path: resolved, Block: block}, nil
	}

	data := make([]byte, 0, len(block)+len(content))
	data = append(data, block...)
	data = append(data, content...)
	if err := writeAtomic(resolved, data, info.Mode().Perm()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return &Result{Status: StatusWritten, Path: resolved, Block: block}, nil
}

// lock takes the advisory lock for path and returns its release function.
func (a *Annotator) lock(ctx context.Context, path string) (func(), error) {
	fl := flock.New(a.lockPath(path))

	lockCtx, cancel := context.WithTimeout(ctx, a.lockTimeout)
	defer cancel()

	ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeLocked, err, "lock %s", path)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeLocked, "%s is locked by another process", path)
	}
	return func() { _ = fl.Unlock() }, nil
}

func (a *Annotator) lockPath(path string) string {
	return filepath.Join(a.lockDir, "fontmeta-"+cache.ShortHash(path, 16)+".lock")
}

// resolve returns the absolute, symlink-free path so the rename replaces the
// real file rather than the link.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// writeAtomic replaces path with data via a temp file in the same directory.
func writeAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
