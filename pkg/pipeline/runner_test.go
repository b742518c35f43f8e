package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/fontmeta/pkg/cache"
	"github.com/matzehuels/fontmeta/pkg/cask"
	fmerrors "github.com/matzehuels/fontmeta/pkg/errors"
	"github.com/matzehuels/fontmeta/pkg/integrations"
	"github.com/matzehuels/fontmeta/pkg/integrations/googlefonts"
)

const notoCask = `cask "font-noto-sans-jp" do
  version :latest
  sha256 :no_check

  url "https://github.com/google/fonts/raw/main/ofl/notosansjp/NotoSansJP%5Bwght%5D.ttf"
  name "Noto Sans JP"

  font "NotoSansJP[wght].ttf"
end
`

const firaCask = `cask "font-fira-code" do
  url "https://github.com/tonsky/FiraCode/releases/download/6.2/Fira_Code_v6.2.zip"
end
`

type fakeFetcher struct {
	family *googlefonts.Family
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, fontID string, refresh bool) (*googlefonts.Family, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	fam := *f.family
	fam.ID = fontID
	return &fam, nil
}

type failingAnnotator struct{ err error }

func (a failingAnnotator) Annotate(context.Context, string, []string, string) (*cask.Result, error) {
	return nil, a.err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cask.rb")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func testAnnotator(t *testing.T) *cask.Annotator {
	return cask.NewAnnotator(cask.AnnotatorOptions{LockDir: t.TempDir()})
}

func TestRun_Written(t *testing.T) {
	path := writeFile(t, notoCask)
	f := &fakeFetcher{family: &googlefonts.Family{Subsets: []string{"japanese", "latin"}}}
	r := NewRunner(f, testAnnotator(t), quietLogger())

	report, err := r.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Outcome != OutcomeWritten {
		t.Fatalf("Outcome = %v, want annotated", report.Outcome)
	}
	if report.FontID != "notosansjp" {
		t.Errorf("FontID = %q", report.FontID)
	}
	if report.RunID == "" {
		t.Error("RunID should be set")
	}
	if report.Failed() {
		t.Error("written report should not be failed")
	}

	got, _ := os.ReadFile(path)
	if string(got) != report.Block+notoCask {
		t.Errorf("file =\n%s", got)
	}
	if !strings.Contains(report.Block, `#   language: ["japanese", "latin"]`) {
		t.Errorf("block = %s", report.Block)
	}
}

func TestRun_NotApplicable(t *testing.T) {
	path := writeFile(t, firaCask)
	f := &fakeFetcher{family: &googlefonts.Family{Subsets: []string{"latin"}}}
	r := NewRunner(f, testAnnotator(t), quietLogger())

	report, err := r.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Outcome != OutcomeNotApplicable {
		t.Errorf("Outcome = %v", report.Outcome)
	}
	if f.calls != 0 {
		t.Error("fetcher should not be called")
	}
	got, _ := os.ReadFile(path)
	if string(got) != firaCask {
		t.Error("file must not change")
	}
}

func TestRun_NoSubsets(t *testing.T) {
	path := writeFile(t, notoCask)
	f := &fakeFetcher{family: &googlefonts.Family{}}
	r := NewRunner(f, testAnnotator(t), quietLogger())

	report, err := r.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcome != OutcomeNoSubsets {
		t.Errorf("Outcome = %v", report.Outcome)
	}
	got, _ := os.ReadFile(path)
	if string(got) != notoCask {
		t.Error("file must not change")
	}
}

func TestRun_FetchFailed(t *testing.T) {
	path := writeFile(t, notoCask)
	f := &fakeFetcher{err: integrations.ErrNotFound}
	r := NewRunner(f, testAnnotator(t), quietLogger())

	report, err := r.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("fetch failure must not be returned: %v", err)
	}
	if report.Outcome != OutcomeFetchFailed {
		t.Errorf("Outcome = %v", report.Outcome)
	}
	if !errors.Is(report.Err, integrations.ErrNotFound) {
		t.Errorf("Err = %v", report.Err)
	}
	if report.Failed() {
		t.Error("fetch failure is not a file failure")
	}
}

func TestRun_WriteFailed(t *testing.T) {
	path := writeFile(t, notoCask)
	f := &fakeFetcher{family: &googlefonts.Family{Subsets: []string{"latin"}}}
	ioErr := fmerrors.New(fmerrors.ErrCodeIO, "disk full")
	r := NewRunner(f, failingAnnotator{err: ioErr}, quietLogger())

	report, err := r.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("write failure must not be returned: %v", err)
	}
	if report.Outcome != OutcomeWriteFailed || !report.Failed() {
		t.Errorf("Outcome = %v, Failed = %v", report.Outcome, report.Failed())
	}
}

func TestRun_Cancelled(t *testing.T) {
	path := writeFile(t, notoCask)
	f := &fakeFetcher{err: context.Canceled}
	r := NewRunner(f, testAnnotator(t), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, path, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_UnreadableFile(t *testing.T) {
	r := NewRunner(&fakeFetcher{}, testAnnotator(t), quietLogger())

	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing.rb"), Options{})
	if !fmerrors.Is(err, fmerrors.ErrCodeFileNotFound) {
		t.Errorf("Run() error = %v, want FILE_NOT_FOUND", err)
	}
	if !fmerrors.IsUsage(err) {
		t.Error("missing file should be a usage error")
	}
}

func TestCheckReadable(t *testing.T) {
	file := writeFile(t, "x")
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		code fmerrors.Code
	}{
		{"regular file", file, ""},
		{"missing", filepath.Join(dir, "nope.rb"), fmerrors.ErrCodeFileNotFound},
		{"directory", dir, fmerrors.ErrCodeInvalidPath},
		{"empty", "", fmerrors.ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReadable(tt.path)
			if got := fmerrors.GetCode(err); got != tt.code {
				t.Errorf("CheckReadable() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	for o := OutcomeNotApplicable; o <= OutcomeWriteFailed; o++ {
		if o.String() == "unknown" {
			t.Errorf("Outcome(%d) has no name", o)
		}
	}
	if Outcome(42).String() != "unknown" {
		t.Error("out of range outcome should be unknown")
	}
}

// End to end against a fake registry: the second run must not rewrite.
func TestRun_Idempotent(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("subsets: \"latin\"\nsubsets: \"japanese\"\nsubsets: \"latin\"\n"))
	}))
	defer server.Close()

	client := googlefonts.NewClient(cache.NewNullCache(), googlefonts.Options{
		URLTemplate: server.URL + "/ofl/{font_id}/METADATA.pb",
	})
	path := writeFile(t, notoCask)
	r := NewRunner(client, testAnnotator(t), quietLogger())
	ctx := context.Background()

	first, err := r.Run(ctx, path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Outcome != OutcomeWritten {
		t.Fatalf("first Outcome = %v", first.Outcome)
	}
	if diff := cmp.Diff([]string{"japanese", "latin"}, first.Subsets); diff != "" {
		t.Errorf("Subsets mismatch (-want +got):\n%s", diff)
	}
	after1, _ := os.ReadFile(path)

	second, err := r.Run(ctx, path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if second.Outcome != OutcomeAlreadyAnnotated {
		t.Errorf("second Outcome = %v", second.Outcome)
	}
	after2, _ := os.ReadFile(path)
	if !bytes.Equal(after1, after2) {
		t.Error("second run changed the file")
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2 without cache", requests.Load())
	}
}

func TestRun_LogsRunID(t *testing.T) {
	var buf bytes.Buffer
	path := writeFile(t, firaCask)
	r := NewRunner(&fakeFetcher{}, testAnnotator(t), log.New(&buf))

	report, err := r.Run(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), report.RunID[:8]) {
		t.Errorf("log output should carry the run id: %s", buf.String())
	}
}
