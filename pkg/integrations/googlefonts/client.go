package googlefonts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/fontmeta/pkg/cache"
	"github.com/matzehuels/fontmeta/pkg/errors"
	"github.com/matzehuels/fontmeta/pkg/integrations"
)

const (
	// Placeholder is replaced with the font id in the URL template.
	Placeholder = "{font_id}"

	// DefaultURLTemplate locates METADATA.pb for an OFL-licensed family.
	DefaultURLTemplate = "https://raw.githubusercontent.com/google/fonts/main/ofl/" + Placeholder + "/METADATA.pb"

	namespace    = "googlefonts:"
	subsetPrefix = "subsets:"
)

// fontIDPattern matches repository URLs such as
// github.com/google/fonts/raw/main/ofl/notosansjp and captures the family.
var fontIDPattern = regexp.MustCompile(`github\.com/google/fonts/.*?/ofl/([a-zA-Z0-9_-]+)`)

// ExtractFontID returns the family directory of the first google/fonts OFL
// URL in content. ok is false when content does not reference one; that is
// an expected outcome, not an error.
func ExtractFontID(content string) (id string, ok bool) {
	m := fontIDPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Options configures a [Client].
type Options struct {
	URLTemplate string        // Must contain Placeholder; empty uses DefaultURLTemplate
	CacheTTL    time.Duration // How long parsed subsets are cached
	Timeout     time.Duration // Per-request timeout
	Retries     int           // Extra attempts on network errors and 5xx
	RetryDelay  time.Duration // Initial retry backoff
	UserAgent   string        // Optional User-Agent header
}

// Family holds what was learned about one font family.
type Family struct {
	ID      string   // Family directory under ofl/
	URL     string   // METADATA.pb location that was (or would have been) fetched
	Subsets []string // Sorted, deduplicated subset names; empty if none
	Cached  bool     // Whether Subsets came from the cache
}

// Client fetches METADATA.pb files. It embeds the shared registry client for
// caching and retries.
type Client struct {
	*integrations.Client
	urlTemplate string
}

// NewClient creates a client caching parsed results in backend.
// The template is not validated here; see [errors.ValidateURLTemplate].
func NewClient(backend cache.Cache, opts Options) *Client {
	tmpl := opts.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	var headers map[string]string
	if opts.UserAgent != "" {
		headers = map[string]string{"User-Agent": opts.UserAgent}
	}
	return &Client{
		Client: integrations.NewClient(backend, integrations.Options{
			Namespace:  namespace,
			CacheTTL:   opts.CacheTTL,
			Timeout:    opts.Timeout,
			Retries:    opts.Retries,
			RetryDelay: opts.RetryDelay,
			Headers:    headers,
		}),
		urlTemplate: tmpl,
	}
}

// URLTemplate returns the template the client was built with.
func (c *Client) URLTemplate() string { return c.urlTemplate }

// MetadataURL substitutes fontID into the URL template.
func (c *Client) MetadataURL(fontID string) string {
	return strings.ReplaceAll(c.urlTemplate, Placeholder, url.PathEscape(fontID))
}

// FetchSubsets returns the sorted, deduplicated subsets declared for fontID.
//
// A family without subsets lines yields an empty slice and no error. Any
// non-2xx response is an error: [integrations.ErrNotFound] for 404,
// [integrations.ErrNetwork] otherwise.
func (c *Client) FetchSubsets(ctx context.Context, fontID string, refresh bool) ([]string, error) {
	fam, err := c.Fetch(ctx, fontID, refresh)
	if err != nil {
		return nil, err
	}
	return fam.Subsets, nil
}

// Fetch is like [Client.FetchSubsets] but also reports the URL and whether
// the cache answered.
//
// If refresh is true, the cache is bypassed and a fresh request is made.
func (c *Client) Fetch(ctx context.Context, fontID string, refresh bool) (*Family, error) {
	if err := errors.ValidateFontID(fontID); err != nil {
		return nil, err
	}
	fam := &Family{ID: fontID, URL: c.MetadataURL(fontID)}

	var subsets []string
	hit, err := c.Cached(ctx, c.cacheKey(fontID), refresh, &subsets, func() error {
		body, err := c.GetText(ctx, fam.URL)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", fam.URL, err)
		}
		subsets, err = ParseSubsets(strings.NewReader(body))
		return err
	})
	if err != nil {
		return nil, err
	}
	fam.Subsets = subsets
	fam.Cached = hit
	return fam, nil
}

// cacheKey ties entries to the template so switching mirrors does not serve
// results fetched from elsewhere.
func (c *Client) cacheKey(fontID string) string {
	return fontID + "@" + cache.ShortHash(c.urlTemplate, 12)
}

// ParseSubsets collects the quoted value of every line that starts with
// "subsets:" once surrounding whitespace is trimmed. The prefix match is case
// sensitive. Lines without a complete quoted value are skipped: an
// unterminated value (subsets: "latin) and an empty one (subsets: "") yield
// nothing rather than the rest of the line or an empty subset name.
//
// All matching lines are collected; the result is sorted and deduplicated.
func ParseSubsets(r io.Reader) ([]string, error) {
	var subsets []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, subsetPrefix) {
			continue
		}
		if v, ok := quotedValue(line); ok {
			subsets = append(subsets, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	slices.Sort(subsets)
	return slices.Compact(subsets), nil
}

// quotedValue returns the text between the first two double quotes.
func quotedValue(line string) (string, bool) {
	_, rest, ok := strings.Cut(line, `"`)
	if !ok {
		return "", false
	}
	v, _, ok := strings.Cut(rest, `"`)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
