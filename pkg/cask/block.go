package cask

import (
	"strconv"
	"strings"
)

// Marker lines delimiting the generated block.
const (
	BeginMarker = "# --- BEGIN CUSTOM METADATA ---"
	EndMarker   = "# --- END CUSTOM METADATA ---"
)

// Defaults for the fixed block fields.
const (
	DefaultStyle  = "auto-detect-pending"
	DefaultSource = "google-fonts"
)

// styleNote trails the style field; the value is a placeholder filled in later.
const styleNote = "# style is resolved separately"

// Metadata is the content of one annotation block.
type Metadata struct {
	Languages []string
	Style     string
	Source    string
	FontID    string
}

// MetadataBlock renders m as the comment block, including the trailing blank
// line that separates it from the original content. Languages are written in
// the given order.
func MetadataBlock(m Metadata) string {
	langs := make([]string, len(m.Languages))
	for i, l := range m.Languages {
		langs[i] = strconv.Quote(l)
	}

	var b strings.Builder
	b.WriteString(BeginMarker + "\n")
	b.WriteString("# meta:\n")
	b.WriteString("#   language: [" + strings.Join(langs, ", ") + "]\n")
	b.WriteString("#   style: " + strconv.Quote(m.Style) + " " + styleNote + "\n")
	b.WriteString("#   source: " + strconv.Quote(m.Source) + "\n")
	b.WriteString("#   font_id: " + strconv.Quote(m.FontID) + "\n")
	b.WriteString(EndMarker + "\n")
	b.WriteString("\n")
	return b.String()
}

// HasMarker reports whether content was already annotated.
func HasMarker(content []byte) bool {
	return strings.Contains(string(content), BeginMarker)
}
