// Package googlefonts reads family metadata from the google/fonts repository.
//
// # Overview
//
// Homebrew font casks for Google Fonts families point at the repository, e.g.
//
//	url "https://github.com/google/fonts/raw/main/ofl/notosansjp/NotoSansJP%5Bwght%5D.ttf"
//
// [ExtractFontID] pulls the family directory ("notosansjp") out of such text.
// [Client.FetchSubsets] downloads ofl/<id>/METADATA.pb and returns the values
// of its subsets lines, deduplicated and sorted.
//
// # Usage
//
//	client := googlefonts.NewClient(backend, googlefonts.Options{CacheTTL: 24 * time.Hour})
//	id, ok := googlefonts.ExtractFontID(content)
//	if !ok {
//	    return // not a Google Fonts cask
//	}
//	subsets, err := client.FetchSubsets(ctx, id, false)
//
// # METADATA.pb
//
// The file is a protobuf text-format message, but it is not parsed as one.
// Only lines of the form
//
//	subsets: "japanese"
//
// are read; everything else is ignored. See [ParseSubsets].
//
// # URL Template
//
// The fetch URL is built from a template containing the {font_id}
// placeholder, passed in [Options]. [DefaultURLTemplate] points at the main
// branch on raw.githubusercontent.com; mirrors or pinned commits can be
// configured instead.
package googlefonts
