// Package cask annotates Homebrew cask files with font metadata.
//
// The annotation is a comment block placed at the very top of the file:
//
//	# --- BEGIN CUSTOM METADATA ---
//	# meta:
//	#   language: ["japanese", "latin"]
//	#   style: "auto-detect-pending" # style is resolved separately
//	#   source: "google-fonts"
//	#   font_id: "notosansjp"
//	# --- END CUSTOM METADATA ---
//
// followed by a blank line and the original content, byte for byte.
//
// A file that already contains [BeginMarker] anywhere is never touched, which
// makes repeated runs idempotent. Rewrites go through a temporary file in the
// same directory and a rename, so an interrupted write leaves the original
// intact. An advisory lock keyed by the file's absolute path serializes
// concurrent fontmeta processes working on the same cask.
package cask
