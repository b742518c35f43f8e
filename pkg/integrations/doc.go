// Package integrations provides HTTP clients for remote metadata registries.
//
// # Overview
//
// Registry-specific clients live in subpackages:
//
//   - [googlefonts]: family metadata from the google/fonts repository
//
// # Shared Infrastructure
//
// The [Client] type provides the HTTP plumbing every registry client embeds:
//
//   - GET requests with a bounded timeout
//   - status mapping to [ErrNotFound] and [ErrNetwork]
//   - optional retry of transient failures via [cache.Retry]
//   - response caching through any [cache.Cache] backend
//
// # Adding a New Registry
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Embed *[Client] built with [NewClient] and a registry namespace
//  3. Parse responses into plain Go values and cache those, not raw bodies
//
// [googlefonts]: github.com/matzehuels/fontmeta/pkg/integrations/googlefonts
// [cache.Retry]: github.com/matzehuels/fontmeta/pkg/cache.Retry
// [cache.Cache]: github.com/matzehuels/fontmeta/pkg/cache.Cache
package integrations
