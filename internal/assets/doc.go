// Package assets implements style and theme discovery and composition.
//
// Styles control typography and layout; themes control the color palette.
// Both are plain CSS files discovered from an embedded default set and,
// optionally, from a filesystem overlay directory whose entries take
// precedence over the embedded ones.
//
// Discovery is lazy and cached for the lifetime of a Registry. The caches
// follow a populate-once-then-read pattern and are safe for concurrent use.
// Metadata (display name, description, font/color variables) is extracted
// from each file on a best-effort basis: a file that yields no metadata
// still registers under defaults derived from its name.
package assets
