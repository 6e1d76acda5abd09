// Package emoji replaces emoji grapheme clusters in HTML text with inline
// SVG image references. Assets are resolved by probing a local directory
// with an ordered list of codepoint filename candidates, falling back to a
// CDN URL when nothing matches locally.
package emoji
