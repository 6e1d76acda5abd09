// Package pipeline implements the HTML production stages of a conversion:
// Markdown parsing, code block highlighting, table of contents injection,
// relative path rewriting, and final document assembly. Every stage is a
// pure string transform so stages can be tested and reordered independently.
package pipeline
