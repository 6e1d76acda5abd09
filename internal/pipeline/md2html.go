package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates Markdown to HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// crlfOrCR normalizes Windows and old-Mac line endings.
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter converts Markdown to an HTML fragment using goldmark.
// The extension set is fixed: GFM (tables, strikethrough, autolinks, task
// lists), definition lists, footnotes, and smart typography, with auto
// heading IDs and attribute lists enabled in the parser. Code fences are
// emitted as plain <pre><code class="language-X"> blocks; highlighting is
// a separate pass over the generated HTML.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// Compile-time check.
var _ HTMLConverter = (*GoldmarkConverter)(nil)

// NewGoldmarkConverter creates a GoldmarkConverter with the full extension set.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			extension.Typographer, // Curly quotes, dashes, ellipses
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // Required for TOC anchors and permalinks
			parser.WithAttribute(),     // {#id .class} attribute lists on blocks
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			html.WithXHTML(),     // Self-closing tags
			// WithUnsafe() intentionally NOT used. Raw HTML in the source
			// is dropped rather than passed through.
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML body fragment. Line endings
// are normalized to \n before parsing. Goldmark is tolerant of malformed
// input (unterminated fences, broken links) and emits best-effort HTML, so
// the only failure modes are renderer errors and context cancellation.
// Supports cancellation via goroutine + select since goldmark does not take
// a context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content = crlfOrCR.ReplaceAllString(content, "\n")

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
