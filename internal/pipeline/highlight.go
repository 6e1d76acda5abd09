package pipeline

import (
	"context"
	"html"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightContainerClass wraps every highlighted block so the per-token
// classes emitted by chroma render consistently under every theme.
const HighlightContainerClass = "codehilite"

// Precompiled patterns over goldmark's fenced-code output shape.
var (
	fencedBlockPattern = regexp.MustCompile(`(?s)<pre><code class="language-([^"]+)">(.*?)</code></pre>`)
	innerPrePattern    = regexp.MustCompile(`(?s)<pre[^>]*>(.*?)</pre>`)
)

// Highlighter abstracts the code highlighting pass.
type Highlighter interface {
	HighlightBlocks(ctx context.Context, htmlContent string) string
	CSS() string
}

// CodeHighlighter colorizes fenced code blocks in already-generated HTML.
// Blocks without a language class are left untouched; unknown languages
// fall back to the plain-text lexer. The pass never fails: a block that
// cannot be tokenized passes through unchanged.
type CodeHighlighter struct {
	formatter *chromahtml.Formatter
	styleName string
}

var _ Highlighter = (*CodeHighlighter)(nil)

// NewCodeHighlighter creates a CodeHighlighter emitting class-based markup
// so token colors live in the stylesheet instead of inline attributes.
func NewCodeHighlighter() *CodeHighlighter {
	return &CodeHighlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
		styleName: "github",
	}
}

// HighlightBlocks rewrites every <pre><code class="language-X"> block with
// chroma token markup wrapped in the fixed container class.
func (h *CodeHighlighter) HighlightBlocks(ctx context.Context, htmlContent string) string {
	if ctx.Err() != nil {
		return htmlContent
	}

	return fencedBlockPattern.ReplaceAllStringFunc(htmlContent, func(block string) string {
		m := fencedBlockPattern.FindStringSubmatch(block)
		if m == nil {
			return block
		}
		lang := m[1]
		code := html.UnescapeString(m[2])

		highlighted, ok := h.highlight(lang, code)
		if !ok {
			return block
		}
		return highlighted
	})
}

// highlight tokenizes code and returns the wrapped container markup.
func (h *CodeHighlighter) highlight(lang, code string) (string, bool) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, styles.Get(h.styleName), iterator); err != nil {
		return "", false
	}

	// Keep only the token markup; the wrapper is rebuilt with fixed classes.
	inner := buf.String()
	if m := innerPrePattern.FindStringSubmatch(inner); m != nil {
		inner = m[1]
	}

	return `<div class="` + HighlightContainerClass + `"><pre class="chroma">` + inner + `</pre></div>`, true
}

// CSS returns the stylesheet for the highlighter's token classes.
func (h *CodeHighlighter) CSS() string {
	var buf strings.Builder
	if err := h.formatter.WriteCSS(&buf, styles.Get(h.styleName)); err != nil {
		return ""
	}
	return buf.String()
}
