package emoji

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/metalmind/md2doc/internal/fileutil"
)

// DefaultCDNTemplate is the remote fallback for emoji SVG assets. The
// single %s verb receives the first filename candidate.
const DefaultCDNTemplate = "https://twemoji.maxcdn.com/v/latest/svg/%s.svg"

// Resolver substitutes emoji grapheme clusters in HTML with inline image
// elements. A nil Resolver is a no-op, which models the detection
// capability being switched off: HTML passes through unchanged.
type Resolver struct {
	localDir    string
	cdnTemplate string
}

// NewResolver creates a Resolver probing localDir for <codepoints>.svg
// assets before falling back to the CDN. An empty localDir skips the local
// probe. An empty cdnTemplate selects DefaultCDNTemplate.
func NewResolver(localDir, cdnTemplate string) *Resolver {
	if cdnTemplate == "" {
		cdnTemplate = DefaultCDNTemplate
	}
	return &Resolver{localDir: localDir, cdnTemplate: cdnTemplate}
}

// Replace substitutes every emoji grapheme in the text runs of htmlContent
// with an <img> element. Tag markup, including attribute values, is copied
// verbatim so the pass is idempotent: an already-substituted emoji lives
// in an alt attribute and is never touched again.
func (r *Resolver) Replace(ctx context.Context, htmlContent string) string {
	if r == nil || ctx.Err() != nil {
		return htmlContent
	}
	if isASCII(htmlContent) {
		return htmlContent
	}

	var buf strings.Builder
	buf.Grow(len(htmlContent))

	rest := htmlContent
	for {
		open := strings.IndexByte(rest, '<')
		if open == -1 {
			buf.WriteString(r.replaceInText(rest))
			break
		}
		buf.WriteString(r.replaceInText(rest[:open]))

		closing := strings.IndexByte(rest[open:], '>')
		if closing == -1 {
			// Unterminated tag, copy as-is
			buf.WriteString(rest[open:])
			break
		}
		buf.WriteString(rest[open : open+closing+1])
		rest = rest[open+closing+1:]
	}

	return buf.String()
}

// replaceInText substitutes emoji in a plain text run.
func (r *Resolver) replaceInText(text string) string {
	if isASCII(text) {
		return text
	}

	var buf strings.Builder
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		if isEmojiGrapheme(gr.Runes()) {
			buf.WriteString(r.imageTag(gr.Str()))
		} else {
			buf.WriteString(gr.Str())
		}
	}
	return buf.String()
}

// imageTag builds the inline image element for one grapheme cluster.
// Local candidates are probed in order and the first match wins; the CDN
// fallback always uses the first candidate, matching the asset pack's
// canonical naming rather than any particular local spelling.
func (r *Resolver) imageTag(grapheme string) string {
	candidates := Candidates(Codepoints(grapheme))
	if len(candidates) == 0 {
		return grapheme
	}

	src := ""
	if r.localDir != "" {
		for _, c := range candidates {
			path := filepath.Join(r.localDir, c+".svg")
			if fileutil.FileExists(path) {
				src = fileURL(path)
				break
			}
		}
	}
	if src == "" {
		src = fmt.Sprintf(r.cdnTemplate, candidates[0])
	}

	return `<img class="emoji" draggable="false" alt="` + html.EscapeString(grapheme) +
		`" src="` + src + `" style="width:1em;height:1em;vertical-align:-0.15em;margin:0 0.05em;" />`
}

// fileURL converts a local asset path to an absolute file:// URL. The
// rendered document is served from a temporary location, so a relative
// asset directory would not resolve from there.
func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// isASCII is a fast pre-check: emoji are always multi-byte.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
