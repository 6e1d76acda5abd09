package pipeline

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// TOC depth bounds. H1 is included since single-document conversions
// commonly use H1 for top-level sections.
const (
	tocMinDepth = 1
	tocMaxDepth = 3
)

// tocMarkerPattern matches a paragraph containing only the literal [TOC]
// marker, as goldmark renders it.
var tocMarkerPattern = regexp.MustCompile(`<p>\[TOC\]</p>`)

// headingPattern matches h1-h6 tags with an id attribute.
// Captures: 1=level, 2=id, 3=inner HTML (may contain inline tags)
var headingPattern = regexp.MustCompile(`(?is)<h([1-6])([^>]*\bid="([^"]*)"[^>]*)>(.*?)</h[1-6]>`)

// htmlTagPattern matches HTML tags for stripping from heading text.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// TOCProcessor replaces a [TOC] marker paragraph with a generated table of
// contents and appends a pilcrow permalink anchor to every heading that
// carries an id.
type TOCProcessor struct{}

// NewTOCProcessor creates a TOCProcessor.
func NewTOCProcessor() *TOCProcessor {
	return &TOCProcessor{}
}

// Process runs both TOC passes. The TOC is built before permalinks are
// appended so pilcrows never leak into entry text. Content without a [TOC]
// marker still gets permalinks.
func (p *TOCProcessor) Process(ctx context.Context, htmlContent string) string {
	if ctx.Err() != nil {
		return htmlContent
	}

	if tocMarkerPattern.MatchString(htmlContent) {
		toc := generateTOC(extractHeadings(htmlContent, tocMinDepth, tocMaxDepth))
		htmlContent = tocMarkerPattern.ReplaceAllLiteralString(htmlContent, toc)
	}

	return addPermalinks(htmlContent)
}

// headingInfo is one extracted heading.
type headingInfo struct {
	Level int
	ID    string
	Text  string
}

// stripHTMLTags removes tags, decodes entities, and trims whitespace.
// Decoding is required to avoid double-encoding when the text is escaped
// again for TOC output.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// extractHeadings returns headings between minDepth and maxDepth in
// document order. Headings without IDs are skipped.
func extractHeadings(htmlContent string, minDepth, maxDepth int) []headingInfo {
	matches := headingPattern.FindAllStringSubmatch(htmlContent, -1)

	var headings []headingInfo
	for _, m := range matches {
		level, _ := strconv.Atoi(m[1])
		if level < minDepth || level > maxDepth {
			continue
		}
		headings = append(headings, headingInfo{
			Level: level,
			ID:    m[3],
			Text:  stripHTMLTags(m[4]),
		})
	}
	return headings
}

// numberingState tracks hierarchical numbering for TOC entries. The first
// heading seen defines level 1, and level gaps collapse to direct children
// (H1 followed by H3 numbers as depth 2, not 3).
type numberingState struct {
	counters     [6]int
	minLevelSeen int
	lastLevel    int
}

// next returns the number string and effective depth for a heading level.
func (n *numberingState) next(level int) (numStr string, effectiveDepth int) {
	if n.minLevelSeen == 0 {
		n.minLevelSeen = level
	}

	effectiveDepth = level - n.minLevelSeen + 1
	if effectiveDepth < 1 {
		effectiveDepth = 1
	}
	if n.lastLevel > 0 && effectiveDepth > n.lastLevel+1 {
		effectiveDepth = n.lastLevel + 1
	}

	for i := effectiveDepth; i < 6; i++ {
		n.counters[i] = 0
	}
	n.counters[effectiveDepth-1]++
	n.lastLevel = effectiveDepth

	var parts []string
	for i := 0; i < effectiveDepth; i++ {
		parts = append(parts, strconv.Itoa(n.counters[i]))
	}
	return strings.Join(parts, ".") + ".", effectiveDepth
}

// generateTOC builds the nav markup. Uses <div> entries instead of nested
// lists to avoid list-style conflicts with style CSS. Returns "" for no
// headings so an empty document drops its marker cleanly.
func generateTOC(headings []headingInfo) string {
	if len(headings) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="toc"><h2 class="toc-title">Table of Contents</h2><div class="toc-list">`)

	numbering := &numberingState{}
	for _, h := range headings {
		num, depth := numbering.next(h.Level)
		indent := float64(depth-1) * 1.5

		buf.WriteString(`<div class="toc-item"`)
		if indent > 0 {
			buf.WriteString(fmt.Sprintf(` style="padding-left:%.1fem"`, indent))
		}
		buf.WriteString(`><a href="#`)
		buf.WriteString(html.EscapeString(h.ID))
		buf.WriteString(`">`)
		buf.WriteString(num)
		buf.WriteString(` `)
		buf.WriteString(html.EscapeString(h.Text))
		buf.WriteString(`</a></div>`)
	}

	buf.WriteString(`</div></nav>`)
	return buf.String()
}

// addPermalinks appends a pilcrow anchor to every heading with an id.
func addPermalinks(htmlContent string) string {
	return headingPattern.ReplaceAllStringFunc(htmlContent, func(heading string) string {
		m := headingPattern.FindStringSubmatch(heading)
		if m == nil || m[3] == "" {
			return heading
		}
		anchor := `<a class="headerlink" href="#` + html.EscapeString(m[3]) + `" title="Permanent link">&para;</a>`
		return "<h" + m[1] + m[2] + ">" + m[4] + anchor + "</h" + m[1] + ">"
	})
}
