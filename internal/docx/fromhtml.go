package docx

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FromHTML parses an assembled HTML document and maps its block elements
// to paragraphs: heading level N becomes style "Heading N", list items
// become bulleted or numbered list paragraphs, blockquotes the quote
// style, and pre blocks fixed-width no-spacing paragraphs. Script and
// style elements are stripped first; everything else unsupported is
// silently skipped.
func FromHTML(htmlContent string) ([]Paragraph, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find("script, style, nav.toc").Remove()

	var paragraphs []Paragraph
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		node := s.Nodes[0]
		switch node.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			paragraphs = append(paragraphs, Paragraph{
				Style: "Heading" + node.Data[1:],
				Runs:  inlineRuns(node, Run{}),
			})
		case "p":
			// Paragraphs inside list items and blockquotes are emitted by
			// their parents.
			if s.ParentsFiltered("li, blockquote").Length() > 0 {
				return
			}
			if runs := inlineRuns(node, Run{}); hasText(runs) {
				paragraphs = append(paragraphs, Paragraph{Runs: runs})
			}
		case "li":
			numID := NumBullet
			if s.Parent().Is("ol") {
				numID = NumDecimal
			}
			paragraphs = append(paragraphs, Paragraph{
				Style: "ListParagraph",
				NumID: numID,
				Runs:  inlineRuns(node, Run{}),
			})
		case "blockquote":
			if s.ParentsFiltered("blockquote").Length() > 0 {
				return
			}
			if runs := inlineRuns(node, Run{}); hasText(runs) {
				paragraphs = append(paragraphs, Paragraph{Style: "Quote", Runs: runs})
			}
		case "pre":
			for _, line := range strings.Split(strings.TrimRight(s.Text(), "\n"), "\n") {
				paragraphs = append(paragraphs, Paragraph{
					Style: "NoSpacing",
					Runs:  []Run{{Text: line, Mono: true}},
				})
			}
		}
	})

	return paragraphs, nil
}

// inlineRuns flattens the inline content of a block element into formatted
// runs. Nested pre blocks are skipped since the pre case handles them, and
// emoji images contribute their alt text.
func inlineRuns(n *html.Node, current Run) []Run {
	var runs []Run
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if c.Data != "" {
				r := current
				r.Text = c.Data
				runs = append(runs, r)
			}
		case html.ElementNode:
			next := current
			switch c.Data {
			case "strong", "b":
				next.Bold = true
			case "em", "i":
				next.Italic = true
			case "code":
				next.Mono = true
			case "pre", "ul", "ol":
				// Emitted as their own paragraphs by the block walk
				continue
			case "img":
				if alt := attrValue(c, "alt"); alt != "" {
					r := current
					r.Text = alt
					runs = append(runs, r)
				}
				continue
			case "br":
				r := current
				r.Text = " "
				runs = append(runs, r)
				continue
			}
			runs = append(runs, inlineRuns(c, next)...)
		}
	}
	return runs
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasText(runs []Run) bool {
	for _, r := range runs {
		if strings.TrimSpace(r.Text) != "" {
			return true
		}
	}
	return false
}
