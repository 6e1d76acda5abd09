package pipeline

import (
	"html"
	"strings"
)

// DocumentParts holds everything the assembler folds into one document.
type DocumentParts struct {
	Title        string // document title, usually the input file stem
	Body         string // processed HTML body fragment
	StyleCSS     string // composed theme + style payload
	HighlightCSS string // chroma token classes
	HeaderHTML   string // running header fragment, may be empty
	HeaderCSS    string // running header layout, may be empty
}

// Assemble produces one complete HTML document: a head with all CSS in a
// single style block, and a body with the optional header followed by the
// content container. Pure string composition, no I/O.
func Assemble(p DocumentParts) string {
	css := sanitizeCSS(joinCSS(p.StyleCSS, p.HighlightCSS, p.HeaderCSS))

	contentClass := "content"
	if p.HeaderHTML != "" {
		contentClass = "content has-header"
	}

	var buf strings.Builder
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	buf.WriteString(html.EscapeString(p.Title))
	buf.WriteString("</title>\n<style>\n")
	buf.WriteString(css)
	buf.WriteString("\n</style>\n</head>\n<body>\n")
	if p.HeaderHTML != "" {
		buf.WriteString(p.HeaderHTML)
		buf.WriteString("\n")
	}
	buf.WriteString(`<div class="`)
	buf.WriteString(contentClass)
	buf.WriteString("\">\n")
	buf.WriteString(p.Body)
	buf.WriteString("\n</div>\n</body>\n</html>\n")
	return buf.String()
}

// joinCSS concatenates non-empty CSS payloads with blank-line separators.
func joinCSS(payloads ...string) string {
	var parts []string
	for _, p := range payloads {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

// sanitizeCSS escapes sequences that could close the <style> block early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
