package pdfmark

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var xmpWatermarkPattern = regexp.MustCompile(`(?s)<md2pdf:watermark>(.*?)</md2pdf:watermark>`)

// Extract recovers the watermark embedded in the PDF at path. The document
// information dictionary is checked first, then the XMP packet. Returns
// ErrWatermarkNotFound when neither location holds a value.
func Extract(path string) (string, error) {
	if v, ok := extractViaReader(path); ok {
		return v, nil
	}

	// The reader rejects some structurally unusual but valid files, so fall
	// back to scanning the raw bytes in the same order.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	if v, ok := scanInfoValue(data); ok {
		return v, nil
	}
	if m := xmpWatermarkPattern.FindAllSubmatch(data, -1); len(m) > 0 {
		return unescapeXML(string(m[len(m)-1][1])), nil
	}
	return "", ErrWatermarkNotFound
}

// extractViaReader reads the information dictionary through the pdf
// library. The library panics on malformed structures, so the whole probe
// is recover-guarded and failure just means trying the raw scan.
func extractViaReader(path string) (value string, ok bool) {
	defer func() {
		if recover() != nil {
			value, ok = "", false
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	v := r.Trailer().Key("Info").Key(InfoKey)
	if v.Kind() != pdf.String {
		return "", false
	}
	// RawString returns the literal bytes as written, which is the UTF-8
	// watermark itself; Text would reinterpret them as PDFDocEncoding.
	return v.RawString(), true
}

// scanInfoValue finds the last watermark entry in any information
// dictionary, reading the parenthesized literal with escape handling.
func scanInfoValue(data []byte) (string, bool) {
	s := string(data)
	marker := "/" + InfoKey

	for idx := strings.LastIndex(s, marker); idx != -1; idx = strings.LastIndex(s[:idx], marker) {
		rest := s[idx+len(marker):]
		trimmed := strings.TrimLeft(rest, " \r\n\t")
		if !strings.HasPrefix(trimmed, "(") {
			continue
		}
		if v, ok := readLiteralString(trimmed); ok {
			return v, true
		}
	}
	return "", false
}

// readLiteralString parses a PDF literal string starting at the opening
// parenthesis, honoring backslash escapes and balanced nesting.
func readLiteralString(s string) (string, bool) {
	var buf strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return "", false
			}
			i++
			switch s[i] {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			default:
				buf.WriteByte(s[i])
			}
		case '(':
			depth++
			if depth > 1 {
				buf.WriteByte(c)
			}
		case ')':
			depth--
			if depth == 0 {
				return buf.String(), true
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	return "", false
}

func unescapeXML(s string) string {
	r := strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&amp;", "&")
	return r.Replace(s)
}
