package pdfmark

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// InfoKey is the document information dictionary key holding the watermark.
const InfoKey = "MD2PDF_Watermark"

// Sentinel errors.
var (
	ErrWatermarkNotFound = errors.New("watermark not found")
	ErrUnsupportedPDF    = errors.New("unsupported PDF structure")
)

var (
	startxrefPattern = regexp.MustCompile(`startxref\s+(\d+)`)
	trailerPattern   = regexp.MustCompile(`(?s)trailer\s*<<(.*?)>>`)
	sizePattern      = regexp.MustCompile(`/Size\s+(\d+)`)
	rootPattern      = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
	metadataRefRe    = regexp.MustCompile(`/Metadata\s+\d+\s+\d+\s+R`)
)

// Embed appends the watermark to the PDF at path as an incremental update:
// a replacement catalog carrying a /Metadata reference, a fresh information
// dictionary with the watermark key, and an XMP metadata stream. The
// original bytes are never rewritten, only appended to. Only classic
// cross-reference tables are supported; files using cross-reference
// streams return ErrUnsupportedPDF.
func Embed(path, watermark string) error {
	if watermark == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading PDF: %w", err)
	}

	layout, err := analyze(data)
	if err != nil {
		return err
	}

	update := buildUpdate(data, layout, watermark)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening PDF for append: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(update); err != nil {
		return fmt.Errorf("appending watermark update: %w", err)
	}
	return nil
}

// fileLayout captures what the incremental update needs from the original.
type fileLayout struct {
	prevXref    int    // offset of the previous xref table
	size        int    // trailer /Size, also the first free object number
	rootNum     int    // catalog object number
	rootGen     int    // catalog generation
	catalogBody string // catalog dictionary contents, braces stripped
}

// analyze locates the last cross-reference table, the trailer, and the
// catalog object of a classic-xref PDF.
func analyze(data []byte) (fileLayout, error) {
	var layout fileLayout

	xrefMatches := startxrefPattern.FindAllSubmatch(data, -1)
	if len(xrefMatches) == 0 {
		return layout, fmt.Errorf("%w: no startxref", ErrUnsupportedPDF)
	}
	layout.prevXref, _ = strconv.Atoi(string(xrefMatches[len(xrefMatches)-1][1]))
	if layout.prevXref < 0 || layout.prevXref >= len(data) {
		return layout, fmt.Errorf("%w: startxref out of range", ErrUnsupportedPDF)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[layout.prevXref:], " \r\n"), []byte("xref")) {
		// Cross-reference stream; appending a classic table would corrupt it.
		return layout, fmt.Errorf("%w: cross-reference stream", ErrUnsupportedPDF)
	}

	trailers := trailerPattern.FindAllSubmatch(data, -1)
	if len(trailers) == 0 {
		return layout, fmt.Errorf("%w: no trailer", ErrUnsupportedPDF)
	}
	trailer := trailers[len(trailers)-1][1]

	sm := sizePattern.FindSubmatch(trailer)
	rm := rootPattern.FindSubmatch(trailer)
	if sm == nil || rm == nil {
		return layout, fmt.Errorf("%w: trailer missing Size or Root", ErrUnsupportedPDF)
	}
	layout.size, _ = strconv.Atoi(string(sm[1]))
	layout.rootNum, _ = strconv.Atoi(string(rm[1]))
	layout.rootGen, _ = strconv.Atoi(string(rm[2]))

	body, err := objectDict(data, layout.rootNum, layout.rootGen)
	if err != nil {
		return layout, err
	}
	// Any existing metadata reference is superseded by the new stream.
	layout.catalogBody = strings.TrimSpace(metadataRefRe.ReplaceAllString(body, ""))
	return layout, nil
}

// objectDict returns the top-level dictionary body of object num gen,
// handling nested dictionaries by depth counting.
func objectDict(data []byte, num, gen int) (string, error) {
	header := []byte(fmt.Sprintf("%d %d obj", num, gen))
	idx := bytes.LastIndex(data, header)
	if idx == -1 {
		return "", fmt.Errorf("%w: object %d %d not found", ErrUnsupportedPDF, num, gen)
	}
	// Reject substring matches like "12 0 obj" inside "112 0 obj".
	if idx > 0 && data[idx-1] >= '0' && data[idx-1] <= '9' {
		return "", fmt.Errorf("%w: object %d %d not found", ErrUnsupportedPDF, num, gen)
	}

	rest := data[idx+len(header):]
	open := bytes.Index(rest, []byte("<<"))
	if open == -1 {
		return "", fmt.Errorf("%w: object %d has no dictionary", ErrUnsupportedPDF, num)
	}

	depth := 0
	for i := open; i < len(rest)-1; i++ {
		switch {
		case rest[i] == '<' && rest[i+1] == '<':
			depth++
			i++
		case rest[i] == '>' && rest[i+1] == '>':
			depth--
			i++
			if depth == 0 {
				return string(rest[open+2 : i-1]), nil
			}
		}
	}
	return "", fmt.Errorf("%w: unterminated dictionary in object %d", ErrUnsupportedPDF, num)
}

// buildUpdate assembles the appended bytes: three objects, a new xref
// section, and a trailer chaining to the previous one.
func buildUpdate(data []byte, layout fileLayout, watermark string) []byte {
	var buf bytes.Buffer
	base := len(data)
	if base > 0 && data[base-1] != '\n' {
		buf.WriteByte('\n')
	}

	infoNum := layout.size
	xmpNum := layout.size + 1

	catalogOffset := base + buf.Len()
	fmt.Fprintf(&buf, "%d %d obj\n<< %s /Metadata %d 0 R >>\nendobj\n",
		layout.rootNum, layout.rootGen, layout.catalogBody, xmpNum)

	infoOffset := base + buf.Len()
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Producer (md2doc) /%s (%s) >>\nendobj\n",
		infoNum, InfoKey, escapePDFString(watermark))

	xmp := xmpPacket(watermark)
	xmpOffset := base + buf.Len()
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		xmpNum, len(xmp), xmp)

	xrefOffset := base + buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "%d 1\n%010d %05d n \n", layout.rootNum, catalogOffset, layout.rootGen)
	fmt.Fprintf(&buf, "%d 2\n%010d 00000 n \n%010d 00000 n \n", infoNum, infoOffset, xmpOffset)
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d %d R /Info %d 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		layout.size+2, layout.rootNum, layout.rootGen, infoNum, layout.prevXref, xrefOffset)

	return buf.Bytes()
}

// escapePDFString escapes the characters with meaning inside a PDF literal
// string.
func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", `\r`, "\n", `\n`)
	return r.Replace(s)
}

// xmpPacket renders the XMP metadata stream body.
func xmpPacket(watermark string) string {
	escaped := escapeXML(watermark)
	return `<?xpacket begin="` + "\uFEFF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:md2pdf="http://md2pdf/ns/1.0/">
   <md2pdf:watermark>` + escaped + `</md2pdf:watermark>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
