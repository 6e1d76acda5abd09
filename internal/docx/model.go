// Package docx builds Word documents from assembled HTML. The DOM is
// walked in document order and block elements map to paragraphs with named
// styles; no CSS fidelity is attempted beyond that. The OOXML package is
// written directly as a zip archive.
package docx

// Run is one contiguous span of text with uniform formatting.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Mono   bool // fixed-width font override for code
}

// Numbering identifiers wired to the definitions in numbering.xml.
const (
	NumNone    = 0
	NumBullet  = 1
	NumDecimal = 2
)

// Paragraph is one Word paragraph with an optional named style and list
// numbering reference.
type Paragraph struct {
	Style string // "" means Normal
	NumID int
	Runs  []Run
}
