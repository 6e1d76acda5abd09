package md2doc

import "github.com/metalmind/md2doc/internal/pdfmark"

// ExtractWatermark reads the invisible watermark embedded in a PDF
// produced by Convert. It checks the document Info dictionary first,
// then the XMP metadata stream. Returns ErrWatermarkNotFound when the
// file carries no watermark.
func ExtractWatermark(path string) (string, error) {
	return pdfmark.Extract(path)
}
