package md2doc

import (
	"fmt"
	"os"

	"github.com/metalmind/md2doc/internal/docx"
)

// renderWord maps the assembled HTML onto Word paragraphs and writes the
// document as an OOXML archive at outPath.
func renderWord(htmlContent, outPath string) error {
	paragraphs, err := docx.FromHTML(htmlContent)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWordGeneration, err)
	}

	f, err := os.Create(outPath) // #nosec G304 -- output path is caller-provided
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrWordGeneration, outPath, err)
	}

	if err := docx.Write(f, paragraphs); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return fmt.Errorf("%w: %v", ErrWordGeneration, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrWordGeneration, outPath, err)
	}
	return nil
}
