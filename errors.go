package md2doc

import (
	"errors"

	"github.com/metalmind/md2doc/internal/assets"
	"github.com/metalmind/md2doc/internal/pdfmark"
	"github.com/metalmind/md2doc/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyInputPath = errors.New("input path cannot be empty")
	ErrInputNotFound  = errors.New("input file not found")
	ErrUnknownFormat  = errors.New("unknown output format")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrWordGeneration = errors.New("Word generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
)

// Asset and watermark errors surfaced from internal packages so callers
// can match them with errors.Is without importing internals.
var (
	ErrHTMLConversion    = pipeline.ErrHTMLConversion
	ErrStyleNotFound     = assets.ErrStyleNotFound
	ErrThemeNotFound     = assets.ErrThemeNotFound
	ErrWatermarkNotFound = pdfmark.ErrWatermarkNotFound
)
