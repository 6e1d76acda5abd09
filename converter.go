package md2doc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metalmind/md2doc/internal/assets"
	"github.com/metalmind/md2doc/internal/config"
	"github.com/metalmind/md2doc/internal/dateutil"
	"github.com/metalmind/md2doc/internal/emoji"
	"github.com/metalmind/md2doc/internal/fileutil"
	"github.com/metalmind/md2doc/internal/header"
	"github.com/metalmind/md2doc/internal/pdfmark"
	"github.com/metalmind/md2doc/internal/pipeline"
)

// Compile-time interface implementation checks.
// These ensure implementations satisfy their interfaces at compile time,
// catching signature mismatches before runtime.
var (
	_ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.Highlighter   = (*pipeline.CodeHighlighter)(nil)
	_ pdfRenderer            = (*rodRenderer)(nil)
)

// Converter orchestrates the Markdown-to-document conversion pipeline.
// Create with NewConverter(), use Convert() per document, and Close()
// when done to release browser resources.
type Converter struct {
	cfg           converterConfig
	registry      *assets.Registry
	htmlConverter pipeline.HTMLConverter
	highlighter   pipeline.Highlighter
	toc           *pipeline.TOCProcessor
	emoji         *emoji.Resolver
	pdf           pdfRenderer
}

// NewConverter creates a Converter with the given options.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.applyConfigFile(); err != nil {
		return nil, err
	}

	if c.cfg.timeout == 0 {
		c.cfg.timeout = defaultTimeout
	}
	if c.cfg.defaultStyle == "" {
		c.cfg.defaultStyle = defaultStyleKey
	}
	if c.cfg.defaultTheme == "" {
		c.cfg.defaultTheme = defaultThemeKey
	}
	if c.cfg.logger == nil {
		c.cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.cfg.now == nil {
		c.cfg.now = time.Now
	}
	if c.cfg.emojiCDN == "" {
		c.cfg.emojiCDN = emoji.DefaultCDNTemplate
	}

	// A bad date format is a configuration mistake, surface it now rather
	// than degrading silently at conversion time.
	if c.cfg.headerDateFmt != "" {
		if _, err := dateutil.Format(c.cfg.headerDateFmt, time.Now()); err != nil {
			return nil, err
		}
	}

	if c.cfg.assetPath != "" {
		registry, err := assets.NewRegistryWithPath(c.cfg.assetPath)
		if err != nil {
			return nil, err
		}
		c.registry = registry
	} else {
		c.registry = assets.NewRegistry()
	}

	c.htmlConverter = pipeline.NewGoldmarkConverter()
	c.highlighter = pipeline.NewCodeHighlighter()
	c.toc = pipeline.NewTOCProcessor()

	if !c.cfg.emojiDisabled {
		c.emoji = emoji.NewResolver(c.cfg.emojiAssetDir, c.cfg.emojiCDN)
	}

	// Lazy: the browser is not launched until the first PDF render.
	// Tests replace this with a fake renderer.
	if c.pdf == nil {
		c.pdf = newRodRenderer(c.cfg.timeout)
	}

	return c, nil
}

// applyConfigFile merges values from the configured YAML file into fields
// not already set by options. Option values win over config values.
func (c *Converter) applyConfigFile() error {
	if c.cfg.configFile == "" {
		return nil
	}

	fileCfg, err := config.LoadConfig(c.cfg.configFile)
	if err != nil {
		return err
	}

	if c.cfg.defaultStyle == "" {
		c.cfg.defaultStyle = fileCfg.Style.Default
	}
	if c.cfg.defaultTheme == "" {
		c.cfg.defaultTheme = fileCfg.Style.Theme
	}
	if c.cfg.assetPath == "" {
		c.cfg.assetPath = fileCfg.Assets.BasePath
	}
	if c.cfg.headerDir == "" {
		c.cfg.headerDir = fileCfg.Header.Dir
	}
	if c.cfg.headerDateFmt == "" {
		c.cfg.headerDateFmt = fileCfg.Header.DateFormat
	}
	if fileCfg.Emoji.Disabled {
		c.cfg.emojiDisabled = true
	}
	if c.cfg.emojiAssetDir == "" {
		c.cfg.emojiAssetDir = fileCfg.Emoji.AssetDir
	}
	if c.cfg.emojiCDN == "" {
		c.cfg.emojiCDN = fileCfg.Emoji.CDN
	}
	if c.cfg.timeout == 0 && fileCfg.TimeoutS > 0 {
		c.cfg.timeout = time.Duration(fileCfg.TimeoutS) * time.Second
	}

	return nil
}

// Convert renders the Markdown file named by req into a styled PDF or
// Word document. The returned Result reports the final output path and
// the assembled HTML.
//
// Pipeline stages run in a fixed order: Markdown to HTML, relative path
// rewriting, code highlighting, TOC expansion, emoji substitution, header
// composition, document assembly, rendering.
func (c *Converter) Convert(ctx context.Context, req Request) (result *Result, err error) {
	// Recover from panics in pipeline stages or the browser layer so the
	// library never panics past its public boundary.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	raw, err := os.ReadFile(req.InputPath) // #nosec G304 -- input path is caller-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, req.InputPath)
		}
		return nil, fmt.Errorf("reading input: %w", err)
	}

	styleKey := firstNonEmpty(req.Style, c.cfg.defaultStyle)
	themeKey := firstNonEmpty(req.Theme, c.cfg.defaultTheme)
	styleCSS, err := c.registry.Compose(styleKey, themeKey)
	if err != nil {
		return nil, err
	}

	body, err := c.htmlConverter.ToHTML(ctx, string(raw))
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}

	if inputDir, absErr := filepath.Abs(filepath.Dir(req.InputPath)); absErr == nil {
		rewritten, rewriteErr := pipeline.RewriteRelativePaths(body, inputDir)
		if rewriteErr != nil {
			c.cfg.logger.Warn("path rewriting failed, keeping original paths", "error", rewriteErr)
		} else {
			body = rewritten
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body = c.highlighter.HighlightBlocks(ctx, body)
	body = c.toc.Process(ctx, body)
	body = c.emoji.Replace(ctx, body) // nil resolver passes through

	headerDir := firstNonEmpty(req.HeaderDir, c.cfg.headerDir)
	hdr := header.NewComposer(headerDir, c.cfg.logger).
		WithClock(c.cfg.now).
		WithDateFormat(c.cfg.headerDateFmt).
		Build(ctx, req.IncludeHeader)

	doc := pipeline.Assemble(pipeline.DocumentParts{
		Title:        fileutil.Stem(req.InputPath),
		Body:         body,
		StyleCSS:     styleCSS,
		HighlightCSS: c.highlighter.CSS(),
		HeaderHTML:   hdr.HTML,
		HeaderCSS:    hdr.CSS,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outPath := req.OutputPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(req.InputPath), fileutil.Stem(req.InputPath))
	}
	outPath = fileutil.ForceExtension(outPath, req.Format.extension())

	switch req.Format {
	case FormatPDF:
		err = c.renderPDF(ctx, doc, outPath, req.Watermark)
	case FormatWord:
		err = renderWord(doc, outPath)
	}
	if err != nil {
		return nil, err
	}

	return &Result{OutputPath: outPath, HTML: doc}, nil
}

// renderPDF writes the PDF to outPath and embeds the watermark when one
// is requested. Watermark failures degrade to a warning, the PDF stays
// usable without it.
func (c *Converter) renderPDF(ctx context.Context, doc, outPath, watermark string) error {
	pdfBytes, err := c.pdf.ToPDF(ctx, doc)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, pdfBytes, 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrPDFGeneration, outPath, err)
	}

	if watermark != "" {
		if err := pdfmark.Embed(outPath, watermark); err != nil {
			c.cfg.logger.Warn("watermark embedding failed", "path", outPath, "error", err)
		}
	}

	return nil
}

// Close releases browser resources. Safe to call multiple times.
func (c *Converter) Close() error {
	if c.pdf != nil {
		return c.pdf.Close()
	}
	return nil
}

// validateRequest checks request fields before any file IO.
func validateRequest(req Request) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return ErrEmptyInputPath
	}
	if !req.Format.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownFormat, int(req.Format))
	}
	if !fileutil.FileExists(req.InputPath) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, req.InputPath)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
