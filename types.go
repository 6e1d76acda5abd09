package md2doc

import (
	"fmt"
	"log/slog"
	"time"
)

// Format selects the output document type.
type Format int

// Supported output formats.
const (
	FormatPDF Format = iota
	FormatWord
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWord:
		return "word"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// extension returns the output file extension for the format.
func (f Format) extension() string {
	if f == FormatWord {
		return ".docx"
	}
	return ".pdf"
}

// valid reports whether f is a known format.
func (f Format) valid() bool {
	return f == FormatPDF || f == FormatWord
}

// Request describes a single conversion.
type Request struct {
	InputPath     string // Markdown file to convert (required)
	OutputPath    string // destination; empty derives from InputPath, extension is forced to match Format
	Style         string // style key (empty = config default, then "technical")
	Theme         string // theme key (empty = config default, then "default")
	Format        Format // output format (default FormatPDF)
	IncludeHeader bool   // compose the page header from the header directory
	HeaderDir     string // header asset directory (empty = config value)
	Watermark     string // invisible watermark text, PDF only (empty = none)
}

// Result holds conversion output.
type Result struct {
	OutputPath string // path the document was written to
	HTML       string // complete styled HTML document fed to the renderer
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout       time.Duration
	assetPath     string
	headerDir     string
	headerDateFmt string
	defaultStyle  string
	defaultTheme  string
	emojiDisabled bool
	emojiAssetDir string
	emojiCDN      string
	logger        *slog.Logger
	now           func() time.Time
	configFile    string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// Built-in style and theme keys used when neither the request nor the
// configuration selects one.
const (
	defaultStyleKey = "technical"
	defaultThemeKey = "default"
)

// WithTimeout sets the per-conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2doc: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithAssetPath overlays styles and themes from basePath on the embedded
// assets. The directory must contain styles/ and themes/ subdirectories.
func WithAssetPath(basePath string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = basePath
	}
}

// WithHeaderDir sets the default page header asset directory.
// Request.HeaderDir takes precedence when set.
func WithHeaderDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.headerDir = dir
	}
}

// WithHeaderDateFormat sets the rendering of the header #date# token.
// Accepts a preset name ("iso", "european", "us", "long", "header") or a
// token format such as "D MMMM YYYY". The default is "DD MMM YYYY".
func WithHeaderDateFormat(format string) Option {
	return func(c *Converter) {
		c.cfg.headerDateFmt = format
	}
}

// WithLogger sets the logger used for degraded-feature warnings.
// The default discards all records.
func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) {
		c.cfg.logger = log
	}
}

// WithEmojiDisabled turns off emoji image substitution.
func WithEmojiDisabled() Option {
	return func(c *Converter) {
		c.cfg.emojiDisabled = true
	}
}

// WithEmojiAssets sets the local emoji SVG directory and the CDN URL
// template used when a local file is missing. Empty values keep the
// defaults (no local directory, Twemoji CDN).
func WithEmojiAssets(localDir, cdnTemplate string) Option {
	return func(c *Converter) {
		c.cfg.emojiAssetDir = localDir
		c.cfg.emojiCDN = cdnTemplate
	}
}

// WithConfigFile loads defaults from a YAML configuration file. The value
// is a path or a bare config name resolved against the current directory
// and the user config directory. Values set by other options win over
// config values; config values win over built-in defaults.
func WithConfigFile(nameOrPath string) Option {
	return func(c *Converter) {
		c.cfg.configFile = nameOrPath
	}
}

// WithClock overrides the clock used for header date substitution.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.cfg.now = now
	}
}
