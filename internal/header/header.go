// Package header builds the optional page-margin running header from a
// content directory holding at most one logo image and one Markdown text
// file. Absent assets silently produce an empty header, never an error.
package header

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yuin/goldmark"

	"github.com/metalmind/md2doc/internal/dateutil"
)

// datePlaceholder in the header Markdown file is substituted with the
// current date before conversion.
const datePlaceholder = "#date#"

// logoExtensions is the probe order for the logo image. The first
// extension with a matching file wins, then directory order within it.
var logoExtensions = []string{".png", ".jpg", ".jpeg", ".svg", ".gif"}

// extensionMIME covers the logo formats when content sniffing is
// inconclusive.
var extensionMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".gif":  "image/gif",
}

// Header is the rendered running-element output. Both fields are empty
// when the header is disabled or no assets exist.
type Header struct {
	HTML string
	CSS  string
}

// Composer reads header assets from a directory and renders them. Header
// text uses a plain Markdown conversion without the document extension set.
type Composer struct {
	dir        string
	md         goldmark.Markdown
	now        func() time.Time
	dateFormat string
	log        *slog.Logger
}

// NewComposer creates a Composer reading from dir. A nil logger discards
// warnings.
func NewComposer(dir string, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Composer{
		dir: dir,
		md:  goldmark.New(),
		now: time.Now,
		log: log,
	}
}

// WithClock overrides the date source. Used by tests.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// WithDateFormat overrides the #date# rendering with a dateutil format
// string or preset name ("iso", "european", "us", "long", "header").
// Empty keeps the default "DD MMM YYYY" rendering.
func (c *Composer) WithDateFormat(format string) *Composer {
	c.dateFormat = format
	return c
}

// Build renders the header. Disabled, a missing directory, and a directory
// with neither logo nor text all yield the same empty Header, so a
// header-enabled conversion over an empty directory is indistinguishable
// from a disabled one.
func (c *Composer) Build(ctx context.Context, enabled bool) Header {
	if !enabled || ctx.Err() != nil {
		return Header{}
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Header{}
	}

	logoHTML := c.logoHTML(entries)
	textHTML := c.textHTML(entries)
	if logoHTML == "" && textHTML == "" {
		return Header{}
	}

	var buf strings.Builder
	buf.WriteString(`<div class="header-wrapper"><div class="header-container">`)
	if textHTML != "" {
		buf.WriteString(`<div class="header-text">` + textHTML + `</div>`)
	}
	if logoHTML != "" {
		if textHTML == "" {
			// Empty spacer keeps the logo flush right
			buf.WriteString(`<div class="header-text"></div>`)
		}
		buf.WriteString(`<div class="header-logo-wrapper">` + logoHTML + `</div>`)
	}
	buf.WriteString(`</div></div>`)

	return Header{HTML: buf.String(), CSS: headerCSS}
}

// logoHTML embeds the first matching image as a data URI.
func (c *Composer) logoHTML(entries []os.DirEntry) string {
	for _, ext := range logoExtensions {
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
				continue
			}
			path := filepath.Join(c.dir, e.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				c.log.Warn("skipping unreadable header logo", "path", path, "error", err)
				continue
			}
			mime := mimetype.Detect(data).String()
			if !strings.HasPrefix(mime, "image/") {
				mime = extensionMIME[strings.ToLower(filepath.Ext(e.Name()))]
			}
			encoded := base64.StdEncoding.EncodeToString(data)
			return `<img src="data:` + mime + `;base64,` + encoded + `" class="header-logo" alt="Logo">`
		}
	}
	return ""
}

// textHTML converts the first Markdown file, substituting the date token.
func (c *Composer) textHTML(entries []os.DirEntry) string {
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			c.log.Warn("skipping unreadable header text", "path", path, "error", err)
			continue
		}
		content := strings.ReplaceAll(string(data), datePlaceholder, c.renderDate())

		var buf strings.Builder
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			c.log.Warn("header text conversion failed", "path", path, "error", err)
			return ""
		}
		return buf.String()
	}
	return ""
}

// renderDate formats the current date for the #date# placeholder. A bad
// custom format degrades to the default rendering with a warning.
func (c *Composer) renderDate() string {
	if c.dateFormat == "" {
		return dateutil.HeaderDate(c.now())
	}
	formatted, err := dateutil.Format(c.dateFormat, c.now())
	if err != nil {
		c.log.Warn("invalid header date format, using default", "format", c.dateFormat, "error", err)
		return dateutil.HeaderDate(c.now())
	}
	return formatted
}

// headerCSS raises the top page margin and pins the header wrapper into
// the reserved band. Blink repeats fixed elements on every printed page,
// so the band recurs per page; the negative top lifts it out of the
// content area into the page margin.
const headerCSS = `@page {
    margin-top: 3.5cm !important;
}

.header-wrapper {
    position: fixed;
    top: -3cm;
    left: 0;
    right: 0;
    height: 2.5cm;
    margin: 0;
    padding: 0;
}

.header-container {
    display: flex;
    justify-content: space-between;
    align-items: center;
    width: 100%;
    padding: 0;
    margin: 0;
    height: auto;
}

.header-text {
    flex: 1;
    font-size: 10pt;
    line-height: 1.3;
    text-align: left;
    margin: 0;
    padding: 0 15pt 0 0;
}

.header-text p {
    margin: 0 0 2pt 0;
    padding: 0;
    text-indent: 0 !important;
    text-align: left !important;
}

.header-text h1, .header-text h2, .header-text h3 {
    font-size: 11pt;
    margin: 0 0 2pt 0;
    font-weight: 600;
}

.header-text strong {
    font-weight: 600;
}

.header-logo-wrapper {
    flex-shrink: 0;
}

.header-logo {
    max-height: 35pt;
    width: auto;
    object-fit: contain;
    display: block;
    border: none !important;
    border-radius: 0 !important;
    box-shadow: none !important;
    margin: 0 !important;
}

body {
    margin: 0;
    padding: 0;
}
`
