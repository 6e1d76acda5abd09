package md2doc

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeRenderer implements pdfRenderer without a browser.
type fakeRenderer struct {
	pdf    []byte
	err    error
	calls  int
	closed bool
}

func (f *fakeRenderer) ToPDF(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.pdf != nil {
		return f.pdf, nil
	}
	return minimalPDF(), nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

// minimalPDF builds a valid single-page classic-xref PDF with correct
// cross-reference offsets.
func minimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 4)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")

	xrefPos := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	return buf.Bytes()
}

// newTestConverter builds a Converter with the browser renderer swapped
// for a fake.
func newTestConverter(t *testing.T, opts ...Option) (*Converter, *fakeRenderer) {
	t.Helper()

	conv, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	fake := &fakeRenderer{}
	conv.pdf = fake
	t.Cleanup(func() { _ = conv.Close() })
	return conv, fake
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	return path
}

func TestConvertValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	conv, _ := newTestConverter(t)

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name:    "empty input path",
			req:     Request{OutputPath: filepath.Join(dir, "out.pdf")},
			wantErr: ErrEmptyInputPath,
		},
		{
			name:    "missing input file",
			req:     Request{InputPath: filepath.Join(dir, "absent.md"), OutputPath: filepath.Join(dir, "out.pdf")},
			wantErr: ErrInputNotFound,
		},
		{
			name:    "unknown format",
			req:     Request{InputPath: filepath.Join(dir, "absent.md"), Format: Format(99)},
			wantErr: ErrUnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conv.Convert(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// A failed conversion must not leave an output file behind.
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Error("output file created despite conversion failure")
	}
}

func TestConvertUnreadableInputNotMislabeled(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n")
	if err := os.Chmod(input, 0o000); err != nil {
		t.Fatal(err)
	}

	conv, _ := newTestConverter(t)
	_, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: filepath.Join(dir, "doc.pdf"),
	})
	if err == nil {
		t.Fatal("Convert() should fail on an unreadable input")
	}
	// A permission problem is a read error, not a missing file.
	if errors.Is(err, ErrInputNotFound) {
		t.Errorf("Convert() error = %v, permission failure mislabeled as not-found", err)
	}
}

func TestConvertExtensionForced(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "report.md", "# Report\n\nBody.\n")
	conv, _ := newTestConverter(t)

	tests := []struct {
		name       string
		outputPath string
		format     Format
		want       string
	}{
		{"pdf from txt", filepath.Join(dir, "out.txt"), FormatPDF, filepath.Join(dir, "out.pdf")},
		{"word from txt", filepath.Join(dir, "out2.txt"), FormatWord, filepath.Join(dir, "out2.docx")},
		{"derived from input", "", FormatPDF, filepath.Join(dir, "report.pdf")},
		{"no extension", filepath.Join(dir, "plain"), FormatWord, filepath.Join(dir, "plain.docx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := conv.Convert(context.Background(), Request{
				InputPath:  input,
				OutputPath: tt.outputPath,
				Format:     tt.format,
			})
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if result.OutputPath != tt.want {
				t.Errorf("OutputPath = %q, want %q", result.OutputPath, tt.want)
			}
			if _, err := os.Stat(tt.want); err != nil {
				t.Errorf("output file not written: %v", err)
			}
		})
	}
}

func TestConvertUnknownLanguageFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "code.md", "# Title\n\n```madeuplang\nsome code here\n```\n")
	conv, _ := newTestConverter(t)

	result, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: filepath.Join(dir, "code.pdf"),
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(result.HTML, `class="codehilite"`) {
		t.Error("HTML missing highlighted code container")
	}
	if !strings.Contains(result.HTML, "some code here") {
		t.Error("HTML lost code block content")
	}
}

func TestConvertUnknownStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n")
	conv, _ := newTestConverter(t)

	_, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: filepath.Join(dir, "doc.pdf"),
		Style:      "nonexistent",
	})
	if !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("Convert() error = %v, want ErrStyleNotFound", err)
	}
	if !strings.Contains(err.Error(), "technical") {
		t.Errorf("error should list available styles, got %q", err.Error())
	}
}

func TestConvertEmptyHeaderDirEqualsDisabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	emptyHeaderDir := filepath.Join(dir, "header")
	if err := os.Mkdir(emptyHeaderDir, 0o750); err != nil {
		t.Fatal(err)
	}
	input := writeInput(t, dir, "doc.md", "# Doc\n\nParagraph.\n")
	conv, _ := newTestConverter(t)

	withEmpty, err := conv.Convert(context.Background(), Request{
		InputPath:     input,
		OutputPath:    filepath.Join(dir, "a.pdf"),
		IncludeHeader: true,
		HeaderDir:     emptyHeaderDir,
	})
	if err != nil {
		t.Fatalf("Convert() with empty header dir error = %v", err)
	}

	disabled, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: filepath.Join(dir, "b.pdf"),
	})
	if err != nil {
		t.Fatalf("Convert() with header disabled error = %v", err)
	}

	if withEmpty.HTML != disabled.HTML {
		t.Error("empty header directory should produce the same document as a disabled header")
	}
	if strings.Contains(withEmpty.HTML, "has-header") {
		t.Error("empty header directory must not mark content as having a header")
	}
}

func TestConvertWithHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	headerDir := filepath.Join(dir, "header")
	if err := os.Mkdir(headerDir, 0o750); err != nil {
		t.Fatal(err)
	}
	writeInput(t, headerDir, "company.md", "**Acme Corp** #date#")
	input := writeInput(t, dir, "doc.md", "# Doc\n")

	fixed := func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC) }
	conv, _ := newTestConverter(t, WithHeaderDir(headerDir), WithClock(fixed))

	result, err := conv.Convert(context.Background(), Request{
		InputPath:     input,
		OutputPath:    filepath.Join(dir, "doc.pdf"),
		IncludeHeader: true,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if !strings.Contains(result.HTML, "05 Mar 2025") {
		t.Error("header date placeholder not substituted")
	}
	if !strings.Contains(result.HTML, "<strong>Acme Corp</strong>") {
		t.Error("header markdown not converted")
	}
	if !strings.Contains(result.HTML, "position: fixed") {
		t.Error("header CSS not included")
	}
	if !strings.Contains(result.HTML, `class="content has-header"`) {
		t.Error("content not marked as having a header")
	}
}

func TestConvertHeaderDateFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	headerDir := filepath.Join(dir, "header")
	if err := os.Mkdir(headerDir, 0o750); err != nil {
		t.Fatal(err)
	}
	writeInput(t, headerDir, "company.md", "Updated #date#")
	input := writeInput(t, dir, "doc.md", "# Doc\n")

	fixed := func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC) }
	conv, _ := newTestConverter(t,
		WithHeaderDir(headerDir),
		WithHeaderDateFormat("iso"),
		WithClock(fixed),
	)

	result, err := conv.Convert(context.Background(), Request{
		InputPath:     input,
		OutputPath:    filepath.Join(dir, "doc.pdf"),
		IncludeHeader: true,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !strings.Contains(result.HTML, "2025-03-05") {
		t.Error("header date not rendered with the configured format")
	}
}

func TestNewConverterBadHeaderDateFormat(t *testing.T) {
	t.Parallel()

	if _, err := NewConverter(WithHeaderDateFormat("[unclosed")); err == nil {
		t.Error("NewConverter() with an invalid date format should fail")
	}
}

func TestConvertWatermarkRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n")
	conv, _ := newTestConverter(t)

	outPath := filepath.Join(dir, "doc.pdf")
	_, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: outPath,
		Watermark:  "tracking-id-42",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	got, err := ExtractWatermark(outPath)
	if err != nil {
		t.Fatalf("ExtractWatermark() error = %v", err)
	}
	if got != "tracking-id-42" {
		t.Errorf("ExtractWatermark() = %q, want %q", got, "tracking-id-42")
	}
}

func TestConvertWatermarkEmbedFailureNonFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n")
	conv, fake := newTestConverter(t)
	fake.pdf = []byte("%PDF-1.4\nno xref table here\n")

	outPath := filepath.Join(dir, "doc.pdf")
	result, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: outPath,
		Watermark:  "lost",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v, watermark failure must not fail conversion", err)
	}
	if _, statErr := os.Stat(result.OutputPath); statErr != nil {
		t.Errorf("output file missing: %v", statErr)
	}
}

func TestConvertNoWatermarkNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n")
	conv, _ := newTestConverter(t)

	outPath := filepath.Join(dir, "doc.pdf")
	if _, err := conv.Convert(context.Background(), Request{InputPath: input, OutputPath: outPath}); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if _, err := ExtractWatermark(outPath); !errors.Is(err, ErrWatermarkNotFound) {
		t.Errorf("ExtractWatermark() error = %v, want ErrWatermarkNotFound", err)
	}
}

func TestConvertWordOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Main Heading\n\nA paragraph with **bold** text.\n")
	conv, _ := newTestConverter(t)

	result, err := conv.Convert(context.Background(), Request{
		InputPath:  input,
		OutputPath: filepath.Join(dir, "doc.docx"),
		Format:     FormatWord,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	zr, err := zip.OpenReader(result.OutputPath)
	if err != nil {
		t.Fatalf("output is not a valid zip archive: %v", err)
	}
	defer zr.Close()

	var documentXML string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatal(err)
		}
		_ = rc.Close()
		documentXML = buf.String()
	}

	if documentXML == "" {
		t.Fatal("archive missing word/document.xml")
	}
	if !strings.Contains(documentXML, "Main Heading") {
		t.Error("document.xml missing heading text")
	}
	if !strings.Contains(documentXML, `w:val="Heading1"`) {
		t.Error("document.xml missing heading style")
	}
}

func TestConvertDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n\n[TOC]\n\n## One\n\n```go\nfunc main() {}\n```\n")
	conv, _ := newTestConverter(t)

	first, err := conv.Convert(context.Background(), Request{InputPath: input, OutputPath: filepath.Join(dir, "a.pdf")})
	if err != nil {
		t.Fatalf("first Convert() error = %v", err)
	}
	second, err := conv.Convert(context.Background(), Request{InputPath: input, OutputPath: filepath.Join(dir, "b.pdf")})
	if err != nil {
		t.Fatalf("second Convert() error = %v", err)
	}
	if first.HTML != second.HTML {
		t.Error("identical input produced different documents")
	}
}

func TestConvertEmoji(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "Ship it \U0001F680\n")

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		conv, _ := newTestConverter(t)
		result, err := conv.Convert(context.Background(), Request{
			InputPath:  input,
			OutputPath: filepath.Join(dir, "on.pdf"),
		})
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if !strings.Contains(result.HTML, `<img class="emoji"`) {
			t.Error("emoji not replaced with image")
		}
		if !strings.Contains(result.HTML, "1f680.svg") {
			t.Error("emoji image source missing codepoint filename")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		conv, _ := newTestConverter(t, WithEmojiDisabled())
		result, err := conv.Convert(context.Background(), Request{
			InputPath:  input,
			OutputPath: filepath.Join(dir, "off.pdf"),
		})
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if strings.Contains(result.HTML, `<img class="emoji"`) {
			t.Error("emoji replaced despite being disabled")
		}
		if !strings.Contains(result.HTML, "\U0001F680") {
			t.Error("raw emoji missing from output")
		}
	})
}

func TestConvertCancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir, "doc.md", "# Doc\n")
	conv, _ := newTestConverter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, Request{InputPath: input, OutputPath: filepath.Join(dir, "doc.pdf")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

func TestNewConverterConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "md2doc.yaml")
	configYAML := `style:
  default: story
  theme: dark
header:
  dir: /srv/header-assets
emoji:
  disabled: true
timeoutSeconds: 5
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	conv, err := NewConverter(WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })

	if conv.cfg.defaultStyle != "story" {
		t.Errorf("defaultStyle = %q, want %q", conv.cfg.defaultStyle, "story")
	}
	if conv.cfg.defaultTheme != "dark" {
		t.Errorf("defaultTheme = %q, want %q", conv.cfg.defaultTheme, "dark")
	}
	if conv.cfg.headerDir != "/srv/header-assets" {
		t.Errorf("headerDir = %q", conv.cfg.headerDir)
	}
	if !conv.cfg.emojiDisabled {
		t.Error("emoji should be disabled by config")
	}
	if conv.cfg.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", conv.cfg.timeout)
	}
}

func TestNewConverterOptionsWinOverConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "md2doc.yaml")
	if err := os.WriteFile(configPath, []byte("header:\n  dir: /from/config\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	conv, err := NewConverter(WithConfigFile(configPath), WithHeaderDir("/from/option"))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })

	if conv.cfg.headerDir != "/from/option" {
		t.Errorf("headerDir = %q, want option value to win", conv.cfg.headerDir)
	}
}

func TestNewConverterBadAssetPath(t *testing.T) {
	t.Parallel()

	if _, err := NewConverter(WithAssetPath(filepath.Join(t.TempDir(), "absent"))); err == nil {
		t.Error("NewConverter() with missing asset path should fail")
	}
}

func TestConverterClose(t *testing.T) {
	t.Parallel()

	conv, fake := newTestConverter(t)
	if err := conv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.closed {
		t.Error("Close() did not reach the renderer")
	}
	// Second close is a no-op.
	if err := conv.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestFormatString(t *testing.T) {
	t.Parallel()

	if got := FormatPDF.String(); got != "pdf" {
		t.Errorf("FormatPDF.String() = %q", got)
	}
	if got := FormatWord.String(); got != "word" {
		t.Errorf("FormatWord.String() = %q", got)
	}
	if got := Format(7).String(); got != "Format(7)" {
		t.Errorf("Format(7).String() = %q", got)
	}
}
