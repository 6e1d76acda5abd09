// Package md2doc converts Markdown documents to styled PDF or Word files.
//
// The pipeline renders Markdown to HTML with goldmark, highlights fenced
// code blocks with chroma, expands [TOC] markers, substitutes emoji with
// inline images, composes an optional page header, and wraps everything
// in a styled HTML document. PDF output is produced by headless Chrome
// via go-rod; Word output is built as an OOXML archive from the same HTML.
//
// Basic usage:
//
//	conv, err := md2doc.NewConverter()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, md2doc.Request{
//		InputPath: "report.md",
//		Style:     "technical",
//		Theme:     "default",
//		Format:    md2doc.FormatPDF,
//	})
package md2doc
