package md2doc_test

import (
	"context"
	"fmt"
	"log"

	"github.com/metalmind/md2doc"
)

// Example demonstrates converting a Markdown file to PDF.
// Requires Chrome; rod downloads Chromium on first run if none is found.
func Example() {
	conv, err := md2doc.NewConverter()
	if err != nil {
		log.Fatal(err)
	}
	defer conv.Close()

	result, err := conv.Convert(context.Background(), md2doc.Request{
		InputPath: "report.md",
		Style:     "technical",
		Theme:     "default",
		Format:    md2doc.FormatPDF,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("written to", result.OutputPath)
}

// Example_word demonstrates Word output. No browser is involved.
func Example_word() {
	conv, err := md2doc.NewConverter()
	if err != nil {
		log.Fatal(err)
	}
	defer conv.Close()

	result, err := conv.Convert(context.Background(), md2doc.Request{
		InputPath: "report.md",
		Format:    md2doc.FormatWord,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("written to", result.OutputPath)
}

// Example_watermark embeds an invisible watermark in the PDF and reads
// it back.
func Example_watermark() {
	conv, err := md2doc.NewConverter()
	if err != nil {
		log.Fatal(err)
	}
	defer conv.Close()

	result, err := conv.Convert(context.Background(), md2doc.Request{
		InputPath: "report.md",
		Watermark: "recipient: jane@example.com",
	})
	if err != nil {
		log.Fatal(err)
	}

	mark, err := md2doc.ExtractWatermark(result.OutputPath)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(mark)
}
