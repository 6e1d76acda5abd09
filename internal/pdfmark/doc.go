// Package pdfmark embeds and extracts invisible watermark strings in PDF
// files. The watermark is written to a custom document information key and
// mirrored into an XMP metadata stream; extraction checks the information
// dictionary first and the XMP packet second.
package pdfmark
