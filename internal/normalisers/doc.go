// Package normalisers holds the text extractors that turn uploaded
// documents into chapter text, one sub-package per format, plus the
// decoding and whitespace helpers they share.
//
// Extractors leave ExtractedText.Title empty when the document carries no
// title of its own; the ingest service derives one from the file name.
package normalisers
