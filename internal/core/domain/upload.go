package domain

// Upload is an undecoded document handed to a text extractor.
type Upload struct {
	// Filename is the client-supplied name, used to pick an extractor.
	Filename string

	// MIMEType is the declared content type, if known.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ExtractedText is the result of decoding an Upload.
type ExtractedText struct {
	// Text is the decoded document text.
	Text string

	// Title is a title found in the document metadata or derived from the filename.
	Title string

	// Format names the extractor that produced the text, e.g. "pdf".
	Format string
}
