package extract

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is a supported document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindText Kind = "text"
	// KindUnknown is binary content with no supported extension.
	KindUnknown Kind = "unknown"
)

// ErrUnsupported is returned for content that is not a supported format.
var ErrUnsupported = errors.New("unsupported document format")

// Extractor turns raw document bytes into ordered page strings.
type Extractor struct{}

// New returns an Extractor.
func New() Extractor {
	return Extractor{}
}

// Pages extracts the content of a document as ordered pages. The format is
// chosen by file extension, then by content sniffing.
func (Extractor) Pages(content []byte, filename string) ([]string, error) {
	switch Detect(content, filename) {
	case KindPDF:
		return pdfPages(content)
	case KindHTML:
		return htmlPages(content)
	case KindText:
		return textPages(content), nil
	default:
		return nil, ErrUnsupported
	}
}

// Detect reports the document kind for content and filename.
func Detect(content []byte, filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm":
		return KindHTML
	case ".txt", ".text", ".md":
		return KindText
	}
	if len(content) == 0 {
		return KindText
	}
	mt := mimetype.Detect(content)
	switch {
	case mt.Is("application/pdf"):
		return KindPDF
	case mt.Is("text/html"):
		return KindHTML
	}
	for ; mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "text/") {
			return KindText
		}
	}
	return KindUnknown
}

// textPages splits plain text into pages on form feeds.
func textPages(content []byte) []string {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
