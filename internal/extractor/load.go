package extractor

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/insightdelivered/revenue-scorer/internal/parser"
)

// ErrUnsupportedType is returned for uploads that are neither PDF nor text.
var ErrUnsupportedType = errors.New("unsupported file type")

// Kind is how an upload's bytes are rendered to lines.
type Kind int

const (
	KindText Kind = iota
	KindPDF
)

var pdfMagic = []byte("%PDF-")

// DetectKind decides, once, whether an upload is a PDF or text. The MIME type
// is consulted first, then the file extension, then the leading bytes.
func DetectKind(filename, contentType string, data []byte) (Kind, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case mt == "application/pdf":
			return KindPDF, nil
		case strings.HasPrefix(mt, "text/"):
			return KindText, nil
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, nil
	case ".csv", ".txt", ".tsv", ".text":
		return KindText, nil
	}

	if len(data) >= len(pdfMagic) && string(data[:len(pdfMagic)]) == string(pdfMagic) {
		return KindPDF, nil
	}
	if utf8.Valid(data) {
		return KindText, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
}

// Load turns an uploaded file into a parser source. PDFs always become a
// TextSource; text files are CSV when the first line carries a comma.
func Load(filename, contentType string, data []byte) (parser.Source, error) {
	kind, err := DetectKind(filename, contentType, data)
	if err != nil {
		return nil, err
	}

	if kind == KindPDF {
		lines, err := ExtractPDF(data)
		if errors.Is(err, ErrUnreadablePDF) {
			return nil, fmt.Errorf("extract %s: %w", filename, err)
		}
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w: %w", filename, ErrUnreadablePDF, err)
		}
		return parser.TextSource{Lines: lines}, nil
	}

	text := strings.TrimPrefix(string(data), "\uFEFF")
	return parser.SourceFromText(text), nil
}
