package parser

import "strings"

// SourceKind names the extraction strategy chosen for a document.
type SourceKind string

const (
	KindCSV  SourceKind = "csv"
	KindText SourceKind = "text"
)

// Source is the line content of one uploaded document, tagged with the
// extraction strategy that applies to it. The set of implementations is
// closed: CSVSource and TextSource.
type Source interface {
	Kind() SourceKind
	lines() []string
}

// CSVSource is a delimited statement whose first line is a header row.
type CSVSource struct {
	Lines []string
}

// TextSource is free text, typically the text layer of a PDF.
type TextSource struct {
	Lines []string
}

// Kind implements Source.
func (s CSVSource) Kind() SourceKind { return KindCSV }

func (s CSVSource) lines() []string { return s.Lines }

// Kind implements Source.
func (s TextSource) Kind() SourceKind { return KindText }

func (s TextSource) lines() []string { return s.Lines }

// SplitLines splits text into trimmed-right, non-blank lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}
	return lines
}

// DetectSource picks CSV when the first line carries a comma delimiter and
// free text otherwise.
func DetectSource(lines []string) Source {
	if len(lines) > 0 && strings.Contains(lines[0], ",") {
		return CSVSource{Lines: lines}
	}
	return TextSource{Lines: lines}
}

// SourceFromText splits raw text into lines and detects its kind.
func SourceFromText(text string) Source {
	return DetectSource(SplitLines(text))
}
