package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF is returned when none of the extraction methods produce
// text that looks like a statement (scanned or custom-encoded documents).
var ErrUnreadablePDF = errors.New("no readable text in PDF")

// pageMethod is one way of pulling page text out of a parsed PDF.
type pageMethod struct {
	name string
	run  func(r *pdf.Reader) []string
}

// methods are tried in order; the first readable result wins.
var methods = []pageMethod{
	{"rows", byRow},
	{"content", byContent},
	{"page-plain", byPagePlainText},
	{"reader-plain", byReaderPlainText},
}

// ExtractPDF renders an uploaded PDF to text lines, page after page.
func ExtractPDF(data []byte) ([]string, error) {
	pages, method, err := extractPages(data)
	if err != nil {
		return nil, err
	}
	if method == "" {
		return nil, ErrUnreadablePDF
	}

	var lines []string
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if line = strings.TrimRight(line, " \t\r"); strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// extractPages returns the pages from the first method whose output passes
// isReadableText, along with that method's name. An empty name means no
// method produced readable text.
func extractPages(data []byte) (pages []string, method string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages, method, err = nil, "", fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	if len(data) == 0 {
		return nil, "", fmt.Errorf("open PDF: empty file")
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", fmt.Errorf("open PDF: %w", err)
	}
	if r.NumPage() == 0 {
		return nil, "", fmt.Errorf("open PDF: no pages")
	}

	for _, m := range methods {
		pages = m.run(r)
		if isReadableText(pages) {
			return pages, m.name, nil
		}
	}
	return nil, "", nil
}

func byRow(r *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// columnGap is the horizontal distance, in points, treated as a column break.
const columnGap = 15

type textItem struct {
	x float64
	s string
}

// byContent rebuilds rows from raw text objects: items are grouped on their
// rounded Y coordinate, rows ordered top to bottom, items left to right.
func byContent(r *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rows := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], textItem{x: t.X, s: t.S})
		}

		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		// PDF Y grows upwards.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		lines := make([]string, 0, len(ys))
		for _, y := range ys {
			if line := joinRow(rows[y]); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func joinRow(items []textItem) string {
	sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

	var sb strings.Builder
	for j, item := range items {
		if j > 0 && item.x-items[j-1].x > columnGap {
			sb.WriteString("  ")
		}
		sb.WriteString(item.s)
	}
	return strings.TrimSpace(sb.String())
}

func byPagePlainText(r *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func byReaderPlainText(r *pdf.Reader) []string {
	rd, err := r.GetPlainText()
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	return []string{text}
}
