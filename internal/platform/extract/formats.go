package extract

import (
	"archive/zip"
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

const maxPartBytes = 32 << 20

var (
	htmlNoiseRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	htmlTagRe   = regexp.MustCompile(`(?s)<[^>]*>`)
	partNumRe   = regexp.MustCompile(`(\d+)\.xml$`)
)

func extractPDF(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	r, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", fmt.Errorf("pdf text layer: %w", err)
	}
	return collapseWhitespace(buf.String()), nil
}

// ooxmlParts says which archive members carry text for each Office format.
// Spreadsheets keep every text cell in the shared string table.
var ooxmlParts = []struct {
	dir  string
	want func(name string) bool
}{
	{"word/", func(n string) bool { return n == "word/document.xml" }},
	{"ppt/", func(n string) bool { return strings.HasPrefix(n, "ppt/slides/slide") && strings.HasSuffix(n, ".xml") }},
	{"xl/", func(n string) bool { return n == "xl/sharedStrings.xml" }},
}

func extractOOXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	for _, kind := range ooxmlParts {
		if slices.ContainsFunc(zr.File, func(f *zip.File) bool { return strings.HasPrefix(f.Name, kind.dir) }) {
			return ooxmlText(zr, kind.want)
		}
	}
	return "", fmt.Errorf("%w: zip is not a docx, pptx or xlsx container", ErrUnsupported)
}

func ooxmlText(zr *zip.Reader, want func(string) bool) (string, error) {
	var parts []*zip.File
	for _, f := range zr.File {
		if want(f.Name) {
			parts = append(parts, f)
		}
	}
	slices.SortFunc(parts, func(a, b *zip.File) int {
		return cmp.Or(cmp.Compare(partNumber(a.Name), partNumber(b.Name)), strings.Compare(a.Name, b.Name))
	})

	var out strings.Builder
	for _, f := range parts {
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(io.LimitReader(rc, maxPartBytes))
		rc.Close()
		if err != nil {
			return "", err
		}
		writeTextRuns(&out, raw)
		out.WriteByte('\n')
	}
	return collapseWhitespace(out.String()), nil
}

// partNumber pulls 12 out of "ppt/slides/slide12.xml" so slides sort
// numerically. Parts without a number sort first.
func partNumber(name string) int {
	m := partNumRe.FindStringSubmatch(name)
	if m == nil {
		return -1
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// writeTextRuns appends the content of every element whose local name is "t"
// (w:t in Word, a:t in PowerPoint, t in shared strings).
func writeTextRuns(out *strings.Builder, raw []byte) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "t" {
			continue
		}
		var run string
		if dec.DecodeElement(&run, &start) == nil && run != "" {
			out.WriteString(run)
			out.WriteByte(' ')
		}
	}
}

func extractHTML(s string) string {
	s = htmlNoiseRe.ReplaceAllString(s, " ")
	s = htmlTagRe.ReplaceAllString(s, " ")
	return collapseWhitespace(html.UnescapeString(s))
}
