package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	// MaxChars bounds the stored text of a single document, in runes.
	MaxChars       = 30000
	DefaultTimeout = 15 * time.Second
)

var (
	ErrEmpty       = errors.New("empty document")
	ErrNoText      = errors.New("no readable text found")
	ErrUnsupported = errors.New("unsupported file type")
)

type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

type extractor struct {
	timeout  time.Duration
	maxChars int
}

func New(timeout time.Duration) Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &extractor{timeout: timeout, maxChars: MaxChars}
}

// Extract parses doc on a separate goroutine so a pathological file cannot
// hold the request past the timeout.
func (e *extractor) Extract(ctx context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", ErrEmpty
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		text, err := Text(doc.Name, doc.MIMEType, doc.Data)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("extraction timed out: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		text := truncate(strings.ToValidUTF8(r.text, "\uFFFD"), e.maxChars)
		if strings.TrimSpace(text) == "" {
			return "", ErrNoText
		}
		return text, nil
	}
}

// declared is what the uploader claimed the file is.
type declared struct {
	ext  string
	mime string
}

func (d declared) is(mimes []string, exts ...string) bool {
	return slices.Contains(mimes, d.mime) || slices.Contains(exts, d.ext)
}

var (
	pdfMimes  = []string{"application/pdf"}
	htmlMimes = []string{"text/html", "application/xhtml+xml"}
	ooxmlExts = []string{".docx", ".pptx", ".xlsx"}
)

// format pairs a content sniffer with its parser. Order matters: the first
// sniffer that matches wins.
type format struct {
	name  string
	sniff func(data []byte, d declared) bool
	parse func(data []byte) (string, error)
}

var formats = []format{
	{name: "pdf", sniff: magic("%PDF-"), parse: extractPDF},
	{name: "ooxml", sniff: magic("PK\x03\x04"), parse: extractOOXML},
	{name: "html", sniff: func(b []byte, d declared) bool {
		return d.is(htmlMimes, ".html", ".htm") || looksLikeHTML(b)
	}, parse: func(b []byte) (string, error) { return extractHTML(toUTF8(b)), nil }},
	{name: "text", sniff: func(b []byte, _ declared) bool { return isText(b) }, parse: func(b []byte) (string, error) {
		return collapseWhitespace(toUTF8(b)), nil
	}},
}

// Text trusts the bytes over the declared MIME type or extension. The
// declaration only shapes the error when nothing matches.
func Text(name, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mt, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	d := declared{ext: strings.ToLower(filepath.Ext(name)), mime: strings.TrimSpace(mt)}

	for _, f := range formats {
		if f.sniff(data, d) {
			return f.parse(data)
		}
	}
	switch {
	case d.is(pdfMimes, ".pdf"):
		return "", fmt.Errorf("declared pdf but content has no %%PDF header (head=%x)", data[:min(len(data), 8)])
	case strings.HasPrefix(d.mime, "application/vnd.openxmlformats-officedocument") || d.is(nil, ooxmlExts...):
		return "", fmt.Errorf("declared office document but content is not a zip container")
	}
	return "", fmt.Errorf("%w: ext=%s mime=%s", ErrUnsupported, d.ext, d.mime)
}

// truncate keeps at most max runes.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// toUTF8 passes valid UTF-8 through and decodes anything else as
// Windows-1252, the superset of Latin-1 that legacy editors write.
func toUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}

func magic(prefix string) func([]byte, declared) bool {
	return func(b []byte, _ declared) bool { return bytes.HasPrefix(b, []byte(prefix)) }
}

func looksLikeHTML(b []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(b[:min(len(b), 2048)]))
	if bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")) {
		return true
	}
	return bytes.Contains(head, []byte("<html")) && bytes.Contains(head, []byte("</html>"))
}

// isText rejects NUL bytes outright and otherwise tolerates up to 10% control
// characters in the leading 4 KiB. Bytes >= 0x80 count as text; toUTF8
// decodes them when the input is not UTF-8.
func isText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	ctrl := 0
	for _, c := range sample {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' || c == 0x7f {
			ctrl++
		}
	}
	return ctrl*10 < len(sample)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
