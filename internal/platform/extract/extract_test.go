package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestTextDOCX(t *testing.T) {
	data := zipOf(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml": `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>Cell</w:t></w:r>` +
			`<w:r><w:t>biology</w:t></w:r></w:p></w:body></w:document>`,
	})
	got, err := Text("notes.docx", "application/octet-stream", data)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Cell biology" {
		t.Fatalf("docx: want=%q got=%q", "Cell biology", got)
	}
}

func TestTextPPTXKeepsSlideOrder(t *testing.T) {
	data := zipOf(t, map[string]string{
		"ppt/slides/slide10.xml": `<p:sld xmlns:a="a"><a:t>ten</a:t></p:sld>`,
		"ppt/slides/slide2.xml":  `<p:sld xmlns:a="a"><a:t>two</a:t></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld xmlns:a="a"><a:t>one</a:t></p:sld>`,
	})
	got, err := Text("deck.pptx", "", data)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "one two ten" {
		t.Fatalf("pptx: want=%q got=%q", "one two ten", got)
	}
}

func TestTextXLSXSharedStrings(t *testing.T) {
	data := zipOf(t, map[string]string{
		"xl/workbook.xml":      `<workbook/>`,
		"xl/sharedStrings.xml": `<sst><si><t>Mitosis</t></si><si><t>Meiosis</t></si></sst>`,
	})
	got, err := Text("sheet.xlsx", "", data)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Mitosis Meiosis" {
		t.Fatalf("xlsx: want=%q got=%q", "Mitosis Meiosis", got)
	}
}

func TestTextHTMLStripsMarkup(t *testing.T) {
	in := `<!DOCTYPE html><html><head><style>p{}</style></head><body><p>Tom &amp; Jerry</p></body></html>`
	got, err := Text("page.html", "text/html", []byte(in))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Tom & Jerry" {
		t.Fatalf("html: want=%q got=%q", "Tom & Jerry", got)
	}
}

func TestTextPlain(t *testing.T) {
	got, err := Text("a.md", "text/markdown", []byte("# Title\n\n  body   text\n"))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "# Title body text" {
		t.Fatalf("plain: want=%q got=%q", "# Title body text", got)
	}
}

func TestTextRejectsFakePDF(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0x00}
	if _, err := Text("scan.pdf", "application/pdf", data); err == nil {
		t.Fatalf("Text: want error for pdf without header")
	}
}

func TestTextUnsupportedBinary(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0x00}
	_, err := Text("pic.png", "image/png", data)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Text: want ErrUnsupported got=%v", err)
	}
}

func TestExtractEmpty(t *testing.T) {
	_, err := New(time.Second).Extract(context.Background(), Document{Name: "x.txt"})
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("Extract: want ErrEmpty got=%v", err)
	}
}

func TestExtractTruncatesToMaxChars(t *testing.T) {
	body := strings.Repeat("abcd ", MaxChars)
	got, err := New(time.Second).Extract(context.Background(), Document{Name: "big.txt", MIMEType: "text/plain", Data: []byte(body)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != MaxChars {
		t.Fatalf("len: want=%d got=%d", MaxChars, len(got))
	}
}

func TestExtractWhitespaceOnlyIsNoText(t *testing.T) {
	_, err := New(time.Second).Extract(context.Background(), Document{Name: "blank.txt", Data: []byte("   \n\t ")})
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("Extract: want ErrNoText got=%v", err)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := truncate("héllo", 2); got != "hé" {
		t.Fatalf("truncate: want=%q got=%q", "hé", got)
	}
	if got := truncate("日本語テキスト", 3); got != "日本語" {
		t.Fatalf("truncate cjk: want=%q got=%q", "日本語", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short: got=%q", got)
	}
}

func TestExtractCapsMultibyteTextByRunes(t *testing.T) {
	body := strings.Repeat("é", MaxChars+10)
	got, err := New(time.Second).Extract(context.Background(), Document{Name: "accents.txt", Data: []byte(body)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if n := utf8.RuneCountInString(got); n != MaxChars {
		t.Fatalf("runes: want=%d got=%d", MaxChars, n)
	}
}

func TestTextDecodesLatin1Notes(t *testing.T) {
	got, err := Text("notes.txt", "text/plain", []byte("caf\xe9 r\xe9sum\xe9 na\xefve"))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("output must be valid UTF-8: %q", got)
	}
	if got != "café résumé naïve" {
		t.Fatalf("latin1: want=%q got=%q", "café résumé naïve", got)
	}
}

func TestExtractPDFTextLayer(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "photosynthesis.pdf"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	got, err := New(0).Extract(context.Background(), Document{Name: "bio.pdf", MIMEType: "application/pdf", Data: data})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(got, "Photosynthesis") || !strings.Contains(got, "light") {
		t.Fatalf("pdf text: got=%q", got)
	}
}

func TestTextPlainZipIsUnsupported(t *testing.T) {
	data := zipOf(t, map[string]string{"readme.txt": "hi"})
	if _, err := Text("bundle.zip", "application/zip", data); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Text: want ErrUnsupported got=%v", err)
	}
}

func TestTextDeclaredOfficeWithoutZip(t *testing.T) {
	_, err := Text("essay.docx", "", []byte{0x00, 0xd0, 0xcf, 0x11})
	if err == nil || !strings.Contains(err.Error(), "not a zip container") {
		t.Fatalf("Text: want zip container error got=%v", err)
	}
}

func TestTextSniffsHTMLWithoutDeclaration(t *testing.T) {
	got, err := Text("download", "", []byte("<html><body><script>x()</script>Krebs cycle</body></html>"))
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Krebs cycle" {
		t.Fatalf("html: want=%q got=%q", "Krebs cycle", got)
	}
}
