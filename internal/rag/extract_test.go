package rag

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{name: "txt passthrough", filename: "notes.txt", data: []byte("hello world"), want: "hello world"},
		{name: "markdown passthrough", filename: "README.md", data: []byte("# title"), want: "# title"},
		{name: "no extension", filename: "LICENSE", data: []byte("plain"), want: "plain"},
		{name: "invalid utf8 replaced", filename: "raw.txt", data: []byte{'o', 'k', 0xff, 0xfe, '!'}, want: "ok�!"},
		{name: "empty file", filename: "empty.txt", data: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.data, tt.filename)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRejectsLegacyAndCorruptFormats(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "legacy doc", filename: "old.doc", data: []byte{0xd0, 0xcf, 0x11, 0xe0}},
		{name: "legacy ppt", filename: "old.ppt", data: []byte{0xd0, 0xcf, 0x11, 0xe0}},
		{name: "corrupt pdf", filename: "broken.pdf", data: []byte("not a pdf at all")},
		{name: "corrupt docx", filename: "broken.docx", data: []byte("not a zip")},
		{name: "corrupt pptx", filename: "broken.pptx", data: []byte("not a zip")},
		{name: "corrupt xlsx", filename: "broken.xlsx", data: []byte("not a zip")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(tt.data, tt.filename)
			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("ExtractText error = %v, want *ExtractionError", err)
			}
			if extractErr.Filename != tt.filename {
				t.Errorf("error names %q, want %q", extractErr.Filename, tt.filename)
			}
		})
	}
}

func TestExtractPptxTextRuns(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	slide, err := zw.Create("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	slide.Write([]byte(`<p:sld><a:t>Welcome</a:t><a:p/><a:t>to the course</a:t></p:sld>`))
	other, err := zw.Create("ppt/theme/theme1.xml")
	if err != nil {
		t.Fatal(err)
	}
	other.Write([]byte(`<a:t>ignored theme text</a:t>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ExtractText(buf.Bytes(), "deck.pptx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Welcome") || !strings.Contains(got, "to the course") {
		t.Errorf("slide text missing from %q", got)
	}
	if strings.Contains(got, "ignored theme text") {
		t.Errorf("non-slide zip entry leaked into %q", got)
	}
}

func TestTextRunsFromSlideXML(t *testing.T) {
	got := textRunsFromSlideXML(`<a:t>one</a:t><a:r><a:t>two</a:t></a:r>`)
	if got != "one two " {
		t.Errorf("textRunsFromSlideXML() = %q", got)
	}
	if textRunsFromSlideXML("<p:sld/>") != "" {
		t.Error("markup without runs should yield nothing")
	}
}
