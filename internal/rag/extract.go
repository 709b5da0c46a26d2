package rag

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

// ExtractText converts raw file bytes into best-effort plain text. The
// filename is used only to pick the decoder. Structure is intentionally
// dropped: the output feeds a semantic index, not a faithful reproduction.
//
// Unknown extensions are treated as plain text with invalid UTF-8 replaced.
// A file that cannot be parsed as its declared format returns an
// *ExtractionError, which aborts the whole course rebuild.
func ExtractText(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data, filename)
	case ".docx":
		return extractDocx(data, filename)
	case ".pptx":
		return extractPptx(data, filename)
	case ".xlsx":
		return extractXlsx(data, filename)
	case ".doc", ".ppt":
		// Legacy OLE formats have no pure-Go decoder; failing beats feeding
		// binary garbage into the index.
		return "", &ExtractionError{Filename: filename, Err: fmt.Errorf("legacy office format not supported, convert to docx/pptx")}
	default:
		return strings.ToValidUTF8(string(data), "�"), nil
	}
}

// extractPDF decodes page by page and concatenates per-page text with
// newlines. Pages that yield no text contribute nothing; only a document
// that cannot be opened at all is an error.
func extractPDF(data []byte, filename string) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Filename: filename, Err: err}
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func extractDocx(data []byte, filename string) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Filename: filename, Err: err}
	}
	defer r.Close()
	return r.Editable().GetContent(), nil
}

// extractPptx pulls the text runs out of each slide's XML. Slides live under
// ppt/slides/ inside the pptx zip container.
func extractPptx(data []byte, filename string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Filename: filename, Err: err}
	}

	var b strings.Builder
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
		slideText := textRunsFromSlideXML(string(raw))
		if strings.TrimSpace(slideText) != "" {
			b.WriteString(slideText)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// textRunsFromSlideXML scrapes <a:t> runs without a full XML parse; slide
// markup is machine generated and the runs are all we keep.
func textRunsFromSlideXML(xmlContent string) string {
	var b strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if end := strings.Index(part, "</a:t>"); end >= 0 {
			b.WriteString(part[:end])
			b.WriteString(" ")
		}
	}
	return b.String()
}

func extractXlsx(data []byte, filename string) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{Filename: filename, Err: err}
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", &ExtractionError{Filename: filename, Err: err}
		}
		b.WriteString(sheet)
		b.WriteString("\n")
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
