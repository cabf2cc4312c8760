// Package document loads source PDFs for extraction. The document is opaque
// to the pipeline beyond being forwarded to the model provider; this package
// only verifies it, counts pages, and prepares the attachment encodings.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/paperscan/paperscan/internal/logger"
)

// Document is one loaded source PDF.
type Document struct {
	Path     string
	Filename string
	Data     []byte
	Pages    int

	text       string
	textLoaded bool
}

// Load reads and verifies a PDF file. maxSize caps the file size in bytes;
// 0 means unlimited.
func Load(path string, maxSize int64) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("document %s is %d bytes, exceeding the %d byte limit", path, info.Size(), maxSize)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s as a PDF: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	logger.Debug("document loaded", "path", path, "bytes", len(data), "pages", pages)
	return &Document{
		Path:     path,
		Filename: filepath.Base(path),
		Data:     data,
		Pages:    pages,
	}, nil
}

// Text extracts the document's plain text, for providers without native PDF
// input. Extraction runs once and is cached; pages that fail to decode are
// skipped.
func (d *Document) Text() (string, error) {
	if d.textLoaded {
		return d.text, nil
	}

	f, reader, err := pdf.Open(d.Path)
	if err != nil {
		return "", fmt.Errorf("opening PDF for text extraction: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("skipping unreadable page", "path", d.Path, "page", i, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "[page %d]\n%s\n\n", i, text)
	}

	d.text = sb.String()
	d.textLoaded = true
	if d.text == "" {
		return "", fmt.Errorf("no extractable text in %s", d.Path)
	}
	return d.text, nil
}
