package document

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Loader extracts textual segments from a document on disk.
type Loader interface {
	Load(filePath string) ([]string, error)
}

// PDFLoader extracts text from PDF files page by page.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load returns one segment per page that contains any text. An empty or
// image-only PDF yields zero segments, which is not an error.
func (l *PDFLoader) Load(filePath string) ([]string, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var segments []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			segments = append(segments, text)
		}
	}
	return segments, nil
}
