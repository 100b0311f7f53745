package extract

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls plain text out of a PDF, one Page per PDF page.
// Pages with no extractable text are skipped; page numbers stay 1-based
// and match the PDF's own numbering.
func extractPDF(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []Page
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", num, err)
		}
		if Normalize(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	return pages, nil
}
