package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]*>`)
)

// extractDocx reads a .docx file as a single page. The document content
// comes back as WordprocessingML, so paragraph ends become newlines and
// the remaining tags are stripped.
func extractDocx(path string) ([]Page, error) {
	reader, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = strings.TrimSpace(content)

	return []Page{{Number: 1, Text: content}}, nil
}
