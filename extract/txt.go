package extract

import (
	"os"
	"strings"
	"unicode/utf8"
)

// extractTxt reads a plain text file as a single page. Files that are not
// valid UTF-8 are decoded as Latin-1 so legacy exports still ingest.
func extractTxt(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		text = decodeLatin1(data)
	}

	return []Page{{Number: 1, Text: text}}, nil
}

// decodeLatin1 maps each byte to the Unicode code point of the same value.
func decodeLatin1(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}
