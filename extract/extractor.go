// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/corpus/core"
)

// Page is one page of extracted text. For formats without a page concept
// the whole document is a single page numbered 1.
type Page struct {
	Number int
	Text   string
}

// Document is the extracted text of a source file, in page order.
type Document struct {
	Type  core.SourceType
	Pages []Page
}

// Empty reports whether the document contains no non-whitespace text.
func (d *Document) Empty() bool {
	for _, page := range d.Pages {
		if strings.TrimSpace(page.Text) != "" {
			return false
		}
	}
	return true
}

// File extracts the text of the file at path according to its source type.
// Unknown types return core.ErrUnsupportedType; parse failures are wrapped
// in core.ErrExtractionFailure.
func File(path string, typ core.SourceType) (*Document, error) {
	logger := slog.Default().With("component", "extractor")
	logger.Debug("extracting document", "path", path, "type", typ)

	var pages []Page
	var err error

	switch typ {
	case core.SourceTypePDF:
		pages, err = extractPDF(path)
	case core.SourceTypeTXT:
		pages, err = extractTxt(path)
	case core.SourceTypeDOCX:
		pages, err = extractDocx(path)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedType, typ)
	}
	if err != nil {
		logger.Error("extraction failed", "path", path, "type", typ, "err", err)
		return nil, fmt.Errorf("%w: %s: %v", core.ErrExtractionFailure, path, err)
	}

	logger.Debug("extraction complete", "path", path, "pages", len(pages))
	return &Document{Type: typ, Pages: pages}, nil
}
