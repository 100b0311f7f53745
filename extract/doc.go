// Package extract turns source files into plain text.
//
// Supported formats are PDF, plain text, and DOCX. Extraction returns a
// Document of Pages so the ingestion pipeline can attach page numbers to
// chunks. Formats without pages, txt and docx, come back as a single
// page numbered 1.
package extract
