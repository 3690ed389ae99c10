// Package common holds helpers shared by the format normalisers.
package common

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// DocID returns the document identifier for a raw file: its name, or the
// base of its URI when no name was supplied.
func DocID(raw *domain.RawDocument) string {
	if raw.Name != "" {
		return raw.Name
	}
	return filepath.Base(raw.URI)
}

// NewDocument builds a normalised document for raw with the extracted
// title and text. Format is recorded in metadata alongside the MIME type.
func NewDocument(raw *domain.RawDocument, title, content, format string) domain.Document {
	metadata := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	metadata["mime_type"] = raw.MIMEType
	if format != "" {
		metadata["format"] = format
	}

	uri := raw.URI
	if uri == "" {
		uri = raw.Name
	}

	return domain.Document{
		ID:        DocID(raw),
		URI:       uri,
		Title:     title,
		Content:   content,
		Region:    raw.Region,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Title returns the title from raw metadata if set, otherwise one derived
// from the file name.
func Title(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return TitleFromName(DocID(raw))
}

// TitleFromName turns a file name into a readable title.
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
