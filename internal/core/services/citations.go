package services

import (
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// EnrichCitations fills in document URLs for citations that lack one.
// It returns a new slice and never overwrites an existing URL.
func EnrichCitations(citations []domain.Citation, baseURL string) []domain.Citation {
	out := make([]domain.Citation, len(citations))
	copy(out, citations)

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return out
	}
	for i := range out {
		if out[i].URL == "" && out[i].DocID != "" {
			out[i].URL = DocumentURL(base, out[i].DocID)
		}
	}
	return out
}

// DocumentURL joins a docs base URL and a document ID.
// Returns "" when base is empty.
func DocumentURL(base, docID string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return base + "/" + docID
}
