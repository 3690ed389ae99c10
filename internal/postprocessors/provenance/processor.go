// Package provenance attaches source attribution to chunks.
package provenance

import (
	"context"
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// MaxSectionLength is the rune limit for sections derived from content.
const MaxSectionLength = 120

// Processor stamps doc_id, page, region, title and section onto chunks.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a provenance processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "provenance"
}

// Process copies document attribution onto every chunk.
// An explicit document section wins; otherwise the first non-empty line
// of the document is used.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	section := strings.TrimSpace(doc.Section)
	if section == "" {
		section = DeriveSection(doc.Content)
	}

	for i := range chunks {
		chunks[i].DocID = doc.ID
		chunks[i].Page = doc.Page
		chunks[i].Region = doc.Region
		chunks[i].Title = doc.Title
		if chunks[i].Section == "" {
			chunks[i].Section = section
		}
	}
	return chunks, nil
}

// DeriveSection returns the first non-empty line of content, truncated.
func DeriveSection(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > MaxSectionLength {
			return string(runes[:MaxSectionLength])
		}
		return line
	}
	return ""
}
