package services

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

const (
	unknownDocID = "unknown"
	absentValue  = "none"
)

// ComposeContext renders retrieved chunks as the context block of the
// completion prompt. Each chunk becomes a header line and its text;
// blocks are separated by a blank line and keep the ranking order.
func ComposeContext(results []domain.RetrievalResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, composeBlock(r.Chunk))
	}
	return strings.Join(blocks, "\n\n")
}

func composeBlock(c domain.Chunk) string {
	docID := c.DocID
	if docID == "" {
		docID = unknownDocID
	}
	section := c.Section
	if section == "" {
		section = absentValue
	}
	page := absentValue
	if c.Page != nil {
		page = strconv.Itoa(*c.Page)
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(docID)
	b.WriteString(" | section: ")
	b.WriteString(section)
	b.WriteString(" | page: ")
	b.WriteString(page)
	b.WriteString("]\n")
	b.WriteString(c.Text)
	return b.String()
}
