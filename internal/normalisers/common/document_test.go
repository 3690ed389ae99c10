package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

func TestDocID(t *testing.T) {
	assert.Equal(t, "leave.md", DocID(&domain.RawDocument{Name: "leave.md", URI: "/x/other.md"}))
	assert.Equal(t, "other.md", DocID(&domain.RawDocument{URI: "/x/other.md"}))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "annual leave policy", Title(&domain.RawDocument{Name: "annual_leave-policy.pdf"}))
	assert.Equal(t, "Leave", Title(&domain.RawDocument{Name: "x.md", Metadata: map[string]any{"title": " Leave "}}))
	assert.Equal(t, "x", Title(&domain.RawDocument{Name: "x.md", Metadata: map[string]any{"title": 42}}))
}

func TestNewDocument(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "leave.md",
		MIMEType: "text/markdown",
		Region:   "UK",
		Metadata: map[string]any{"author": "HR"},
	}

	doc := NewDocument(raw, "Leave", "body", "markdown")

	assert.Equal(t, "leave.md", doc.ID)
	assert.Equal(t, "leave.md", doc.URI)
	assert.Equal(t, "Leave", doc.Title)
	assert.Equal(t, "body", doc.Content)
	assert.Equal(t, "UK", doc.Region)
	assert.Equal(t, "text/markdown", doc.Metadata["mime_type"])
	assert.Equal(t, "markdown", doc.Metadata["format"])
	assert.Equal(t, "HR", doc.Metadata["author"])
	assert.NotContains(t, raw.Metadata, "mime_type")
	assert.False(t, doc.CreatedAt.IsZero())
}
