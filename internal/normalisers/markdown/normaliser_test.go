package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.ElementsMatch(t, []string{"text/markdown", "text/x-markdown"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "annual-leave.md",
		URI:      "policies/annual-leave.md",
		MIMEType: "text/markdown",
		Region:   "UK",
		Content:  []byte("# Annual Leave Policy\n\nEmployees receive **25 days** of leave.\n\n## Carry over\n\n- Up to *5 days* may be carried over.\n"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	assert.Equal(t, "annual-leave.md", doc.ID)
	assert.Equal(t, "policies/annual-leave.md", doc.URI)
	assert.Equal(t, "Annual Leave Policy", doc.Title)
	assert.Equal(t, "UK", doc.Region)
	assert.Nil(t, doc.Page)
	assert.Equal(t, "Annual Leave Policy\n\nEmployees receive 25 days of leave.\n\nCarry over\n\nUp to 5 days may be carried over.", doc.Content)
	assert.Equal(t, "markdown", doc.Metadata["format"])
	assert.Equal(t, "text/markdown", doc.Metadata["mime_type"])
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	raw := &domain.RawDocument{Name: "sick_pay.md", Content: []byte("## Only a subheading\nText")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "sick pay", result.Documents[0].Title)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"links keep text", "See [the handbook](https://hr/handbook).", "See the handbook."},
		{"images removed", "Logo ![logo](a.png) here", "Logo  here"},
		{"inline code keeps text", "Set `remote_days` to 2", "Set remote_days to 2"},
		{"fences removed", "```\ncode line\n```", "code line"},
		{"blockquote", "> Quoted rule", "Quoted rule"},
		{"horizontal rule", "Above\n\n---\n\nBelow", "Above\n\nBelow"},
		{"numbered list kept", "1. First step\n2. Second step", "1. First step\n2. Second step"},
		{"snake case kept", "the notice_period value", "the notice_period value"},
		{"table rule removed", "| Days | Role |\n|---|---|\n| 25 | Staff |", "| Days | Role |\n\n| 25 | Staff |"},
		{"crlf", "Line one\r\nLine two", "Line one\nLine two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripMarkdown(tt.input))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
