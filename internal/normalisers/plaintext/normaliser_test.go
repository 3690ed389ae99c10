package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/plain")
	assert.NotContains(t, mimeTypes, "text/html")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "remote-work.txt",
		URI:      "/policies/remote-work.txt",
		MIMEType: "text/plain",
		Content:  []byte("Remote Work\n\nStaff may work remotely two days a week."),
		Metadata: map[string]any{"owner": "HR"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	assert.Equal(t, "remote-work.txt", doc.ID)
	assert.Equal(t, "remote work", doc.Title)
	assert.Equal(t, string(raw.Content), doc.Content)
	assert.Equal(t, "HR", doc.Metadata["owner"])
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_Encodings(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		want     string
		encoding string
	}{
		{"utf-8", []byte("Meal allowance: €25"), "Meal allowance: €25", "utf-8"},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "Leave"...), "Leave", "utf-8"},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'H', 0, 'R', 0}, "HR", "utf-16"},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0, 'H', 0, 'R'}, "HR", "utf-16"},
		{"windows-1252", []byte("Caf\xe9 allowance \x80 5"), "Café allowance € 5", "windows-1252"},
		{"crlf", []byte("Section 1\r\nLeave\rSick\fPage 2"), "Section 1\nLeave\nSick\n\nPage 2", "utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawDocument{Name: "policy.txt", MIMEType: "text/plain", Content: tt.content}

			result, err := New().Normalise(context.Background(), raw)

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Documents[0].Content)
			assert.Equal(t, tt.encoding, result.Documents[0].Metadata["encoding"])
		})
	}
}

func TestNormalise_RejectsBinary(t *testing.T) {
	raw := &domain.RawDocument{Name: "handbook.txt", Content: []byte{'P', 'K', 0x03, 0x04, 0x00, 0x00}}

	_, err := New().Normalise(context.Background(), raw)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "handbook.txt")
}

func TestNormalise_TitleFromMetadata(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "doc1.txt",
		Content:  []byte("x"),
		Metadata: map[string]any{"title": "Expenses Policy"},
	}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Expenses Policy", result.Documents[0].Title)
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "Congés payés: 25 jours. 年假政策。"
	raw := &domain.RawDocument{Name: "conges.txt", Content: []byte(content)}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, content, result.Documents[0].Content)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func BenchmarkNormalise(b *testing.B) {
	n := New()
	raw := &domain.RawDocument{Name: "big.txt", Content: []byte(strings.Repeat("Policy text. ", 10000))}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = n.Normalise(ctx, raw)
	}
}
