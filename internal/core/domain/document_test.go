package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Attribute(t *testing.T) {
	chunk := Chunk{DocID: "leave.txt", Section: "Leave Policy", Region: "UK"}

	tests := []struct {
		field   FilterField
		value   string
		present bool
	}{
		{FilterFieldRegion, "UK", true},
		{FilterField("doc_id"), "", false},
		{FilterField("tenant"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			v, ok := chunk.Attribute(tt.field)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestChunk_AttributeAbsent(t *testing.T) {
	_, ok := Chunk{DocID: "a.txt"}.Attribute(FilterFieldRegion)
	assert.False(t, ok)
}

func TestIntPtr(t *testing.T) {
	p := IntPtr(3)
	require.NotNil(t, p)
	assert.Equal(t, 3, *p)
}
