// Package plaintext normalises plain text policy files.
//
// Handbook text exported from office tools arrives as UTF-8, UTF-16 with a
// byte order mark, or Windows-1252. All of them are decoded to UTF-8 with
// LF line endings before chunking.
package plaintext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/normalisers/common"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser is the fallback for text formats with no structure worth
// keeping.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"application/json",
		"application/xml",
		"text/xml",
	}
}

// Priority is low so structured normalisers win.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise decodes raw into a single document and records the detected
// encoding in the "encoding" metadata key.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, encoding, err := decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, common.DocID(raw), err)
	}

	doc := common.NewDocument(raw, common.Title(raw), text, "")
	doc.Metadata["encoding"] = encoding
	return &driven.NormaliseResult{Documents: []domain.Document{doc}}, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

var errBinary = errors.New("binary content")

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n\n")

func decode(content []byte) (text, encoding string, err error) {
	var b []byte
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		b, encoding = content[len(bomUTF8):], "utf-8"
	case bytes.HasPrefix(content, bomUTF16LE), bytes.HasPrefix(content, bomUTF16BE):
		b, _, err = transform.Bytes(unicode.BOMOverride(transform.Nop), content)
		if err != nil {
			return "", "", err
		}
		encoding = "utf-16"
	case bytes.IndexByte(content, 0) >= 0:
		return "", "", errBinary
	case utf8.Valid(content):
		b, encoding = content, "utf-8"
	default:
		b, err = charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return "", "", err
		}
		encoding = "windows-1252"
	}
	return lineEndings.Replace(string(b)), encoding, nil
}
