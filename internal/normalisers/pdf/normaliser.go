// Package pdf normalises PDF policy documents, producing one document
// per page so chunks keep their page number.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
	"github.com/custodia-labs/policy-assistant/internal/normalisers/common"
)

// MIMEType is the PDF MIME type.
const MIMEType = "application/pdf"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts page text from PDF files.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60
}

// Normalise extracts the text of every page. Pages without text are
// skipped; a file with no extractable text at all is rejected.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (result *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: unreadable pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable pdf: %v", domain.ErrInvalidInput, err)
	}

	title := documentTitle(reader)
	if title == "" {
		title = common.Title(raw)
	}

	var docs []domain.Document
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrInvalidInput, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Debug("pdf %s: page %d has no text", raw.Name, i)
			continue
		}

		doc := common.NewDocument(raw, title, text, "pdf")
		doc.Page = domain.IntPtr(i)
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", domain.ErrInvalidInput, common.DocID(raw))
	}
	return &driven.NormaliseResult{Documents: docs}, nil
}

// documentTitle reads /Title from the document information dictionary.
func documentTitle(reader *pdf.Reader) string {
	return strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())
}
