package driven

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// NormaliserRegistry dispatches a policy file to the highest-priority
// normaliser for its MIME type.
type NormaliserRegistry interface {
	// Normalise fails with domain.ErrUnsupportedType when no normaliser
	// accepts the file's MIME type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)

	// SupportedMIMETypes lists what ingestion accepts, sorted.
	SupportedMIMETypes() []string
}
