// Package httpapi exposes the policy assistant over HTTP.
//
// Routes mirror the JSON API consumed by the web and chat clients:
// question answering, ingestion uploads, feedback, document links and
// the WhatsApp Cloud API webhook.
package httpapi

import (
	"errors"

	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
)

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("httpapi: ask service is required")

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("httpapi: retrieval service is required")

// Ports aggregates the services the HTTP API drives.
type Ports struct {
	Ask       driving.AskService
	Retrieval driving.RetrievalService
	Ingest    driving.IngestService
	Feedback  driving.FeedbackService
	Document  driving.DocumentService

	// Messenger sends WhatsApp replies. Optional; without it webhook
	// questions are answered but no reply is sent.
	Messenger driven.Messenger
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}

// Config controls HTTP behaviour.
type Config struct {
	// AllowedOrigins lists CORS origins. Empty or "*" allows any.
	AllowedOrigins []string

	// WhatsAppVerifyToken answers the webhook subscription handshake.
	WhatsAppVerifyToken string

	// WhatsAppTopK is the retrieval depth for chat questions.
	WhatsAppTopK int

	// MaxUploadBytes bounds a single ingestion upload.
	MaxUploadBytes int64
}

const (
	defaultWhatsAppTopK   = 4
	defaultMaxUploadBytes = 64 << 20
)
