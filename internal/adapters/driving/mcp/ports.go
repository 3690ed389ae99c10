package mcp

import (
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions.
	Ask driving.AskService

	// Retrieval returns ranked policy chunks.
	Retrieval driving.RetrievalService

	// Document describes indexed documents. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}

// Config holds retrieval defaults for the tools and the version reported
// to clients.
type Config struct {
	// Version is reported in the initialize handshake. Defaults to "dev".
	Version string

	// DefaultTopK applies when a tool call does not set top_k.
	DefaultTopK int

	// Regions restricts accepted region filters. Empty accepts any.
	Regions []string
}
