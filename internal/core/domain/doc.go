// Package domain holds the types the policy assistant reasons about.
//
// A policy file becomes one Document per page. Documents are split into
// Chunks that keep their doc_id, page and section so every answer can cite
// where it came from. The embedded chunks of one corpus form an
// IndexSnapshot, and a question produces a SynthesizedAnswer with
// citations, a confidence level and a disclaimer.
//
// The package imports only the standard library.
package domain
