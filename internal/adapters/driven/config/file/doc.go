// Package file provides file-based configuration adapters.
// These adapters persist data to the local filesystem under ~/.policyqa.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable LLM prompt templates
package file
