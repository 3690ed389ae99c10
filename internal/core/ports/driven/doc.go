// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns chunks and questions into vectors
//   - LLMService: Completes the answer-synthesis prompt
//   - IndexStore: Persists and reloads index snapshots atomically
//   - IndexBuilder: Turns a snapshot into a searchable VectorIndex
//   - NormaliserRegistry: Selects the normaliser for a source file
//   - PostProcessorPipeline: Chunks and annotates normalised documents
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PromptStore: User-editable prompts. Without it, embedded defaults are used.
//   - FeedbackLog: Feedback persistence. Without it, feedback is rejected.
//   - Messenger: Outbound chat replies. Without it, webhook questions are answered but not sent.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser or post-processor package
package driven
