/*
Package ports defines the driven ports (interfaces) of the Jarvis engine.

These interfaces decouple the orchestration core from its collaborators, so the
same graph can run against in-memory, file or Redis persistence and against a
deterministic or LLM-backed extraction service.

# Key Interfaces

  - CheckpointStore: persists suspended runs keyed by single-use resume tokens.
  - ConversationStore: persists caller-side chat history between turns.
  - DistributedLocker: provides distributed locking for concurrent conversation access.
  - Extractor: turns raw user text into intents and entities.
  - ActionHandler: performs one task (send email, create event, ...).
*/
package ports
