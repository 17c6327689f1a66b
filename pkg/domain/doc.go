/*
Package domain contains the core domain models of the Jarvis orchestration engine.

It defines the state threaded through every node execution, the partial updates
that handlers return, the routing decision type, the continuation state used to
suspend and resume a run, and the error taxonomy shared by all layers. The package
is kept pure and free of I/O so that every other layer can depend on it.

# Key Entities

  - WorkflowState: the mutable context of a single run (input, intents, entities, result slots).
  - Update: a partial update produced by a node handler and merged by the executor.
  - Route: the tagged union returned by routers (a single target or a parallel set).
  - Checkpoint: a state snapshot plus position marker, identified by a resume token.
  - Outcome: the result handed back to the caller (completed or suspended).
*/
package domain
