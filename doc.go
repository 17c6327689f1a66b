/*
Package jarvis is a personal-assistant orchestration engine.

A user request flows through a small workflow graph: an extraction step recognises
intents and entities, the run suspends to ask a clarifying question when something is
missing, the selected action handlers run concurrently, and their results are combined
into a single reply.

# Concept

The graph engine (internal/runtime) executes nodes in supersteps. A superstep runs every
active node, concurrently when there are several, waits for all of them, and merges
their partial state updates before routing onward. A run ends in one of three ways:

  - completed: a terminal node ran and the final response is set;
  - suspended: a node asked for user input, and an opaque single-use token resumes it;
  - failed: a Go error is returned and nothing is reported as a reply.

Suspended runs live in a ports.CheckpointStore (memory, file or Redis), so a resume may
happen in another process.

# Usage

	a, err := jarvis.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	out, err := a.Run(ctx, "Email alice@example.com about the launch")
	if err != nil {
		log.Fatal(err)
	}
	for out.Suspended() {
		fmt.Println(out.Reply()) // "What should the email say?"
		out, err = a.Resume(ctx, out.Token, readLine())
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(out.Reply())

Chat does the token bookkeeping for named conversations:

	out, err := a.Chat(ctx, "conversation-42", "Schedule a meeting with Bob tomorrow at 10am")
*/
package jarvis
