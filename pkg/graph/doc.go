/*
Package graph assembles and validates the node/edge topology executed by the runtime.

A graph is declared once, either with the fluent Builder or literally with Assemble,
and is immutable afterwards. A single *Graph is safe to share between any number of
concurrent runs.

	g, err := graph.New().
		AddNode("gather_info", gather, graph.Critical()).
		AddNode("email", sendEmail, graph.Concurrent(), graph.Slot(domain.ActionEmail)).
		AddNode("aggregate_results", aggregate).
		Conditional("gather_info", router, "email", "aggregate_results").
		Edge("email", "aggregate_results").
		Entry("gather_info").
		Terminal("aggregate_results").
		Build()

All assembly problems are collected and returned together; every one of them is a
*domain.ConfigurationError so callers can match with errors.As.
*/
package graph
