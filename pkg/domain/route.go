package domain

// Router chooses the next node(s) from the current state. It must be pure.
type Router func(state *WorkflowState) Route

// Route is the decision returned by a Router: either a single target or a
// parallel set. Downstream code always consumes it as a set via Targets.
type Route struct {
	targets  []string
	parallel bool
}

// Single routes to exactly one node.
func Single(name string) Route {
	return Route{targets: []string{name}}
}

// Parallel routes to every named node at once (fan-out).
// Duplicates are dropped; the first-seen order is kept.
func Parallel(names ...string) Route {
	return Route{targets: uniqueStrings(names), parallel: true}
}

// Targets returns the routed node names in declaration order.
func (r Route) Targets() []string {
	return append([]string(nil), r.targets...)
}

// IsParallel reports whether the route was built with Parallel.
func (r Route) IsParallel() bool {
	return r.parallel
}

// Empty reports whether the route selects nothing.
func (r Route) Empty() bool {
	return len(r.targets) == 0
}
