package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCheckpointNotFound is returned by checkpoint stores for unknown or consumed tokens.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrConversationNotFound is returned by conversation stores for unknown ids.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidResumeToken matches every *InvalidResumeTokenError via errors.Is.
	ErrInvalidResumeToken = errors.New("invalid resume token")

	// ErrSuperstepLimit is returned when a run exceeds its superstep budget.
	ErrSuperstepLimit = errors.New("superstep limit exceeded")

	// ErrUnexpectedSuspend is wrapped when a node suspends outside a declared suspension point.
	ErrUnexpectedSuspend = errors.New("suspension is only allowed at declared suspension points outside fan-out")

	// ErrNoEntry is reported when a graph is assembled without an entry node.
	ErrNoEntry = errors.New("graph has no entry node")

	// ErrNoReentry is reported when a graph declares suspension points but no re-entry node.
	ErrNoReentry = errors.New("graph has suspension points but no re-entry node")
)

// ConfigurationError wraps every topology error detected at assembly time.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid graph configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DuplicateNodeError is returned when a node name is registered twice.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q registered more than once", e.Node)
}

// UnknownNodeError is returned when an edge or position references an unregistered node.
type UnknownNodeError struct {
	Node string
	Ref  string // where it was referenced, e.g. "edge from gather_info"
}

func (e *UnknownNodeError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("unknown node %q", e.Node)
	}
	return fmt.Sprintf("unknown node %q referenced by %s", e.Node, e.Ref)
}

// UnreachableNodeError is returned when a node cannot be reached from the entry.
type UnreachableNodeError struct {
	Node string
}

func (e *UnreachableNodeError) Error() string {
	return fmt.Sprintf("node %q is unreachable from the entry node", e.Node)
}

// RoutingError is returned when a router selects a target outside its declared set.
// It is fatal to the run.
type RoutingError struct {
	Node    string
	Targets []string
	Allowed []string
}

func (e *RoutingError) Error() string {
	if len(e.Targets) == 0 {
		return fmt.Sprintf("router at %q selected no target (allowed: %s)", e.Node, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("router at %q selected [%s] outside allowed targets [%s]",
		e.Node, strings.Join(e.Targets, ", "), strings.Join(e.Allowed, ", "))
}

// HandlerError reports a failed node handler that aborted the run.
type HandlerError struct {
	Node string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// InvalidResumeTokenError is returned by Resume for unknown, expired or consumed tokens.
type InvalidResumeTokenError struct {
	Token string
}

func (e *InvalidResumeTokenError) Error() string {
	return fmt.Sprintf("invalid resume token %q: unknown, expired or already consumed", e.Token)
}

func (e *InvalidResumeTokenError) Is(target error) bool {
	return target == ErrInvalidResumeToken
}
