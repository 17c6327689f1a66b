package domain

// ActionKind identifies one of the task handlers a request can be routed to.
// Each kind owns exactly one result slot in WorkflowState.
type ActionKind string

const (
	ActionEmail     ActionKind = "email"
	ActionCalendar  ActionKind = "calendar"
	ActionContact   ActionKind = "contact"
	ActionWebSearch ActionKind = "web_search"
	ActionContent   ActionKind = "content"
)

// ActionOrder is the fixed priority order used when results are summarised.
var ActionOrder = []ActionKind{
	ActionEmail,
	ActionCalendar,
	ActionContact,
	ActionWebSearch,
	ActionContent,
}

// Valid reports whether k is one of the known action kinds.
func (k ActionKind) Valid() bool {
	for _, known := range ActionOrder {
		if k == known {
			return true
		}
	}
	return false
}

// Title returns a human-readable label for the kind.
func (k ActionKind) Title() string {
	switch k {
	case ActionEmail:
		return "Email"
	case ActionCalendar:
		return "Calendar"
	case ActionContact:
		return "Contact"
	case ActionWebSearch:
		return "Web search"
	case ActionContent:
		return "Content"
	}
	return string(k)
}

// ResultStatus is the outcome reported by an action handler.
type ResultStatus string

// Standard statuses. Handlers may report others; only StatusError is special.
const (
	StatusSent    ResultStatus = "SENT"
	StatusCreated ResultStatus = "CREATED"
	StatusFound   ResultStatus = "FOUND"
	StatusDeleted ResultStatus = "DELETED"
	StatusOK      ResultStatus = "OK"
	StatusError   ResultStatus = "ERROR"
)

// ActionResult is the structured output of an action handler.
type ActionResult struct {
	Status ResultStatus   `json:"status" mapstructure:"status"`
	Detail string         `json:"detail,omitempty" mapstructure:"detail"`
	Data   map[string]any `json:"data,omitempty" mapstructure:"data"`
	Error  string         `json:"error,omitempty" mapstructure:"error"`
}

// IsError reports whether the result represents a failed action.
func (r *ActionResult) IsError() bool {
	return r != nil && r.Status == StatusError
}

// ErrorResult builds the result recorded for a contained handler failure.
func ErrorResult(err error) *ActionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &ActionResult{Status: StatusError, Error: msg}
}

func (r *ActionResult) clone() *ActionResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Data != nil {
		c.Data = make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			c.Data[k] = v
		}
	}
	return &c
}
