package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history handed to the extraction service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// WorkflowState is the context threaded through every node of a run.
// Handlers receive a copy and describe their changes as an Update.
type WorkflowState struct {
	// UserInput is the raw text of the latest user turn.
	UserInput string `json:"user_input"`

	// Intent lists recognized intent tags in extraction order.
	Intent []Intent `json:"intent,omitempty"`

	Entities Entities `json:"entities,omitempty"`

	// Actions is the set of selected action node names, in selection order.
	// It is non-empty only when NeedsMoreInfo is false.
	Actions []string `json:"actions,omitempty"`

	NeedsMoreInfo      bool   `json:"needs_more_info"`
	ClarifyingQuestion string `json:"clarifying_question,omitempty"`

	// History is prior conversation supplied by the caller. The engine never persists it.
	History []Message `json:"history,omitempty"`

	// Result slots, one per action kind.
	Email     *ActionResult `json:"email_result,omitempty"`
	Calendar  *ActionResult `json:"calendar_result,omitempty"`
	Contact   *ActionResult `json:"contact_result,omitempty"`
	WebSearch *ActionResult `json:"web_search_result,omitempty"`
	Content   *ActionResult `json:"content_result,omitempty"`

	// NodeErrors records contained failures of nodes that own no result slot.
	NodeErrors map[string]string `json:"node_errors,omitempty"`

	// FinalResponse is set only by aggregation or an early-exit node.
	FinalResponse string `json:"final_response,omitempty"`
}

// NewState creates the initial state of a run from raw user input.
func NewState(userInput string, history ...Message) *WorkflowState {
	return &WorkflowState{
		UserInput: userInput,
		Entities:  make(Entities),
		History:   append([]Message(nil), history...),
	}
}

// Result returns the result slot for kind.
func (s *WorkflowState) Result(kind ActionKind) *ActionResult {
	switch kind {
	case ActionEmail:
		return s.Email
	case ActionCalendar:
		return s.Calendar
	case ActionContact:
		return s.Contact
	case ActionWebSearch:
		return s.WebSearch
	case ActionContent:
		return s.Content
	}
	return nil
}

// SetResult writes the result slot for kind. Unknown kinds are ignored.
func (s *WorkflowState) SetResult(kind ActionKind, r *ActionResult) {
	switch kind {
	case ActionEmail:
		s.Email = r
	case ActionCalendar:
		s.Calendar = r
	case ActionContact:
		s.Contact = r
	case ActionWebSearch:
		s.WebSearch = r
	case ActionContent:
		s.Content = r
	}
}

// HasAction reports whether name is among the selected actions.
func (s *WorkflowState) HasAction(name string) bool {
	for _, a := range s.Actions {
		if a == name {
			return true
		}
	}
	return false
}

// HasIntent reports whether the intent was recognized.
func (s *WorkflowState) HasIntent(i Intent) bool {
	for _, got := range s.Intent {
		if got == i {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe for concurrent reads and independent mutation.
func (s *WorkflowState) Clone() *WorkflowState {
	if s == nil {
		return nil
	}
	next := *s
	next.Intent = append([]Intent(nil), s.Intent...)
	next.Entities = s.Entities.clone()
	next.Actions = append([]string(nil), s.Actions...)
	next.History = append([]Message(nil), s.History...)
	next.Email = s.Email.clone()
	next.Calendar = s.Calendar.clone()
	next.Contact = s.Contact.clone()
	next.WebSearch = s.WebSearch.clone()
	next.Content = s.Content.clone()
	if s.NodeErrors != nil {
		next.NodeErrors = make(map[string]string, len(s.NodeErrors))
		for k, v := range s.NodeErrors {
			next.NodeErrors[k] = v
		}
	}
	return &next
}

// uniqueStrings de-duplicates while keeping first-seen order.
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
