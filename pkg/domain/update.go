package domain

import "sort"

// Update is the partial state change returned by a node handler.
// Nil fields are left untouched by Apply.
type Update struct {
	UserInput          *string
	Intent             []Intent
	Entities           Entities
	Actions            []string
	NeedsMoreInfo      *bool
	ClarifyingQuestion *string
	Results            map[ActionKind]*ActionResult
	NodeErrors         map[string]string
	FinalResponse      *string
}

// Ptr returns a pointer to v. It keeps Update literals short.
func Ptr[T any](v T) *T {
	return &v
}

// WithResult returns an update that only writes one result slot.
func WithResult(kind ActionKind, r *ActionResult) Update {
	return Update{Results: map[ActionKind]*ActionResult{kind: r}}
}

// Empty reports whether the update writes nothing.
func (u Update) Empty() bool {
	return len(u.Fields()) == 0
}

// Fields lists the names of the state fields the update writes, sorted.
// Result slots and node errors are reported per key so that disjoint writers never collide.
func (u Update) Fields() []string {
	var fields []string
	if u.UserInput != nil {
		fields = append(fields, "user_input")
	}
	if u.Intent != nil {
		fields = append(fields, "intent")
	}
	for k := range u.Entities {
		fields = append(fields, "entities."+k)
	}
	if u.Actions != nil {
		fields = append(fields, "actions")
	}
	if u.NeedsMoreInfo != nil {
		fields = append(fields, "needs_more_info")
	}
	if u.ClarifyingQuestion != nil {
		fields = append(fields, "clarifying_question")
	}
	for k := range u.Results {
		fields = append(fields, string(k)+"_result")
	}
	for k := range u.NodeErrors {
		fields = append(fields, "node_errors."+k)
	}
	if u.FinalResponse != nil {
		fields = append(fields, "final_response")
	}
	sort.Strings(fields)
	return fields
}

// Apply merges the update into s. Scalars are overwritten, entities and slots are merged
// key by key. Setting NeedsMoreInfo clears Actions so the actions/needs-more-info invariant holds.
func (u Update) Apply(s *WorkflowState) {
	if u.UserInput != nil {
		s.UserInput = *u.UserInput
	}
	if u.Intent != nil {
		s.Intent = append([]Intent(nil), u.Intent...)
	}
	if len(u.Entities) > 0 {
		if s.Entities == nil {
			s.Entities = make(Entities, len(u.Entities))
		}
		for k, v := range u.Entities.clone() {
			s.Entities[k] = v
		}
	}
	if u.Actions != nil {
		s.Actions = uniqueStrings(u.Actions)
	}
	if u.NeedsMoreInfo != nil {
		s.NeedsMoreInfo = *u.NeedsMoreInfo
	}
	if u.ClarifyingQuestion != nil {
		s.ClarifyingQuestion = *u.ClarifyingQuestion
	}
	for k, r := range u.Results {
		s.SetResult(k, r.clone())
	}
	if len(u.NodeErrors) > 0 {
		if s.NodeErrors == nil {
			s.NodeErrors = make(map[string]string, len(u.NodeErrors))
		}
		for k, v := range u.NodeErrors {
			s.NodeErrors[k] = v
		}
	}
	if u.FinalResponse != nil {
		s.FinalResponse = *u.FinalResponse
	}
	if s.NeedsMoreInfo {
		s.Actions = nil
	}
}
