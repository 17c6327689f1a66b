package domain

// Extraction is what the information-extraction service returns for one user turn.
type Extraction struct {
	Intent             []Intent `json:"intent" mapstructure:"intent"`
	Entities           Entities `json:"entities" mapstructure:"-"`
	NeedsMoreInfo      bool     `json:"needs_more_info" mapstructure:"needs_more_info"`
	ClarifyingQuestion string   `json:"clarifying_question,omitempty" mapstructure:"clarifying_question"`
	Response           string   `json:"response,omitempty" mapstructure:"response"`
}
