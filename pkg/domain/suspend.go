package domain

import "errors"

// Interrupt is returned by a handler to pause the run and ask the caller for input.
// It is a control signal, not a failure.
type Interrupt struct {
	Payload any
}

func (i *Interrupt) Error() string {
	return "run interrupted: waiting for external input"
}

// Suspend returns an Interrupt carrying payload (e.g. a clarifying question).
func Suspend(payload any) error {
	return &Interrupt{Payload: payload}
}

// AsInterrupt extracts an Interrupt from err, if any.
func AsInterrupt(err error) (*Interrupt, bool) {
	var in *Interrupt
	if errors.As(err, &in) {
		return in, true
	}
	return nil, false
}

// InputRequest is the payload the assistant attaches when it needs more information.
type InputRequest struct {
	Question string   `json:"question"`
	Missing  []string `json:"missing,omitempty"`
}
