package tui

import (
	"github.com/goliatone/go-formbind/pkg/forms"
)

// State tracks the answers collected so far, keyed by wire name, and the
// messages to show when a field is prompted again.
type State struct {
	values forms.Values
	errors map[string][]string
}

// NewState seeds the state with messages shown on the first round.
func NewState(errs map[string][]string) *State {
	return &State{
		values: forms.Values{},
		errors: cloneErrors(errs),
	}
}

// Values returns the collected answers (mutable).
func (s *State) Values() forms.Values {
	if s == nil {
		return nil
	}
	return s.values
}

// Default returns the first collected value for name.
func (s *State) Default(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	values, ok := s.values[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Set replaces the answers recorded under name.
func (s *State) Set(name string, values ...string) {
	s.values.Set(name, values...)
}

// Clear drops name from the answers, which a submission reads as
// "not sent" (an unchecked checkbox).
func (s *State) Clear(name string) {
	delete(s.values, name)
}

// ErrorsFor returns the messages attached to a wire name.
func (s *State) ErrorsFor(name string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	return s.errors[name]
}

// SetErrors replaces the messages for the next round.
func (s *State) SetErrors(errs map[string][]string) {
	s.errors = cloneErrors(errs)
}

func cloneErrors(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
