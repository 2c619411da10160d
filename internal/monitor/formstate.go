package monitor

import "maps"

// FormState holds the current values of a form section keyed by prop.
// It is a value: Apply never mutates its receiver.
type FormState map[string]any

// NewFormState seeds a state from the initial item values.
func NewFormState(form *FormSection) FormState {
	state := FormState{}
	if form == nil {
		return state
	}
	for _, item := range form.Items {
		state[item.Prop] = item.Value
	}
	return state
}

// FormUpdateKind distinguishes user interactions.
type FormUpdateKind int

const (
	// FormInputChanged is a keystroke in an input control.
	FormInputChanged FormUpdateKind = iota
	// FormSelectChanged is a choice in a select control.
	FormSelectChanged
	// FormEnterPressed is the enter key in an input control.
	FormEnterPressed
)

// FormUpdate is one state-update message sent by a form control.
type FormUpdate struct {
	Kind  FormUpdateKind
	Prop  string
	Value any
}

// FormEventKind is what the owner of the form should react to.
type FormEventKind string

const (
	FormChanged FormEventKind = "changed"
	FormEntered FormEventKind = "entered"
)

// FormEvent carries a snapshot of the state after the update.
type FormEvent struct {
	Kind  FormEventKind
	State FormState
}

// Apply returns the state after u and the events it produces. Select
// changes both change and confirm the form; enter only confirms it.
func (s FormState) Apply(u FormUpdate) (FormState, []FormEvent) {
	next := maps.Clone(s)
	if next == nil {
		next = FormState{}
	}

	switch u.Kind {
	case FormInputChanged:
		next[u.Prop] = u.Value
		return next, []FormEvent{{Kind: FormChanged, State: next}}
	case FormSelectChanged:
		next[u.Prop] = u.Value
		return next, []FormEvent{
			{Kind: FormChanged, State: next},
			{Kind: FormEntered, State: next},
		}
	case FormEnterPressed:
		return next, []FormEvent{{Kind: FormEntered, State: next}}
	}
	return next, nil
}

// Params returns the state as request parameters, dropping unset values.
func (s FormState) Params() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
