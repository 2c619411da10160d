package cmd

import (
	"maps"
	"slices"

	"github.com/filipexyz/compass/internal/monitor"
)

// formState replays params as control updates on form, in prop order. Props
// of select items change as selections, everything else as typed input.
// Params without a control are kept.
func formState(form *monitor.FormSection, params map[string]any) monitor.FormState {
	kinds := map[string]monitor.FormUpdateKind{}
	if form != nil {
		for _, item := range form.Items {
			if item.Type == monitor.FormSelect {
				kinds[item.Prop] = monitor.FormSelectChanged
			}
		}
	}

	state := monitor.NewFormState(form)
	for _, prop := range slices.Sorted(maps.Keys(params)) {
		state, _ = state.Apply(monitor.FormUpdate{
			Kind:  kinds[prop],
			Prop:  prop,
			Value: params[prop],
		})
	}
	return state
}

// viewForm returns the form section of vm, if any.
func viewForm(vm *monitor.ViewModel) *monitor.FormSection {
	if vm == nil {
		return nil
	}
	for _, row := range vm.HeaderData {
		for _, s := range row {
			if form, ok := s.(*monitor.FormSection); ok {
				return form
			}
		}
	}
	return nil
}

// fillForm shows the values of state in form.
func fillForm(form *monitor.FormSection, state monitor.FormState) {
	if form == nil {
		return
	}
	for i := range form.Items {
		form.Items[i].Value = state[form.Items[i].Prop]
	}
}
