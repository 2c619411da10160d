package cmd

import (
	"reflect"
	"testing"

	"github.com/filipexyz/compass/internal/monitor"
)

func TestFormState(t *testing.T) {
	form := monitor.ParseFormConfig([]monitor.FormItemSpec{
		{Label: "Region", Prop: "region", Type: monitor.FormSelect},
		{Label: "Year", Prop: "year"},
		{Label: "Owner", Prop: "owner"},
	})

	state := formState(form, map[string]any{"region": "EU", "year": 2026.0, "extra": "x"})

	want := map[string]any{"region": "EU", "year": 2026.0, "extra": "x"}
	if got := state.Params(); !reflect.DeepEqual(got, want) {
		t.Errorf("Params() = %v, want %v", got, want)
	}
	if v, ok := state["owner"]; !ok || v != nil {
		t.Errorf("unset control = %v, %v; want nil, true", v, ok)
	}
}

func TestFormState_NoForm(t *testing.T) {
	state := formState(nil, map[string]any{"region": "EU"})
	if got := state.Params(); !reflect.DeepEqual(got, map[string]any{"region": "EU"}) {
		t.Errorf("Params() = %v", got)
	}
	if got := formState(nil, nil).Params(); len(got) != 0 {
		t.Errorf("Params() = %v, want empty", got)
	}
}

func TestFillForm(t *testing.T) {
	vm := monitor.ParseMonitorConfig(&monitor.MonitorConfig{
		Code: "orders",
		Name: "Orders",
		FormItems: []monitor.FormItemSpec{
			{Label: "Region", Prop: "region"},
			{Label: "Year", Prop: "year"},
		},
		WidgetItems: []monitor.WidgetItemSpec{{Text: "Docs"}},
	}, nil)

	form := viewForm(vm)
	if form == nil {
		t.Fatal("view has no form section")
	}
	fillForm(form, formState(form, map[string]any{"region": "EU"}))

	if form.Items[0].Value != "EU" {
		t.Errorf("region = %v, want EU", form.Items[0].Value)
	}
	if form.Items[1].Value != nil {
		t.Errorf("year = %v, want nil", form.Items[1].Value)
	}

	if viewForm(&monitor.ViewModel{}) != nil || viewForm(nil) != nil {
		t.Error("expected no form section")
	}
	fillForm(nil, nil)
}
