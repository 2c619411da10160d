package monitor

import (
	"reflect"
	"testing"
)

func TestSelectOptions(t *testing.T) {
	cfg := &MonitorConfig{
		FormItems: []FormItemSpec{
			{Label: "Region", Prop: "region", Type: FormSelect, Expression: "regions"},
			{Label: "Owner", Prop: "owner", Type: FormSelect, Expression: "user.name"},
			{Label: "Level", Prop: "level", Type: FormSelect, Expression: "levels"},
			{Label: "Missing", Prop: "missing", Type: FormSelect, Expression: "nope"},
			{Label: "Static", Prop: "static", Type: FormSelect},
			{Label: "Free", Prop: "free", Type: FormInput, Expression: "regions"},
		},
	}
	data := map[string]any{
		"regions": []any{"eu", "us", "eu", nil, "ap"},
		"levels":  []any{1.0, 2.5, 1.0},
		"user":    map[string]any{"name": "bob"},
	}

	want := map[string][]string{
		"region":  {"eu", "us", "ap"},
		"owner":   {"bob"},
		"level":   {"1", "2.5"},
		"missing": {},
	}
	if got := SelectOptions(cfg, data); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := SelectOptions(nil, data); len(got) != 0 {
		t.Errorf("nil config: got %v", got)
	}
}
