package display

import (
	"testing"

	"github.com/filipexyz/compass/internal/monitor"
)

func TestColorizer_Disabled(t *testing.T) {
	c := NewColorizer(false)

	if !c.IsDisabled() {
		t.Error("IsDisabled() = false, want true")
	}

	tests := []struct {
		name   string
		method func(string) string
	}{
		{"Color", func(s string) string { return c.Color(s, "red") }},
		{"Background", func(s string) string { return c.Background(s, "blue") }},
		{"Bold", c.Bold},
		{"Dim", c.Dim},
		{"Underline", c.Underline},
		{"Cell", func(s string) string { return c.Cell(s, &monitor.ValueStyle{Color: "#ff0000"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.method("test"); got != "test" {
				t.Errorf("%s() = %q, want %q", tt.name, got, "test")
			}
		})
	}
}

func TestColorizer_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if c := NewColorizer(true); !c.IsDisabled() {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestColorizer_EmptyColor(t *testing.T) {
	c := NewColorizer(true)

	if got := c.Color("text", ""); got != "text" {
		t.Errorf("Color with empty color = %q", got)
	}
	if got := c.Cell("text", nil); got != "text" {
		t.Errorf("Cell with nil style = %q", got)
	}
}
