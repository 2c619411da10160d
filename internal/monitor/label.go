package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Label is one normalized row-label cell: PlainLabel or *StyledLabel.
type Label interface {
	isLabel()
}

// PlainLabel is a label cell without spans or styling.
type PlainLabel string

// StyledLabel is a label cell carrying only the attributes that deviate
// from the defaults.
type StyledLabel struct {
	Content string      `json:"content"`
	ColSpan int         `json:"colSpan,omitempty"`
	RowSpan int         `json:"rowSpan,omitempty"`
	Style   *LabelStyle `json:"style,omitempty"`
}

// LabelStyle is the inline style of a styled label cell.
type LabelStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

func (PlainLabel) isLabel()   {}
func (*StyledLabel) isLabel() {}

// LabelStructure is a normalized row label. It encodes as "" when empty, as a
// bare string for the single plain fragment case, and as an array otherwise.
type LabelStructure struct {
	parts  []Label
	single bool
}

// TextLabel returns the single-string form of a label structure.
func TextLabel(s string) LabelStructure {
	if s == "" {
		return LabelStructure{}
	}
	return LabelStructure{parts: []Label{PlainLabel(s)}, single: true}
}

// ListLabel returns the array form of a label structure.
func ListLabel(parts ...Label) LabelStructure {
	return LabelStructure{parts: parts}
}

// IsEmpty reports whether the label has no fragments.
func (l LabelStructure) IsEmpty() bool {
	return len(l.parts) == 0
}

// Text returns the bare string when the label is in single-string form.
func (l LabelStructure) Text() (string, bool) {
	if l.IsEmpty() {
		return "", true
	}
	if !l.single {
		return "", false
	}
	return string(l.parts[0].(PlainLabel)), true
}

// Parts returns the label cells in order.
func (l LabelStructure) Parts() []Label {
	return l.parts
}

// MarshalJSON implements json.Marshaler.
func (l LabelStructure) MarshalJSON() ([]byte, error) {
	if s, ok := l.Text(); ok {
		return json.Marshal(s)
	}
	out := make([]any, len(l.parts))
	for i, p := range l.parts {
		switch p := p.(type) {
		case PlainLabel:
			out[i] = string(p)
		case *StyledLabel:
			out[i] = p
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LabelStructure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = LabelStructure{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = TextLabel(s)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("label: expected string or array: %w", err)
	}

	parts := make([]Label, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			parts = append(parts, PlainLabel(s))
			continue
		}
		var sl StyledLabel
		if err := json.Unmarshal(r, &sl); err != nil {
			return fmt.Errorf("label cell: %w", err)
		}
		parts = append(parts, &sl)
	}
	*l = ListLabel(parts...)
	return nil
}

// isPlainFragment reports whether a fragment collapses to a bare string.
func isPlainFragment(f LabelFragment) bool {
	return f.ColSpan <= 1 && f.RowSpan <= 1 && f.BackgroundColor == BackgroundDefault
}

// ParseLabelStructure normalizes row label fragments.
func ParseLabelStructure(fragments []LabelFragment) LabelStructure {
	if len(fragments) == 0 {
		return LabelStructure{}
	}

	if len(fragments) == 1 && isPlainFragment(fragments[0]) {
		return TextLabel(fragments[0].Content)
	}

	parts := make([]Label, len(fragments))
	for i, f := range fragments {
		parts[i] = parseLabelFragment(f)
	}
	return ListLabel(parts...)
}

func parseLabelFragment(f LabelFragment) Label {
	if isPlainFragment(f) {
		return PlainLabel(f.Content)
	}

	l := &StyledLabel{Content: f.Content}
	if f.ColSpan > 1 {
		l.ColSpan = f.ColSpan
	}
	if f.RowSpan > 1 {
		l.RowSpan = f.RowSpan
	}

	if f.BackgroundColor != "" && f.BackgroundColor != BackgroundDefault {
		color := f.BackgroundColor
		if f.BackgroundColor == BackgroundCustom && f.CustomColor != "" {
			color = f.CustomColor
		}
		l.Style = &LabelStyle{BackgroundColor: color}
	}
	return l
}
