package monitor

import (
	"encoding/json"
	"testing"
)

func TestParseLabelStructure(t *testing.T) {
	tests := []struct {
		name      string
		fragments []LabelFragment
		want      string
	}{
		{
			name: "no fragments",
			want: `""`,
		},
		{
			name:      "single plain fragment",
			fragments: []LabelFragment{{Content: "x", BackgroundColor: BackgroundDefault}},
			want:      `"x"`,
		},
		{
			name:      "single spanning fragment",
			fragments: []LabelFragment{{Content: "x", ColSpan: 2, BackgroundColor: BackgroundCustom, CustomColor: "#fff"}},
			want:      `[{"content":"x","colSpan":2,"style":{"backgroundColor":"#fff"}}]`,
		},
		{
			name:      "named color",
			fragments: []LabelFragment{{Content: "x", BackgroundColor: "red"}},
			want:      `[{"content":"x","style":{"backgroundColor":"red"}}]`,
		},
		{
			name:      "custom without color keeps the mode name",
			fragments: []LabelFragment{{Content: "x", BackgroundColor: BackgroundCustom}},
			want:      `[{"content":"x","style":{"backgroundColor":"custom"}}]`,
		},
		{
			name:      "missing background color is not plain",
			fragments: []LabelFragment{{Content: "x"}},
			want:      `[{"content":"x"}]`,
		},
		{
			name:      "span of one is dropped",
			fragments: []LabelFragment{{Content: "x", ColSpan: 1, RowSpan: 3, BackgroundColor: BackgroundDefault}},
			want:      `[{"content":"x","rowSpan":3}]`,
		},
		{
			name: "mixed fragments",
			fragments: []LabelFragment{
				{Content: "a", BackgroundColor: BackgroundDefault},
				{Content: "b", RowSpan: 2, BackgroundColor: BackgroundDefault},
			},
			want: `["a",{"content":"b","rowSpan":2}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(ParseLabelStructure(tt.fragments))
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLabelStructure_Text(t *testing.T) {
	s, ok := ParseLabelStructure([]LabelFragment{{Content: "x", BackgroundColor: BackgroundDefault}}).Text()
	if !ok || s != "x" {
		t.Errorf("Text() = (%q, %v), want (x, true)", s, ok)
	}

	l := ParseLabelStructure([]LabelFragment{{Content: "x", ColSpan: 2, BackgroundColor: BackgroundDefault}})
	if _, ok := l.Text(); ok {
		t.Error("spanning label should not have a text form")
	}
	styled, ok := l.Parts()[0].(*StyledLabel)
	if !ok {
		t.Fatalf("part is %T, want *StyledLabel", l.Parts()[0])
	}
	if styled.ColSpan != 2 || styled.Style != nil {
		t.Errorf("unexpected styled label %+v", styled)
	}
}

func TestLabelStructure_UnmarshalJSON(t *testing.T) {
	for _, doc := range []string{
		`""`,
		`"x"`,
		`["a",{"content":"b","rowSpan":2}]`,
		`[{"content":"x","colSpan":2,"style":{"backgroundColor":"#fff"}}]`,
	} {
		var l LabelStructure
		if err := json.Unmarshal([]byte(doc), &l); err != nil {
			t.Fatalf("Unmarshal(%s): %v", doc, err)
		}
		out, err := json.Marshal(l)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(out) != doc {
			t.Errorf("got %s, want %s", out, doc)
		}
	}

	var l LabelStructure
	if err := json.Unmarshal([]byte(`42`), &l); err == nil {
		t.Error("expected error for a numeric label")
	}
}
