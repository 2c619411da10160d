package monitor

import (
	"encoding/json"
	"fmt"
)

// Section type tags as seen by renderers.
const (
	TypeForm         = "form"
	TypeWidget       = "widget"
	TypeDescriptions = "descriptions"
	TypeTable        = "table"
)

// Grid widths out of 24 units.
const (
	formSpan   = 16
	widgetSpan = 8
	fullSpan   = 24
)

// Table header captions.
const (
	headerProject   = "项目名"
	headerCondition = "条件"
)

const (
	widgetIcon   = "el-icon-link"
	widgetTarget = "_blank"
	widgetType   = "primary"
	defaultHref  = "#"
)

// Section is one grid cell of a dashboard row. The variants are
// *FormSection, *WidgetSection, *DescriptionsSection, *TableSection and
// *UnknownSection (decoded foreign input only).
type Section interface {
	Kind() string
	Placement() Grid
	isSection()
}

// Grid is the placement of a section in a 24-unit row.
type Grid struct {
	Span   int `json:"span"`
	Offset int `json:"offset,omitempty"`
}

// Placement returns the grid placement.
func (g Grid) Placement() Grid { return g }

// FormSection is the inline query form.
type FormSection struct {
	Grid
	Inline bool       `json:"inline"`
	Items  []FormItem `json:"items"`
}

// FormItem is one input of a form section.
type FormItem struct {
	Label   string         `json:"label"`
	Prop    string         `json:"prop"`
	Value   any            `json:"value"`
	Type    string         `json:"type,omitempty"`
	Options []SelectOption `json:"options,omitempty"`
}

// WidgetSection is the link button bar.
type WidgetSection struct {
	Grid
	Items []WidgetItem `json:"items"`
}

// WidgetItem is one link button.
type WidgetItem struct {
	Text   string `json:"text"`
	Href   string `json:"href"`
	Icon   string `json:"icon"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// DescriptionsSection is a bordered key/value grid.
type DescriptionsSection struct {
	Grid
	Column int               `json:"column"`
	Border bool              `json:"border"`
	Items  []DescriptionItem `json:"items"`
}

// DescriptionItem is one key/value pair.
type DescriptionItem struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// TableSection is one comparison table.
type TableSection struct {
	Grid
	Header []TableHeader `json:"header"`
	Body   TableBody     `json:"body"`
}

// TableHeader is a fixed header column.
type TableHeader struct {
	Label string      `json:"label"`
	Style HeaderStyle `json:"style"`
}

// HeaderStyle is the inline style of a header column.
type HeaderStyle struct {
	Width string `json:"width"`
}

// TableBody holds the rows of a table.
type TableBody struct {
	RowHeader string     `json:"rowHeader"`
	Rows      []TableRow `json:"rows"`
}

// TableRow is one label/value row.
type TableRow struct {
	Label        LabelStructure `json:"label"`
	Value        any            `json:"value"`
	ContentStyle *ValueStyle    `json:"contentStyle,omitempty"`
}

// UnknownSection is a decoded section whose type tag is not recognized.
type UnknownSection struct {
	Grid
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func (*FormSection) Kind() string         { return TypeForm }
func (*WidgetSection) Kind() string       { return TypeWidget }
func (*DescriptionsSection) Kind() string { return TypeDescriptions }
func (*TableSection) Kind() string        { return TypeTable }
func (s *UnknownSection) Kind() string    { return s.Type }

func (*FormSection) isSection()         {}
func (*WidgetSection) isSection()       {}
func (*DescriptionsSection) isSection() {}
func (*TableSection) isSection()        {}
func (*UnknownSection) isSection()      {}

// MarshalJSON adds the type tag.
func (s *FormSection) MarshalJSON() ([]byte, error) {
	type alias FormSection
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{TypeForm, (*alias)(s)})
}

// MarshalJSON adds the type tag.
func (s *WidgetSection) MarshalJSON() ([]byte, error) {
	type alias WidgetSection
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{TypeWidget, (*alias)(s)})
}

// MarshalJSON adds the type tag.
func (s *DescriptionsSection) MarshalJSON() ([]byte, error) {
	type alias DescriptionsSection
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{TypeDescriptions, (*alias)(s)})
}

// MarshalJSON adds the type tag.
func (s *TableSection) MarshalJSON() ([]byte, error) {
	type alias TableSection
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{TypeTable, (*alias)(s)})
}

// MarshalJSON writes back the original document when one was decoded.
func (s *UnknownSection) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type alias UnknownSection
	return json.Marshal((*alias)(s))
}

// DecodeSection decodes one section by its type tag.
func DecodeSection(raw json.RawMessage) (Section, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode section: %w", err)
	}

	var s Section
	switch head.Type {
	case TypeForm:
		s = &FormSection{}
	case TypeWidget:
		s = &WidgetSection{}
	case TypeDescriptions:
		s = &DescriptionsSection{}
	case TypeTable:
		s = &TableSection{}
	default:
		u := &UnknownSection{Raw: append(json.RawMessage(nil), raw...)}
		if err := json.Unmarshal(raw, u); err != nil {
			return nil, fmt.Errorf("decode %q section: %w", head.Type, err)
		}
		return u, nil
	}

	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decode %q section: %w", head.Type, err)
	}
	return s, nil
}

// UnmarshalJSON decodes the section rows by type tag.
func (v *ViewModel) UnmarshalJSON(b []byte) error {
	var raw struct {
		HeaderData [][]json.RawMessage `json:"headerData"`
		InfoData   [][]json.RawMessage `json:"infoData"`
		Remarks    []Remark            `json:"remarks"`
		Tables     []*TableSection     `json:"tables"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	header, err := decodeRows(raw.HeaderData)
	if err != nil {
		return fmt.Errorf("headerData: %w", err)
	}
	info, err := decodeRows(raw.InfoData)
	if err != nil {
		return fmt.Errorf("infoData: %w", err)
	}

	v.HeaderData = header
	v.InfoData = info
	v.Remarks = raw.Remarks
	v.Tables = raw.Tables
	return nil
}

func decodeRows(rows [][]json.RawMessage) ([][]Section, error) {
	out := make([][]Section, len(rows))
	for i, row := range rows {
		out[i] = make([]Section, len(row))
		for j, cell := range row {
			s, err := DecodeSection(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d cell %d: %w", i, j, err)
			}
			out[i][j] = s
		}
	}
	return out, nil
}
