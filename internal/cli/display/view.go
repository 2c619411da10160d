package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/filipexyz/compass/internal/monitor"
	"github.com/mattn/go-runewidth"
)

// ViewRenderer writes a parsed dashboard page as terminal text.
type ViewRenderer struct {
	colorizer *Colorizer
}

// NewViewRenderer creates a view renderer.
func NewViewRenderer(colorizer *Colorizer) *ViewRenderer {
	return &ViewRenderer{colorizer: colorizer}
}

// Render writes the header rows, info rows, remarks and tables of vm in
// that order.
func (r *ViewRenderer) Render(w io.Writer, vm *monitor.ViewModel) error {
	var buf bytes.Buffer

	for _, row := range vm.HeaderData {
		for _, s := range row {
			r.renderSection(&buf, s)
		}
	}
	for _, row := range vm.InfoData {
		for _, s := range row {
			r.renderSection(&buf, s)
		}
	}

	if len(vm.Remarks) > 0 {
		buf.WriteString(r.colorizer.Bold("Remarks") + "\n")
		for _, rm := range vm.Remarks {
			fmt.Fprintf(&buf, "  %s %s\n", r.colorizer.Dim(rm.Title+":"), FormatValue(rm.Content))
		}
		buf.WriteString("\n")
	}

	for _, t := range vm.Tables {
		r.renderSection(&buf, t)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func (r *ViewRenderer) renderSection(buf *bytes.Buffer, s monitor.Section) {
	switch s := s.(type) {
	case *monitor.FormSection:
		r.renderForm(buf, s)
	case *monitor.WidgetSection:
		r.renderWidget(buf, s)
	case *monitor.DescriptionsSection:
		r.renderDescriptions(buf, s)
	case *monitor.TableSection:
		r.renderTable(buf, s)
	default:
		fmt.Fprintf(buf, "%s: renderer not found.\n", s.Kind())
	}
}

func (r *ViewRenderer) renderForm(buf *bytes.Buffer, s *monitor.FormSection) {
	if len(s.Items) == 0 {
		return
	}
	parts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		value := FormatValue(item.Value)
		if value == "" {
			value = "-"
		}
		part := r.colorizer.Dim(item.Label+":") + " " + value
		if item.Type == monitor.FormSelect && len(item.Options) > 0 {
			choices := make([]string, len(item.Options))
			for i, o := range item.Options {
				choices[i] = o.Label
			}
			part += r.colorizer.Dim(" (" + strings.Join(choices, "|") + ")")
		}
		parts = append(parts, part)
	}
	buf.WriteString(strings.Join(parts, "   ") + "\n")
}

func (r *ViewRenderer) renderWidget(buf *bytes.Buffer, s *monitor.WidgetSection) {
	if len(s.Items) == 0 {
		return
	}
	parts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		parts = append(parts, r.colorizer.Underline(item.Text)+r.colorizer.Dim(" <"+item.Href+">"))
	}
	buf.WriteString(strings.Join(parts, "  ") + "\n")
}

// renderDescriptions lays the items out Column pairs per line.
func (r *ViewRenderer) renderDescriptions(buf *bytes.Buffer, s *monitor.DescriptionsSection) {
	if len(s.Items) == 0 {
		return
	}
	cols := s.Column
	if cols <= 0 {
		cols = 1
	}

	labels := make([]string, len(s.Items))
	values := make([]string, len(s.Items))
	labelWidth := make([]int, cols)
	valueWidth := make([]int, cols)
	for i, item := range s.Items {
		labels[i] = item.Label
		values[i] = FormatValue(item.Value)
		c := i % cols
		labelWidth[c] = max(labelWidth[c], runewidth.StringWidth(labels[i]))
		valueWidth[c] = max(valueWidth[c], runewidth.StringWidth(values[i]))
	}

	for i := range s.Items {
		c := i % cols
		label := runewidth.FillRight(labels[i], labelWidth[c])
		value := values[i]
		if c < cols-1 && i < len(s.Items)-1 {
			value = runewidth.FillRight(value, valueWidth[c])
		}
		buf.WriteString(r.colorizer.Dim(label) + "  " + value)
		if c == cols-1 || i == len(s.Items)-1 {
			buf.WriteString("\n")
		} else {
			buf.WriteString("   ")
		}
	}
	buf.WriteString("\n")
}

func (r *ViewRenderer) renderTable(buf *bytes.Buffer, s *monitor.TableSection) {
	if s.Body.RowHeader != "" {
		buf.WriteString(r.colorizer.Bold(s.Body.RowHeader) + "\n")
	}

	labels := make([]string, len(s.Body.Rows))
	values := make([]string, len(s.Body.Rows))
	var labelWidth, valueWidth int
	if len(s.Header) > 0 {
		labelWidth = runewidth.StringWidth(s.Header[0].Label)
	}
	if len(s.Header) > 1 {
		valueWidth = runewidth.StringWidth(s.Header[1].Label)
	}
	for i, row := range s.Body.Rows {
		labels[i] = LabelText(row.Label)
		values[i] = FormatValue(row.Value)
		labelWidth = max(labelWidth, runewidth.StringWidth(labels[i]))
		valueWidth = max(valueWidth, runewidth.StringWidth(values[i]))
	}

	if len(s.Header) > 0 {
		cells := make([]string, len(s.Header))
		for i, h := range s.Header {
			width := valueWidth
			if i == 0 {
				width = labelWidth
			}
			cells[i] = r.colorizer.Bold(runewidth.FillRight(h.Label, width))
		}
		buf.WriteString(strings.Join(cells, " │ ") + "\n")
		buf.WriteString(r.colorizer.Dim(strings.Repeat("─", labelWidth+valueWidth+3)) + "\n")
	}

	for i, row := range s.Body.Rows {
		label := r.styleLabel(row.Label, runewidth.FillRight(labels[i], labelWidth))
		buf.WriteString(label + " │ " + r.colorizer.Cell(values[i], row.ContentStyle) + "\n")
	}
	buf.WriteString("\n")
}

// styleLabel colors a padded label when its first styled cell has a
// background color.
func (r *ViewRenderer) styleLabel(l monitor.LabelStructure, padded string) string {
	for _, part := range l.Parts() {
		if sl, ok := part.(*monitor.StyledLabel); ok && sl.Style != nil && sl.Style.BackgroundColor != "" {
			return r.colorizer.Background(padded, sl.Style.BackgroundColor)
		}
	}
	return padded
}

// LabelText flattens a row label to plain text.
func LabelText(l monitor.LabelStructure) string {
	if s, ok := l.Text(); ok {
		return s
	}
	parts := make([]string, 0, len(l.Parts()))
	for _, part := range l.Parts() {
		switch p := part.(type) {
		case monitor.PlainLabel:
			parts = append(parts, string(p))
		case *monitor.StyledLabel:
			parts = append(parts, p.Content)
		}
	}
	return strings.Join(parts, " / ")
}

// FormatValue renders a resolved view value as text.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool, int, int64, int32, uint, uint64, json.Number:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
