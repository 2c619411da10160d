package monitor

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParseFormConfig(t *testing.T) {
	if got := ParseFormConfig(nil); got != nil {
		t.Errorf("nil items: got %+v, want nil", got)
	}
	if got := ParseFormConfig([]FormItemSpec{}); got != nil {
		t.Errorf("empty items: got %+v, want nil", got)
	}

	form := ParseFormConfig([]FormItemSpec{{Label: "A", Prop: "a"}})
	if form == nil {
		t.Fatal("expected a form section")
	}
	if form.Span != 16 || !form.Inline {
		t.Errorf("unexpected placement %+v inline=%v", form.Grid, form.Inline)
	}
	want := []FormItem{{Label: "A", Prop: "a", Value: nil}}
	if !reflect.DeepEqual(form.Items, want) {
		t.Errorf("items = %+v, want %+v", form.Items, want)
	}

	b, err := json.Marshal(form)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	const doc = `{"type":"form","span":16,"inline":true,"items":[{"label":"A","prop":"a","value":null}]}`
	if string(b) != doc {
		t.Errorf("got %s, want %s", b, doc)
	}
}

func TestParseWidgetConfig(t *testing.T) {
	if got := ParseWidgetConfig(nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}

	w := ParseWidgetConfig([]WidgetItemSpec{
		{Text: "Docs", Href: "https://example.com"},
		{Text: "Home"},
	})
	if w == nil || w.Span != 8 {
		t.Fatalf("unexpected widget section %+v", w)
	}
	want := []WidgetItem{
		{Text: "Docs", Href: "https://example.com", Icon: "el-icon-link", Target: "_blank", Type: "primary"},
		{Text: "Home", Href: "#", Icon: "el-icon-link", Target: "_blank", Type: "primary"},
	}
	if !reflect.DeepEqual(w.Items, want) {
		t.Errorf("items = %+v, want %+v", w.Items, want)
	}
}

func TestParseDescriptionsConfig(t *testing.T) {
	if got := ParseDescriptionsConfig(nil, sampleData()); got != nil {
		t.Errorf("got %+v, want nil", got)
	}

	d := ParseDescriptionsConfig([]FieldSpec{
		{Label: "Name", Expression: "user.name", DisplayType: DisplayDirect},
		{Label: "Missing", Expression: "nope"},
		{Label: "Double", Expression: "value * 2", ValueKey: "count", DisplayType: DisplayComputed},
	}, sampleData())
	if d == nil {
		t.Fatal("expected a descriptions section")
	}
	if d.Span != 24 || d.Column != 4 || !d.Border {
		t.Errorf("unexpected layout %+v", d)
	}
	want := []DescriptionItem{
		{Label: "Name", Value: "bob"},
		{Label: "Missing", Value: NotAvailable},
		{Label: "Double", Value: 82.0},
	}
	if !reflect.DeepEqual(d.Items, want) {
		t.Errorf("items = %+v, want %+v", d.Items, want)
	}
}

func TestParseRemarkConfig(t *testing.T) {
	if got := ParseRemarkConfig(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}

	got := ParseRemarkConfig([]FieldSpec{{Title: "Note", Expression: "title"}}, sampleData())
	want := []Remark{{Title: "Note", Content: "lot"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseTableConfig(t *testing.T) {
	if got := ParseTableConfig(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}

	specs := []TableSpec{
		{
			RowHeader: "Checks",
			Rows: []RowSpec{
				{
					LabelItems: []LabelFragment{{Content: "Owner", BackgroundColor: BackgroundDefault}},
					Expression: "user.name",
					ValueStyle: &ValueStyle{Color: "red"},
				},
				{
					LabelItems: []LabelFragment{{Content: "Count", ColSpan: 2, BackgroundColor: BackgroundDefault}},
					Expression: "count",
					ValueStyle: &ValueStyle{},
				},
			},
		},
		{RowHeader: "Empty"},
	}

	tables := ParseTableConfig(specs, sampleData())
	if len(tables) != len(specs) {
		t.Fatalf("got %d tables, want %d", len(tables), len(specs))
	}

	tbl := tables[0]
	if tbl.Span != 24 || len(tbl.Header) != 2 {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if tbl.Header[0].Label != "项目名" || tbl.Header[0].Style.Width != "45%" ||
		tbl.Header[1].Label != "条件" || tbl.Header[1].Style.Width != "40%" {
		t.Errorf("unexpected header %+v", tbl.Header)
	}
	if tbl.Body.RowHeader != "Checks" || len(tbl.Body.Rows) != 2 {
		t.Fatalf("unexpected body %+v", tbl.Body)
	}

	row := tbl.Body.Rows[0]
	if s, ok := row.Label.Text(); !ok || s != "Owner" {
		t.Errorf("row label = %q, want Owner", s)
	}
	if row.Value != "bob" {
		t.Errorf("row value = %v, want bob", row.Value)
	}
	if row.ContentStyle == nil || row.ContentStyle.Color != "red" {
		t.Errorf("content style = %+v, want color red", row.ContentStyle)
	}
	if tbl.Body.Rows[1].ContentStyle != nil {
		t.Errorf("empty value style should be dropped, got %+v", tbl.Body.Rows[1].ContentStyle)
	}

	if tables[1].Body.Rows == nil || len(tables[1].Body.Rows) != 0 {
		t.Errorf("table without rows should have an empty row list, got %#v", tables[1].Body.Rows)
	}
}

func TestParseMonitorConfig_Nil(t *testing.T) {
	if vm := ParseMonitorConfig(nil, sampleData()); vm != nil {
		t.Errorf("got %+v, want nil", vm)
	}
}

func TestParseMonitorConfig_Empty(t *testing.T) {
	vm := ParseMonitorConfig(&MonitorConfig{Code: "c", Name: "n"}, nil)
	if vm == nil {
		t.Fatal("expected a view model")
	}

	b, err := json.Marshal(vm)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	const doc = `{"headerData":[],"infoData":[],"remarks":[],"tables":[]}`
	if string(b) != doc {
		t.Errorf("got %s, want %s", b, doc)
	}
}

func TestParseMonitorConfig_Layout(t *testing.T) {
	tests := []struct {
		name       string
		cfg        MonitorConfig
		headerKind []string
		infoRows   int
	}{
		{
			name:       "form and widget",
			cfg:        MonitorConfig{FormItems: []FormItemSpec{{Label: "A", Prop: "a"}}, WidgetItems: []WidgetItemSpec{{Text: "t"}}},
			headerKind: []string{TypeForm, TypeWidget},
		},
		{
			name:       "widget only",
			cfg:        MonitorConfig{WidgetItems: []WidgetItemSpec{{Text: "t"}}},
			headerKind: []string{TypeWidget},
		},
		{
			name:     "descriptions only",
			cfg:      MonitorConfig{DescItems: []FieldSpec{{Label: "L", Expression: "title"}}},
			infoRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := ParseMonitorConfig(&tt.cfg, sampleData())

			if len(tt.headerKind) == 0 {
				if len(vm.HeaderData) != 0 {
					t.Errorf("expected no header rows, got %d", len(vm.HeaderData))
				}
			} else {
				if len(vm.HeaderData) != 1 {
					t.Fatalf("expected one header row, got %d", len(vm.HeaderData))
				}
				var kinds []string
				for _, s := range vm.HeaderData[0] {
					kinds = append(kinds, s.Kind())
				}
				if !reflect.DeepEqual(kinds, tt.headerKind) {
					t.Errorf("header kinds = %v, want %v", kinds, tt.headerKind)
				}
			}

			if len(vm.InfoData) != tt.infoRows {
				t.Errorf("info rows = %d, want %d", len(vm.InfoData), tt.infoRows)
			}
		})
	}
}

func TestParseMonitorConfig_JSONRoundTrip(t *testing.T) {
	cfg := &MonitorConfig{
		Code:        "orders",
		Name:        "Orders",
		FormItems:   []FormItemSpec{{Label: "Region", Prop: "region", Type: FormSelect}},
		WidgetItems: []WidgetItemSpec{{Text: "Docs"}},
		DescItems:   []FieldSpec{{Label: "Owner", Expression: "user.name"}},
		RemarkItems: []FieldSpec{{Title: "Note", Expression: "title"}},
		TableConfigs: []TableSpec{{
			RowHeader: "Checks",
			Rows: []RowSpec{{
				LabelItems: []LabelFragment{{Content: "x", ColSpan: 2, BackgroundColor: BackgroundCustom, CustomColor: "#fff"}},
				Expression: "count",
			}},
		}},
	}

	b, err := json.Marshal(ParseMonitorConfig(cfg, sampleData()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"label":[{"content":"x","colSpan":2,"style":{"backgroundColor":"#fff"}}]`) {
		t.Errorf("styled label missing from %s", b)
	}

	var vm ViewModel
	if err := json.Unmarshal(b, &vm); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := vm.HeaderData[0][0].(*FormSection); !ok {
		t.Errorf("header[0][0] is %T, want *FormSection", vm.HeaderData[0][0])
	}
	if _, ok := vm.HeaderData[0][1].(*WidgetSection); !ok {
		t.Errorf("header[0][1] is %T, want *WidgetSection", vm.HeaderData[0][1])
	}
	desc, ok := vm.InfoData[0][0].(*DescriptionsSection)
	if !ok {
		t.Fatalf("info[0][0] is %T, want *DescriptionsSection", vm.InfoData[0][0])
	}
	if desc.Items[0].Value != "bob" {
		t.Errorf("desc value = %v, want bob", desc.Items[0].Value)
	}
	if len(vm.Tables) != 1 || vm.Tables[0].Body.Rows[0].Value != 41.0 {
		t.Errorf("unexpected tables %+v", vm.Tables)
	}

	again, err := json.Marshal(&vm)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(again) != string(b) {
		t.Errorf("re-encoded view model differs:\n got %s\nwant %s", again, b)
	}
}

func TestParser_CustomResolver(t *testing.T) {
	stub := &stubEvaluator{out: "stubbed"}
	p := NewParser(NewResolver(WithEvaluator(stub)))

	d := p.Descriptions([]FieldSpec{{Label: "L", Expression: "x", DisplayType: DisplayComputed}}, nil)
	if d.Items[0].Value != "stubbed" {
		t.Errorf("got %v, want stubbed", d.Items[0].Value)
	}
}
