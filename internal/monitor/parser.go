package monitor

// Parser builds view models, resolving values with its Resolver.
type Parser struct {
	resolver *Resolver
}

// NewParser creates a Parser. A nil resolver uses the package default.
func NewParser(resolver *Resolver) *Parser {
	if resolver == nil {
		resolver = defaultResolver
	}
	return &Parser{resolver: resolver}
}

var defaultParser = NewParser(nil)

// ParseMonitorConfig parses cfg with the package default parser.
func ParseMonitorConfig(cfg *MonitorConfig, data any) *ViewModel {
	return defaultParser.Parse(cfg, data)
}

// ParseFormConfig builds the form section, or nil when there are no items.
func ParseFormConfig(items []FormItemSpec) *FormSection {
	if len(items) == 0 {
		return nil
	}

	out := make([]FormItem, len(items))
	for i, item := range items {
		out[i] = FormItem{
			Label:   item.Label,
			Prop:    item.Prop,
			Value:   nil,
			Type:    item.Type,
			Options: item.Options,
		}
	}
	return &FormSection{
		Grid:   Grid{Span: formSpan},
		Inline: true,
		Items:  out,
	}
}

// ParseWidgetConfig builds the widget section, or nil when there are no items.
func ParseWidgetConfig(items []WidgetItemSpec) *WidgetSection {
	if len(items) == 0 {
		return nil
	}

	out := make([]WidgetItem, len(items))
	for i, item := range items {
		href := item.Href
		if href == "" {
			href = defaultHref
		}
		out[i] = WidgetItem{
			Text:   item.Text,
			Href:   href,
			Icon:   widgetIcon,
			Target: widgetTarget,
			Type:   widgetType,
		}
	}
	return &WidgetSection{
		Grid:  Grid{Span: widgetSpan},
		Items: out,
	}
}

// ParseDescriptionsConfig builds the descriptions section with the default parser.
func ParseDescriptionsConfig(items []FieldSpec, data any) *DescriptionsSection {
	return defaultParser.Descriptions(items, data)
}

// ParseRemarkConfig builds the remark list with the default parser.
func ParseRemarkConfig(items []FieldSpec, data any) []Remark {
	return defaultParser.Remarks(items, data)
}

// ParseTableConfig builds the table sections with the default parser.
func ParseTableConfig(tables []TableSpec, data any) []*TableSection {
	return defaultParser.Tables(tables, data)
}

// Descriptions builds the descriptions section, or nil when there are no items.
func (p *Parser) Descriptions(items []FieldSpec, data any) *DescriptionsSection {
	if len(items) == 0 {
		return nil
	}

	out := make([]DescriptionItem, len(items))
	for i, item := range items {
		out[i] = DescriptionItem{
			Label: item.Label,
			Value: p.resolver.Resolve(item, data),
		}
	}
	return &DescriptionsSection{
		Grid:   Grid{Span: fullSpan},
		Column: 4,
		Border: true,
		Items:  out,
	}
}

// Remarks builds the flat remark list. It never returns nil.
func (p *Parser) Remarks(items []FieldSpec, data any) []Remark {
	out := make([]Remark, len(items))
	for i, item := range items {
		out[i] = Remark{
			Title:   item.Title,
			Content: p.resolver.Resolve(item, data),
		}
	}
	return out
}

// Tables builds one table section per spec. It never returns nil.
func (p *Parser) Tables(tables []TableSpec, data any) []*TableSection {
	out := make([]*TableSection, len(tables))
	for i, t := range tables {
		out[i] = &TableSection{
			Grid: Grid{Span: fullSpan},
			Header: []TableHeader{
				{Label: headerProject, Style: HeaderStyle{Width: "45%"}},
				{Label: headerCondition, Style: HeaderStyle{Width: "40%"}},
			},
			Body: TableBody{
				RowHeader: t.RowHeader,
				Rows:      p.rows(t.Rows, data),
			},
		}
	}
	return out
}

func (p *Parser) rows(rows []RowSpec, data any) []TableRow {
	out := make([]TableRow, len(rows))
	for i, row := range rows {
		out[i] = TableRow{
			Label:        ParseLabelStructure(row.LabelItems),
			Value:        p.resolver.Resolve(row.Field(), data),
			ContentStyle: buildValueStyle(row.ValueStyle),
		}
	}
	return out
}

// buildValueStyle keeps only the set style keys, or returns nil when none is set.
func buildValueStyle(s *ValueStyle) *ValueStyle {
	if s == nil || (s.Color == "" && s.BackgroundColor == "" && s.FontSize == "") {
		return nil
	}
	return &ValueStyle{
		Color:           s.Color,
		BackgroundColor: s.BackgroundColor,
		FontSize:        s.FontSize,
	}
}

// Parse builds the full view model, or nil when cfg is nil.
func (p *Parser) Parse(cfg *MonitorConfig, data any) *ViewModel {
	if cfg == nil {
		return nil
	}

	vm := &ViewModel{
		HeaderData: [][]Section{},
		InfoData:   [][]Section{},
	}

	var header []Section
	if form := ParseFormConfig(cfg.FormItems); form != nil {
		header = append(header, form)
	}
	if widget := ParseWidgetConfig(cfg.WidgetItems); widget != nil {
		header = append(header, widget)
	}
	if len(header) > 0 {
		vm.HeaderData = append(vm.HeaderData, header)
	}

	if desc := p.Descriptions(cfg.DescItems, data); desc != nil {
		vm.InfoData = append(vm.InfoData, []Section{desc})
	}

	vm.Remarks = p.Remarks(cfg.RemarkItems, data)
	vm.Tables = p.Tables(cfg.TableConfigs, data)
	return vm
}
