// Package monitor turns monitor page configurations into the view model
// consumed by dashboard renderers.
package monitor

// Display types for value-bearing fields.
const (
	DisplayDirect   = "direct"
	DisplayComputed = "computed"
)

// Data sources of value-bearing fields. API fields, the default, read the
// page data; database fields run their expression as a query whose result
// the server stores under valueKey.
const (
	DataSourceAPI      = "api"
	DataSourceDatabase = "database"
)

// Sentinel values surfaced to the view.
const (
	NotAvailable = "N/A"
	EvalError    = "Error"
)

// Background color modes for label fragments. Any other value is a named color.
const (
	BackgroundDefault = "default"
	BackgroundCustom  = "custom"
)

// Form item control types.
const (
	FormInput  = "input"
	FormSelect = "select"
)

// MonitorConfig describes one dashboard page.
type MonitorConfig struct {
	Code         string           `json:"code" yaml:"code"`
	Name         string           `json:"name" yaml:"name"`
	FormItems    []FormItemSpec   `json:"formItems,omitempty" yaml:"formItems,omitempty"`
	WidgetItems  []WidgetItemSpec `json:"widgetItems,omitempty" yaml:"widgetItems,omitempty"`
	DescItems    []FieldSpec      `json:"descItems,omitempty" yaml:"descItems,omitempty"`
	RemarkItems  []FieldSpec      `json:"remarkItems,omitempty" yaml:"remarkItems,omitempty"`
	TableConfigs []TableSpec      `json:"tableConfigs,omitempty" yaml:"tableConfigs,omitempty"`

	// APIURL is the upstream that supplies the page data. Empty means the
	// request parameters are the data.
	APIURL string `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
	// APITransform is a jq program applied to the upstream response.
	APITransform string `json:"apiTransform,omitempty" yaml:"apiTransform,omitempty"`
}

// FieldSpec is one value-bearing slot.
type FieldSpec struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Expression  string `json:"expression,omitempty" yaml:"expression,omitempty"`
	DisplayType string `json:"displayType,omitempty" yaml:"displayType,omitempty"`
	// ValueKey is the dotted path bound to `value` in computed mode.
	// When empty the expression itself is looked up.
	ValueKey   string `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`
	DataSource string `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
}

// FormItemSpec is one form input.
type FormItemSpec struct {
	Label      string         `json:"label" yaml:"label"`
	Prop       string         `json:"prop" yaml:"prop"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Expression string         `json:"expression,omitempty" yaml:"expression,omitempty"`
	Options    []SelectOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// SelectOption is a static choice of a select form item.
type SelectOption struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// WidgetItemSpec is one link button.
type WidgetItemSpec struct {
	Text string `json:"text" yaml:"text"`
	Href string `json:"href,omitempty" yaml:"href,omitempty"`
}

// TableSpec is one comparison table.
type TableSpec struct {
	RowHeader string    `json:"rowHeader,omitempty" yaml:"rowHeader,omitempty"`
	Rows      []RowSpec `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// RowSpec is one table row.
type RowSpec struct {
	LabelItems  []LabelFragment `json:"labelItems,omitempty" yaml:"labelItems,omitempty"`
	Expression  string          `json:"expression,omitempty" yaml:"expression,omitempty"`
	DisplayType string          `json:"displayType,omitempty" yaml:"displayType,omitempty"`
	ValueKey    string          `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`
	DataSource  string          `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	ValueStyle  *ValueStyle     `json:"valueStyle,omitempty" yaml:"valueStyle,omitempty"`
}

// Field returns the value-bearing part of the row.
func (r RowSpec) Field() FieldSpec {
	return FieldSpec{
		Expression:  r.Expression,
		DisplayType: r.DisplayType,
		ValueKey:    r.ValueKey,
		DataSource:  r.DataSource,
	}
}

// ValueStyle styles the value cell of a row.
type ValueStyle struct {
	Color           string `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	FontSize        string `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
}

// LabelFragment is one cell of a row label.
type LabelFragment struct {
	Content         string `json:"content" yaml:"content"`
	ColSpan         int    `json:"colSpan,omitempty" yaml:"colSpan,omitempty"`
	RowSpan         int    `json:"rowSpan,omitempty" yaml:"rowSpan,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	CustomColor     string `json:"customColor,omitempty" yaml:"customColor,omitempty"`
}

// ViewModel is the parsed dashboard page.
type ViewModel struct {
	HeaderData [][]Section     `json:"headerData"`
	InfoData   [][]Section     `json:"infoData"`
	Remarks    []Remark        `json:"remarks"`
	Tables     []*TableSection `json:"tables"`
}

// Remark is one flat remark entry.
type Remark struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}
