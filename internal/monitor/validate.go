package monitor

import "fmt"

// ValidationResult is the outcome of validating a configuration.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// AddError records an error and marks the result invalid.
func (r *ValidationResult) AddError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ValidateMonitorConfig checks that the configuration carries every required
// field. All problems are collected; nothing short-circuits except a nil cfg.
func ValidateMonitorConfig(cfg *MonitorConfig) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	if cfg == nil {
		result.AddError("配置对象不能为空")
		return result
	}

	if cfg.Code == "" {
		result.AddError("监控页面KEY不能为空")
	}
	if cfg.Name == "" {
		result.AddError("监控页面名称不能为空")
	}

	for i, item := range cfg.FormItems {
		if item.Label == "" {
			result.AddError("表单项%d的中文标签不能为空", i+1)
		}
		if item.Prop == "" {
			result.AddError("表单项%d的英文字段不能为空", i+1)
		}
	}

	for i, item := range cfg.WidgetItems {
		if item.Text == "" {
			result.AddError("链接按钮%d的按钮文字不能为空", i+1)
		}
	}

	for i, item := range cfg.DescItems {
		if item.Label == "" {
			result.AddError("基础信息项%d的中文标签不能为空", i+1)
		}
		if item.Expression == "" {
			result.AddError("基础信息项%d的表达式/字段不能为空", i+1)
		}
		if item.DataSource == DataSourceDatabase && item.ValueKey == "" {
			result.AddError("基础信息项%d的数据库数据源必须配置变量名", i+1)
		}
	}

	for i, item := range cfg.RemarkItems {
		if item.DataSource == DataSourceDatabase && item.ValueKey == "" {
			result.AddError("备注项%d的数据库数据源必须配置变量名", i+1)
		}
	}

	for i, table := range cfg.TableConfigs {
		for j, row := range table.Rows {
			if row.DataSource == DataSourceDatabase && row.ValueKey == "" {
				result.AddError("表格%d第%d行的数据库数据源必须配置变量名", i+1, j+1)
			}
		}
	}

	return result
}
