package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema is the structural JSON schema of a monitor configuration.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "field": {
      "type": "object",
      "properties": {
        "label":       {"type": "string"},
        "title":       {"type": "string"},
        "expression":  {"type": "string"},
        "displayType": {"type": "string", "enum": ["direct", "computed"]},
        "valueKey":    {"type": "string"},
        "dataSource":  {"type": "string", "enum": ["api", "database"]}
      }
    },
    "fragment": {
      "type": "object",
      "properties": {
        "content":         {"type": "string"},
        "colSpan":         {"type": "integer", "minimum": 1},
        "rowSpan":         {"type": "integer", "minimum": 1},
        "backgroundColor": {"type": "string"},
        "customColor":     {"type": "string"}
      }
    }
  },
  "properties": {
    "code":         {"type": "string"},
    "name":         {"type": "string"},
    "apiUrl":       {"type": "string"},
    "apiTransform": {"type": "string"},
    "formItems": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label":      {"type": "string"},
          "prop":       {"type": "string"},
          "type":       {"type": "string", "enum": ["input", "select"]},
          "expression": {"type": "string"},
          "options": {
            "type": "array",
            "items": {"type": "object", "properties": {"label": {"type": "string"}}}
          }
        }
      }
    },
    "widgetItems": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {"type": "string"},
          "href": {"type": "string"}
        }
      }
    },
    "descItems":   {"type": "array", "items": {"$ref": "#/definitions/field"}},
    "remarkItems": {"type": "array", "items": {"$ref": "#/definitions/field"}},
    "tableConfigs": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "rowHeader": {"type": "string"},
          "rows": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "labelItems":  {"type": "array", "items": {"$ref": "#/definitions/fragment"}},
                "expression":  {"type": "string"},
                "displayType": {"type": "string", "enum": ["direct", "computed"]},
                "valueKey":    {"type": "string"},
                "dataSource":  {"type": "string", "enum": ["api", "database"]},
                "valueStyle": {
                  "type": "object",
                  "properties": {
                    "color":           {"type": "string"},
                    "backgroundColor": {"type": "string"},
                    "fontSize":        {"type": "string"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(configSchema))
})

// ToJSON normalizes a JSON or YAML document to JSON.
func ToJSON(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if json.Valid(trimmed) {
		return trimmed, nil
	}

	var doc any
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert YAML to JSON: %w", err)
	}
	return out, nil
}

// DecodeConfig decodes a JSON or YAML configuration document.
func DecodeConfig(raw []byte) (*MonitorConfig, error) {
	doc, err := ToJSON(raw)
	if err != nil {
		return nil, err
	}
	var cfg MonitorConfig
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ValidateDocument checks a raw JSON or YAML document against the structural
// schema and then runs ValidateMonitorConfig on the decoded configuration.
func ValidateDocument(raw []byte) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	doc, err := ToJSON(raw)
	if err != nil {
		result.AddError("配置格式错误: %v", err)
		return result
	}

	schema, err := loadSchema()
	if err != nil {
		result.AddError("schema error: %v", err)
		return result
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		result.AddError("配置格式错误: %v", err)
		return result
	}
	if !res.Valid() {
		for _, e := range res.Errors() {
			result.AddError("%s: %s", e.Field(), e.Description())
		}
		return result
	}

	var cfg MonitorConfig
	if err := json.Unmarshal(doc, &cfg); err != nil {
		result.AddError("配置格式错误: %v", err)
		return result
	}
	return ValidateMonitorConfig(&cfg)
}
