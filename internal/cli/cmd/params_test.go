package cmd

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/itchyny/gojq"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "typed values",
			pairs: []string{"region=eu", "year=2026", "live=true", "tags=[\"a\"]"},
			want:  map[string]any{"region": "eu", "year": float64(2026), "live": true, "tags": []any{"a"}},
		},
		{
			name:  "value may contain equals",
			pairs: []string{"q=a=b"},
			want:  map[string]any{"q": "a=b"},
		},
		{
			name:  "empty value",
			pairs: []string{"region="},
			want:  map[string]any{"region": ""},
		},
		{name: "missing equals", pairs: []string{"region"}, wantErr: true},
		{name: "empty key", pairs: []string{"=eu"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunJqFilter(t *testing.T) {
	data := json.RawMessage(`{"orders":[{"id":1,"region":"eu"},{"id":2,"region":"us"}]}`)

	tests := []struct {
		name   string
		filter string
		params map[string]any
		want   []any
	}{
		{name: "no filter", want: []any{map[string]any{"orders": []any{
			map[string]any{"id": float64(1), "region": "eu"},
			map[string]any{"id": float64(2), "region": "us"},
		}}}},
		{name: "stream", filter: ".orders[].id", want: []any{float64(1), float64(2)}},
		{
			name:   "params variable",
			filter: `.orders[] | select(.region == $params.region) | .id`,
			params: map[string]any{"region": "us"},
			want:   []any{float64(2)},
		},
		{name: "no output", filter: "empty", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := mustCompile(t, tt.filter)
			got, err := runJqFilter(code, data, tt.params)
			if err != nil {
				t.Fatalf("runJqFilter: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRunJqFilter_Error(t *testing.T) {
	code := mustCompile(t, `error("boom")`)
	if _, err := runJqFilter(code, json.RawMessage(`{}`), nil); err == nil {
		t.Error("expected jq error")
	}
	if _, err := compileJqFilter(".["); err == nil {
		t.Error("expected parse error")
	}
}

func mustCompile(t *testing.T, filter string) *gojq.Code {
	t.Helper()
	if filter == "" {
		return nil
	}
	code, err := compileJqFilter(filter)
	if err != nil {
		t.Fatalf("compile %q: %v", filter, err)
	}
	return code
}
