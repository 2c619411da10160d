package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testOutput(jsonMode bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Output{jsonMode: jsonMode, noColor: true, stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func TestOutput_Text(t *testing.T) {
	o, stdout, stderr := testOutput(false)

	o.Success("saved %s", "orders")
	o.KeyValue("Key", "orders")
	o.Error("failed: %d", 3)

	if got := stdout.String(); got != "✓ saved orders\n  Key: orders\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := stderr.String(); got != "✗ failed: 3\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestOutput_JSONModeSilencesText(t *testing.T) {
	o, stdout, stderr := testOutput(true)

	o.Success("x")
	o.Info("x")
	o.Header("x")
	o.Error("x")
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("unexpected text output %q %q", stdout, stderr)
	}

	o.JSON(map[string]int{"n": 1})
	if !strings.Contains(stdout.String(), `"n": 1`) {
		t.Errorf("JSON output = %q", stdout)
	}
}

func TestOutput_ConfigEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	o, stdout, _ := testOutput(false)
	o.ConfigEvent(4, "updated", "orders", "compassd-1", ts)
	if got := stdout.String(); got != "2026-03-01 10:00:00 #4 updated  orders compassd-1\n" {
		t.Errorf("text = %q", got)
	}

	o, stdout, _ = testOutput(true)
	o.ConfigEvent(4, "updated", "orders", "compassd-1", ts)
	var line map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &line); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if line["configKey"] != "orders" || line["seq"] != float64(4) {
		t.Errorf("line = %v", line)
	}
}

func TestOutput_ConfigEventWithoutSeq(t *testing.T) {
	o, stdout, _ := testOutput(false)
	o.ConfigEvent(0, "deleted", "stock", "", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if got := stdout.String(); got != "2026-03-01 10:00:00 deleted  stock \n" {
		t.Errorf("text = %q", got)
	}
}
