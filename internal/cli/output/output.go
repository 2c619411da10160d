package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ANSI color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"
	Bold    = "\033[1m"
)

// Output handles CLI output formatting.
type Output struct {
	jsonMode bool
	noColor  bool
	stdout   io.Writer
	stderr   io.Writer
}

// New creates a new Output instance.
func New(jsonMode bool) *Output {
	noColor := os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"
	return &Output{jsonMode: jsonMode, noColor: noColor, stdout: os.Stdout, stderr: os.Stderr}
}

// JSONMode reports whether output is JSON.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// Colors reports whether ANSI colors are enabled.
func (o *Output) Colors() bool {
	return !o.noColor
}

// Writer returns the standard output writer.
func (o *Output) Writer() io.Writer {
	return o.stdout
}

func (o *Output) color(c, text string) string {
	if o.noColor {
		return text
	}
	return c + text + Reset
}

// Success prints a success message.
func (o *Output) Success(format string, args ...any) {
	if o.jsonMode {
		return
	}
	fmt.Fprintf(o.stdout, o.color(Green, "✓ ")+format+"\n", args...)
}

// Error prints an error message.
func (o *Output) Error(format string, args ...any) {
	if o.jsonMode {
		return
	}
	fmt.Fprintf(o.stderr, o.color(Red, "✗ ")+format+"\n", args...)
}

// Warn prints a warning message.
func (o *Output) Warn(format string, args ...any) {
	if o.jsonMode {
		return
	}
	fmt.Fprintf(o.stdout, o.color(Yellow, "! ")+format+"\n", args...)
}

// Info prints an info message.
func (o *Output) Info(format string, args ...any) {
	if o.jsonMode {
		return
	}
	fmt.Fprintf(o.stdout, o.color(Cyan, "→ ")+format+"\n", args...)
}

// Header prints a header.
func (o *Output) Header(text string) {
	if o.jsonMode {
		return
	}
	fmt.Fprintln(o.stdout, o.color(Bold, text))
}

// KeyValue prints a key-value pair.
func (o *Output) KeyValue(key, value string) {
	if o.jsonMode {
		return
	}
	fmt.Fprintf(o.stdout, "  %s: %s\n", o.color(Gray, key), value)
}

// Divider prints a divider line.
func (o *Output) Divider() {
	if o.jsonMode {
		return
	}
	fmt.Fprintln(o.stdout, o.color(Gray, "─────────────────────────────────────────"))
}

// JSON prints data as JSON.
func (o *Output) JSON(data any) {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// ConfigEvent prints a config change event.
func (o *Output) ConfigEvent(seq uint64, action, key, origin string, ts time.Time) {
	if o.jsonMode {
		// Compact JSON for streaming (one line per event)
		enc := json.NewEncoder(o.stdout)
		enc.Encode(map[string]any{
			"seq":       seq,
			"action":    action,
			"configKey": key,
			"origin":    origin,
			"timestamp": ts,
		})
		return
	}

	c := Cyan
	switch action {
	case "created":
		c = Green
	case "deleted":
		c = Red
	}
	// Live changes have no stream sequence yet.
	prefix := o.color(Gray, ts.Format("2006-01-02 15:04:05"))
	if seq > 0 {
		prefix += " " + o.color(Gray, fmt.Sprintf("#%d", seq))
	}
	fmt.Fprintf(o.stdout, "%s %s %s %s\n",
		prefix,
		o.color(c, fmt.Sprintf("%-8s", action)),
		o.color(Magenta, key),
		o.color(Gray, origin),
	)
}
