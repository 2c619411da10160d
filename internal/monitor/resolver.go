package monitor

import (
	"log/slog"
	"strconv"
	"strings"
)

// Resolver resolves field values against a data object.
type Resolver struct {
	eval   Evaluator
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEvaluator replaces the expression evaluator.
func WithEvaluator(e Evaluator) ResolverOption {
	return func(r *Resolver) {
		if e != nil {
			r.eval = e
		}
	}
}

// WithLogger sets the logger used for evaluation failures.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver backed by an ExprEvaluator.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{eval: NewExprEvaluator()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// Resolve resolves field against data with the package default resolver.
func Resolve(field FieldSpec, data any) any {
	return defaultResolver.Resolve(field, data)
}

// Resolve returns the display value for field.
//
// An empty expression yields NotAvailable. Direct fields yield the value at
// the dotted path, or NotAvailable when it is missing or nil. Computed fields
// yield the evaluator result as-is; evaluation failures are logged and
// yield EvalError. Database fields yield the query result stored under
// their value key.
func (r *Resolver) Resolve(field FieldSpec, data any) any {
	if field.Expression == "" {
		return NotAvailable
	}

	// The expression of a database field is its query; the server stored
	// the result under valueKey.
	if field.DataSource == DataSourceDatabase {
		v, ok := LookupPath(data, field.ValueKey)
		if !ok || v == nil {
			return NotAvailable
		}
		return v
	}

	if field.DisplayType == DisplayComputed {
		path := field.ValueKey
		if path == "" {
			path = field.Expression
		}
		value, _ := LookupPath(data, path)

		out, err := r.eval.Evaluate(field.Expression, data, value)
		if err != nil {
			r.log().Error("failed to evaluate field expression",
				"expression", field.Expression,
				"error", err,
			)
			return EvalError
		}
		return out
	}

	v, ok := LookupPath(data, field.Expression)
	if !ok || v == nil {
		return NotAvailable
	}
	return v
}

func (r *Resolver) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// LookupPath walks a dotted path through nested maps and slices. Slice
// segments must be decimal indices. The second result is false when any
// segment is missing or the current value cannot be traversed.
func LookupPath(data any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	cur := data
	for _, key := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := c[key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
