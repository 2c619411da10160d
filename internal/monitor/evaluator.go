package monitor

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator derives a display value from an expression and two bindings:
// data (the whole page data) and value (the looked-up path value).
type Evaluator interface {
	Evaluate(expression string, data, value any) (any, error)
}

// ExprEvaluator evaluates expressions with the expr language. Programs run
// without access to the host: only the data and value bindings are visible,
// and any other name fails to compile.
// Compiled programs are cached per expression string.
type ExprEvaluator struct {
	programs sync.Map // map[string]*vm.Program
}

// NewExprEvaluator creates an evaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

// Evaluate compiles (or reuses) the program for expression and runs it.
func (e *ExprEvaluator) Evaluate(expression string, data, value any) (result any, err error) {
	program, err := e.compile(expression)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("evaluate %q: %v", expression, r)
		}
	}()

	out, err := expr.Run(program, map[string]any{
		"data":  data,
		"value": value,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	return out, nil
}

// bindings declares the names an expression may use. Their types are only
// known at run time.
var bindings = map[string]any{
	"data":  nil,
	"value": nil,
}

func (e *ExprEvaluator) compile(expression string) (*vm.Program, error) {
	if p, ok := e.programs.Load(expression); ok {
		return p.(*vm.Program), nil
	}

	program, err := expr.Compile(expression, expr.Env(bindings))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}

	actual, _ := e.programs.LoadOrStore(expression, program)
	return actual.(*vm.Program), nil
}
