package preprocessor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// Evaluator folds a constant arithmetic expression to an integer. Any failure
// means the expression is not foldable.
type Evaluator interface {
	Evaluate(expression string) (int, error)
}

// ExprEvaluator evaluates with expr-lang. Identifiers are unknown, so anything
// that references a variable, a function or a string fails to fold. Division of
// two integers truncates toward zero.
type ExprEvaluator struct{}

func NewEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

func (ExprEvaluator) Evaluate(expression string) (int, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, fmt.Errorf("empty expression")
	}
	program, err := expr.Compile(expression,
		expr.Function("idiv", integerDivide, new(func(int, int) int)),
		expr.Operator("/", "idiv"))
	if err != nil {
		return 0, err
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return 0, err
	}
	switch v := out.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, fmt.Errorf("%q is not an integer", expression)
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("%q is not numeric", expression)
}

func integerDivide(params ...any) (any, error) {
	a, b := params[0].(int), params[1].(int)
	if b == 0 {
		return nil, fmt.Errorf("division by zero")
	}
	return a / b, nil
}

var modRe = regexp.MustCompile(`\smod\s`)

// fold returns the folded value of s, or s itself when it is not constant.
func (p *Preprocessor) fold(s string) (string, bool) {
	v, err := p.Evaluator.Evaluate(modRe.ReplaceAllString(s, " % "))
	if err != nil {
		return s, false
	}
	return strconv.Itoa(v), true
}

// evaluate is for values that must be constant; what names the value in the
// error message.
func (p *Preprocessor) evaluate(line *Line, s, what string) (int, error) {
	v, err := p.Evaluator.Evaluate(modRe.ReplaceAllString(s, " % "))
	if err != nil {
		return 0, parseError(line, RangeError,
			"Invalid syntax in %s value. Only define constants, numbers or maths operations can be used here.", what)
	}
	return v, nil
}

// simplifyAddition adds neighbouring integer terms of a sum and leaves the rest,
// e.g. "2 + 2 + 3 + x + 2" becomes "7 + x + 2".
func simplifyAddition(s string) string {
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for i := 0; i < len(parts)-1; {
		a, errA := strconv.Atoi(parts[i])
		b, errB := strconv.Atoi(parts[i+1])
		if errA != nil || errB != nil {
			i++
			continue
		}
		parts[i] = strconv.Itoa(a + b)
		parts = append(parts[:i+1], parts[i+2:]...)
	}
	return strings.Join(parts, " + ")
}
