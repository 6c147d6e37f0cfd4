package cgraph_go

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// Bindings is the accessor object a named instance exposes to scripts,
// e.g. {"p": Point} for a point or {"b": Bounds} for a rect.
type Bindings map[string]any

// Evaluator runs script source against the document's binding table and
// returns the text that replaces the script.
type Evaluator interface {
	Execute(source string) string
	AddBinding(name string, bindings Bindings)
}

var ErrUnsupportedResult = errors.New("unsupported script result")

// / BindingEnv is the document scoped table of named instances. It outlives
// / every script invocation and is only ever added to.
type BindingEnv struct {
	bindings_ map[string]Bindings
}

func NewBindingEnv() *BindingEnv {
	ret := BindingEnv{}
	ret.bindings_ = map[string]Bindings{}
	return &ret
}

func (this *BindingEnv) AddBinding(name string, bindings Bindings) {
	this.bindings_[name] = bindings
}

func (this *BindingEnv) LookupBinding(name string) (Bindings, bool) {
	b, ok := this.bindings_[name]
	return b, ok
}

func (this *BindingEnv) Names() []string {
	names := make([]string, 0, len(this.bindings_))
	for name := range this.bindings_ {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// / ExprEvaluator implements Evaluator on top of expr-lang. A script is a
// / sequence of statements separated by ';' or newlines:
// /
// /	return EXPR             result of the script
// /	[let|var|const] x = EXPR  script local, gone after the script ends
// /	EXPR                    evaluated for errors, value discarded
// /
// / A leading '=' is shorthand for "return". The "$." scope accessor is
// / accepted in front of binding names.
type ExprEvaluator struct {
	env_     *BindingEnv
	status_  Status
	options_ []expr.Option
}

func NewExprEvaluator(env *BindingEnv, status Status) *ExprEvaluator {
	ret := ExprEvaluator{}
	if env == nil {
		env = NewBindingEnv()
	}
	ret.env_ = env
	ret.status_ = status
	ret.options_ = ambientFunctions()
	return &ret
}

func (this *ExprEvaluator) Env() *BindingEnv { return this.env_ }

func (this *ExprEvaluator) AddBinding(name string, bindings Bindings) {
	this.env_.AddBinding(name, bindings)
}

func (this *ExprEvaluator) warning(msg string, args ...interface{}) {
	if this.status_ != nil {
		this.status_.Warning(msg, args...)
	} else {
		Warning(msg, args...)
	}
}

func (this *ExprEvaluator) Execute(source string) string {
	defer METRIC_RECORD("evaluate")()
	result, err := this.Run(source)
	if err != nil {
		this.warning("script {%s}: %v", source, err)
		return ""
	}
	text, err := Stringify(result)
	if err != nil && !errors.Is(err, ErrUnsupportedResult) {
		this.warning("script {%s}: %v", source, err)
	}
	return text
}

// / Run executes source and returns the raw value of its return statement,
// / nil when it has none.
func (this *ExprEvaluator) Run(source string) (any, error) {
	src := strings.TrimSpace(source)
	if strings.HasPrefix(src, "=") {
		src = "return " + src[1:]
	}
	src = stripScopePrefix(src)

	locals := map[string]any{}
	for _, stmt := range splitStatements(src) {
		if rest, ok := cutKeyword(stmt, "return"); ok {
			if rest == "" {
				return nil, nil
			}
			return this.eval(rest, locals)
		}
		if name, rhs, ok := parseAssignment(stmt); ok {
			v, err := this.eval(rhs, locals)
			if err != nil {
				return nil, err
			}
			locals[name] = v
			continue
		}
		if _, err := this.eval(stmt, locals); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (this *ExprEvaluator) eval(code string, locals map[string]any) (any, error) {
	env := make(map[string]any, len(this.env_.bindings_)+len(locals))
	for name, b := range this.env_.bindings_ {
		env[name] = map[string]any(b)
	}
	for name, v := range locals {
		env[name] = v
	}
	options := append([]expr.Option{expr.Env(env)}, this.options_...)
	program, err := expr.Compile(code, options...)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// Stringify converts a script result to substitution text. Numbers and
// strings are used verbatim, points and bounds use their canonical "x y" and
// "x y w h" forms. Everything else yields "" and ErrUnsupportedResult.
func Stringify(v any) (string, error) {
	switch r := v.(type) {
	case nil:
		return "", nil
	case string:
		return r, nil
	case int:
		return strconv.Itoa(r), nil
	case int64:
		return strconv.FormatInt(r, 10), nil
	case int32:
		return strconv.FormatInt(int64(r), 10), nil
	case uint:
		return strconv.FormatUint(uint64(r), 10), nil
	case uint64:
		return strconv.FormatUint(r, 10), nil
	case float32:
		return formatScriptFloat(float64(r)), nil
	case float64:
		return formatScriptFloat(r), nil
	case Point:
		return r.String(), nil
	case *Point:
		return r.String(), nil
	case Bounds:
		return r.String(), nil
	case *Bounds:
		return r.String(), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedResult, v)
}

func formatScriptFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

// Drops every "$." accessor that is not inside a string literal.
func stripScopePrefix(src string) string {
	if !strings.Contains(src, "$.") {
		return src
	}
	var sb strings.Builder
	var quote byte
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if quote != 0 {
			sb.WriteByte(ch)
			if ch == '\\' && quote != '`' && i+1 < len(src) {
				i++
				sb.WriteByte(src[i])
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		if isQuote(ch) {
			quote = ch
		} else if ch == '$' && i+1 < len(src) && src[i+1] == '.' && (i == 0 || !isIdentChar(src[i-1])) {
			i++
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// Splits on ';' and newlines that are outside brackets and string literals.
func splitStatements(src string) []string {
	var ret []string
	depth := 0
	var quote byte
	start := 0
	flush := func(end int) {
		if stmt := strings.TrimSpace(src[start:end]); stmt != "" {
			ret = append(ret, stmt)
		}
		start = end + 1
	}
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if quote != 0 {
			if ch == '\\' && quote != '`' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case isQuote(ch):
			quote = ch
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			if depth > 0 {
				depth--
			}
		case (ch == ';' || ch == '\n' || ch == '\r') && depth == 0:
			flush(i)
		}
	}
	flush(len(src))
	return ret
}

func cutKeyword(stmt, keyword string) (string, bool) {
	if !strings.HasPrefix(stmt, keyword) {
		return "", false
	}
	rest := stmt[len(keyword):]
	if rest != "" && isIdentChar(rest[0]) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

var assignmentRe = regexp.MustCompile(`(?s)^(?:(?:let|var|const)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*|)$`)

func parseAssignment(stmt string) (string, string, bool) {
	m := assignmentRe.FindStringSubmatch(stmt)
	if m == nil {
		return "", "", false
	}
	rhs := strings.TrimSpace(m[2])
	if rhs == "" {
		return "", "", false
	}
	return m[1], rhs, true
}

func floatArgs(name string, n int, params []any) ([]float64, error) {
	if len(params) != n {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", name, n, len(params))
	}
	ret := make([]float64, n)
	for i, p := range params {
		f, ok := toFloat(p)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is not a number", name, i+1)
		}
		ret[i] = f
	}
	return ret, nil
}

func mathFunction(name string, fn func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		f, err := floatArgs(name, 1, params)
		if err != nil {
			return nil, err
		}
		return fn(f[0]), nil
	})
}

// Constructors and math helpers visible to every script.
func ambientFunctions() []expr.Option {
	point := func(params ...any) (any, error) { return pointFromArgs(params) }
	bounds := func(params ...any) (any, error) { return boundsFromArgs(params) }
	return []expr.Option{
		expr.Function("Point", point),
		expr.Function("P", point),
		expr.Function("Bounds", bounds),
		expr.Function("B", bounds),
		mathFunction("sqrt", math.Sqrt),
		mathFunction("sin", math.Sin),
		mathFunction("cos", math.Cos),
		mathFunction("tan", math.Tan),
		mathFunction("rad", func(deg float64) float64 { return deg * math.Pi / 180 }),
		mathFunction("deg", func(rad float64) float64 { return rad * 180 / math.Pi }),
		expr.Function("atan2", func(params ...any) (any, error) {
			f, err := floatArgs("atan2", 2, params)
			if err != nil {
				return nil, err
			}
			return math.Atan2(f[0], f[1]), nil
		}),
		expr.Function("hypot", func(params ...any) (any, error) {
			f, err := floatArgs("hypot", 2, params)
			if err != nil {
				return nil, err
			}
			return math.Hypot(f[0], f[1]), nil
		}),
		expr.Function("pi", func(params ...any) (any, error) { return math.Pi, nil }),
	}
}

var arrowPrefixRe = regexp.MustCompile(`^\s*\(?\s*x\s*\)?\s*=>\s*`)

// PlotFunction samples the expression fn of x at divisions evenly spaced
// points from xStart, returning the y and x values. "x => EXPR" is accepted.
func PlotFunction(fn string, xStart, xEnd float64, divisions int) ([]float64, []float64, error) {
	src := arrowPrefixRe.ReplaceAllString(strings.TrimSpace(fn), "")
	env := map[string]any{"x": 0.0}
	options := append([]expr.Option{expr.Env(env)}, ambientFunctions()...)
	program, err := expr.Compile(src, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("func {%s}: %w", fn, err)
	}
	step := (xEnd - xStart) / float64(divisions)
	ys := make([]float64, 0, divisions)
	xs := make([]float64, 0, divisions)
	for i := 0; i < divisions; i++ {
		x := xStart + float64(i)*step
		env["x"] = x
		v, err := expr.Run(program, env)
		if err != nil {
			return nil, nil, fmt.Errorf("func {%s} at x=%s: %w", fn, FormatNumber(x), err)
		}
		y, ok := toFloat(v)
		if !ok {
			return nil, nil, fmt.Errorf("func {%s}: result is not a number", fn)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return ys, xs, nil
}
