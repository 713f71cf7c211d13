package merge

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/metrico/covidpipe/derive"
	"github.com/metrico/covidpipe/frame"
)

// PopulationMetricsProcessor derives the per-capita fields from the merged
// population column and drops it. Registered at the end of the default
// post-processing chain.
func PopulationMetricsProcessor(f *frame.Frame) (*frame.Frame, error) {
	return derive.PopulationMetrics(f)
}

// FilterExpr compiles a boolean expression into a Processor that keeps only
// the rows it evaluates true for. Column names are exposed to the expression
// with every non-identifier character replaced by '_', so "Country/Region"
// is addressed as Country_Region. Cell values surface as nil, string,
// int64, float64 or time.Time.
//
//	FilterExpr(`Country_Region != "Republic of Ireland"`)
func FilterExpr(code string) (Processor, error) {
	prog, err := expr.Compile(code, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", code, err)
	}
	return func(f *frame.Frame) (*frame.Frame, error) {
		cols := f.Columns()
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = exprName(c)
		}
		var evalErr error
		out := f.Filter(func(r frame.Row) bool {
			if evalErr != nil {
				return false
			}
			env := make(map[string]any, len(cols))
			for i, c := range cols {
				env[names[i]] = exprValue(r.Value(c))
			}
			keep, err := runBool(prog, env)
			if err != nil {
				evalErr = fmt.Errorf("filter %q: %w", code, err)
				return false
			}
			return keep
		})
		if evalErr != nil {
			return nil, evalErr
		}
		return out, nil
	}, nil
}

// MustFilterExpr is FilterExpr for statically known expressions; it panics on
// a compile error.
func MustFilterExpr(code string) Processor {
	p, err := FilterExpr(code)
	if err != nil {
		panic(err)
	}
	return p
}

func runBool(prog *vm.Program, env map[string]any) (bool, error) {
	out, err := expr.Run(prog, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return b, nil
}

func exprName(col string) string {
	var b strings.Builder
	for i, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func exprValue(v frame.Value) any {
	switch v.Kind() {
	case frame.KindNull:
		return nil
	case frame.KindString:
		return v.Str()
	case frame.KindDate:
		return v.Time()
	}
	f, _ := v.Numeric()
	return f
}
