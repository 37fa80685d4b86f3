package filter

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter is a compiled boolean expression. It is safe for concurrent use.
type Filter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.custom, funcs)
	}
}

// WithClock replaces the time source used by the date helpers.
func WithClock(now func() time.Time) CompilerOption {
	return func(c *Compiler) {
		c.now = now
	}
}

// Compiler turns expressions into Filters.
type Compiler struct {
	helpers map[string]any
	custom  map[string]any
	cache   *lruCache
	now     func() time.Time
}

// NewCompiler creates an expr-based filter compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helpers: make(map[string]any, 16),
		custom:  make(map[string]any),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Custom functions override the built-in helpers.
	maps.Copy(c.helpers, entityHelpers)
	addHelperFunctions(c.helpers, c.now)
	maps.Copy(c.helpers, c.custom)

	return c
}

// Compile compiles an expression into an executable filter
func (c *Compiler) Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helpers),
		expr.AllowUndefinedVariables(), // entity fields arrive at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, newCompilationError(expression, err)
	}

	f := &Filter{
		expression: expression,
		program:    program,
		helpers:    c.helpers,
	}
	if c.cache != nil {
		c.cache.Put(expression, f)
	}
	return f, nil
}

// Clear removes all cached filters
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Match runs the filter against env. Helpers are added to env unless env
// already defines the name.
func (f *Filter) Match(env map[string]any) (bool, error) {
	for name, fn := range f.helpers {
		if _, ok := env[name]; !ok {
			env[name] = fn
		}
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, err
	}
	// AsBool guarantees the type.
	return result.(bool), nil
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

func addHelperFunctions(env map[string]any, now func() time.Time) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(now().Sub(t).Hours() / 24)
	}
	env["hoursSince"] = func(t time.Time) float64 {
		return now().Sub(t).Hours()
	}
	env["daysAgo"] = func(days int) time.Time {
		return now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return now().AddDate(0, -months, 0)
	}
	env["parseDate"] = func(s string) (time.Time, error) {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("parseDate: %q is neither YYYY-MM-DD nor RFC 3339", s)
		}
		return t, nil
	}
	env["now"] = now

	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}
