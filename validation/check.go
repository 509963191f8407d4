package validation

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/elialm7/kurubind/schema"
)

// Check enforces the "check=<expression>" tag. The expression is evaluated
// with expr-lang against an environment exposing the field value as `value`
// and the field name as `field`; it must yield a boolean. Programs compile
// once per expression text.
type Check struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// NewCheck returns a check validator with an empty compilation cache.
func NewCheck() *Check {
	return &Check{programs: make(map[string]*vm.Program)}
}

// Validate implements Validator.
func (c *Check) Validate(value any, field *schema.Field) error {
	source, ok := field.TagArg("check")
	if !ok || source == "" {
		return nil
	}
	if schema.IsAbsent(value) {
		return nil
	}

	program, err := c.compile(source)
	if err != nil {
		return fmt.Errorf("%s: invalid check expression %q: %v", field.Name, source, err)
	}

	env := map[string]any{
		"value": indirect(value),
		"field": field.Name,
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return fmt.Errorf("%s: check expression failed: %v", field.Name, err)
	}
	if pass, isBool := out.(bool); !isBool || !pass {
		if msg, hasMsg := tagMessage(field); hasMsg {
			return fmt.Errorf("%s %s", field.Name, msg)
		}
		return fmt.Errorf("%s failed check: %s", field.Name, source)
	}
	return nil
}

func (c *Check) compile(source string) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[source]; ok {
		return p, nil
	}
	p, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	c.programs[source] = p
	return p, nil
}

func tagMessage(field *schema.Field) (string, bool) {
	for _, t := range field.Tags {
		if t.Name != "check" {
			continue
		}
		if msg, ok := t.Arg("message"); ok {
			return msg, true
		}
	}
	return "", false
}
