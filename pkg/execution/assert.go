package execution

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// evalAssertion evaluates an expr-lang expression against the environment
// {result, tool, params}. Supports clean syntax: result == true,
// result != nil, tool == "click", params.selector == "Login".
func evalAssertion(expression string, result any, tool string, params map[string]any) (bool, error) {
	env := map[string]any{
		"result": result,
		"tool":   tool,
		"params": params,
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile: %w", err)
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	ok, isBool := output.(bool)
	if !isBool {
		return false, fmt.Errorf("did not return bool (got %T: %v)", output, output)
	}
	return ok, nil
}
