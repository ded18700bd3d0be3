package traits

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// CELPolicy authorizes trait updates with a CEL expression, for
// deployments whose permission model goes beyond owner/privileged.
// The expression sees two variables:
//
//	caller: {address, is_token_owner, roles}
//	trait:  {name, display_name, key, token_owner_can_update}
//
// and must evaluate to a boolean.
type CELPolicy struct {
	program cel.Program
}

// NewCELPolicy compiles an authorization expression.
func NewCELPolicy(expression string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("caller", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("trait", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("CEL expression must return boolean, got: %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &CELPolicy{program: program}, nil
}

// Authorize implements AccessPolicy.
func (p *CELPolicy) Authorize(ctx context.Context, entry *entities.TraitSchemaEntry, caller *Caller) error {
	if caller == nil {
		return fmt.Errorf("%w: no caller", entities.ErrUnauthorized)
	}

	callerVars := map[string]interface{}{
		"address":        caller.Address,
		"is_token_owner": caller.IsTokenOwner,
		"roles":          caller.Roles,
	}
	traitVars := map[string]interface{}{}
	if entry != nil {
		traitVars = map[string]interface{}{
			"name":                   entry.Name,
			"display_name":           entry.DisplayName,
			"key":                    entry.Key.Hex(),
			"token_owner_can_update": entry.TokenOwnerCanUpdate,
		}
	}

	result, _, err := p.program.Eval(map[string]interface{}{
		"caller": callerVars,
		"trait":  traitVars,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	allowed, ok := result.Value().(bool)
	if !ok {
		return fmt.Errorf("CEL expression did not evaluate to boolean, got: %T", result.Value())
	}
	if !allowed {
		return fmt.Errorf("%w: policy expression denied caller %s", entities.ErrUnauthorized, caller.Address)
	}
	return nil
}
