package authz

import (
	"context"
	"math"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// DefaultCostLimit bounds the evaluation cost of a single policy.
const DefaultCostLimit = 10000

// CEL evaluates the escrow policy as a CEL expression that must return a
// boolean. The expression can refer to the following variables:
//
//	action        string, "release" or "refund"
//	escrow_id     bytes
//	order_id      string
//	caller        string, hex address or empty
//	amount        int
//	asset_type    string
//	deposited_at  int, milliseconds
//	now           int, milliseconds
//	proof         bytes
//
// For example `action == "refund" || now - deposited_at > 86400000`.
// An empty policy denies every request. Compiled programs are cached by
// their source.
type CEL struct {
	env       *cel.Env
	costLimit uint64

	mu       sync.RWMutex
	programs map[string]cel.Program
}

var _ PolicyChecker = (*CEL)(nil)

// NewCEL returns a CEL authorizer. A zero cost limit means
// DefaultCostLimit.
func NewCEL(costLimit uint64) (*CEL, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.StringType),
		cel.Variable("escrow_id", cel.BytesType),
		cel.Variable("order_id", cel.StringType),
		cel.Variable("caller", cel.StringType),
		cel.Variable("amount", cel.IntType),
		cel.Variable("asset_type", cel.StringType),
		cel.Variable("deposited_at", cel.IntType),
		cel.Variable("now", cel.IntType),
		cel.Variable("proof", cel.BytesType),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "cel environment: %s", err)
	}
	if costLimit == 0 {
		costLimit = DefaultCostLimit
	}
	return &CEL{
		env:       env,
		costLimit: costLimit,
		programs:  make(map[string]cel.Program),
	}, nil
}

// CheckPolicy implements PolicyChecker. The policy must be a valid
// boolean expression.
func (c *CEL) CheckPolicy(_ custody.Address, policy []byte) error {
	if len(policy) == 0 {
		return errors.Wrap(errors.ErrEmpty, "policy")
	}
	_, err := c.program(string(policy))
	return err
}

// Authorize implements Authorizer.
func (c *CEL) Authorize(ctx context.Context, req *Request) (bool, error) {
	if len(req.Policy) == 0 {
		return false, nil
	}
	prg, err := c.program(string(req.Policy))
	if err != nil {
		return false, err
	}
	if req.Amount > math.MaxInt64 {
		return false, errors.Wrap(errors.ErrOverflow, "amount")
	}
	var caller string
	if req.Caller != nil {
		caller = req.Caller.String()
	}
	out, _, err := prg.ContextEval(ctx, map[string]interface{}{
		"action":       string(req.Action),
		"escrow_id":    req.EscrowID,
		"order_id":     string(req.OrderID),
		"caller":       caller,
		"amount":       int64(req.Amount),
		"asset_type":   req.AssetType,
		"deposited_at": int64(req.DepositedAt),
		"now":          int64(custody.NowTimestamp(ctx)),
		"proof":        req.Proof,
	})
	if err != nil {
		return false, errors.Wrapf(errors.ErrInput, "policy evaluation: %s", err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, errors.Wrapf(errors.ErrInput, "policy returned %s, not a bool", out.Type())
	}
	return ok, nil
}

func (c *CEL) program(src string) (cel.Program, error) {
	c.mu.RLock()
	prg, ok := c.programs[src]
	c.mu.RUnlock()
	if ok {
		return prg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, ok := c.programs[src]; ok {
		return prg, nil
	}
	ast, iss := c.env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(errors.ErrInput, "policy: %s", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Wrapf(errors.ErrInput, "policy must return a bool, not %s", ast.OutputType())
	}
	prg, err := c.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(c.costLimit),
	)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "policy program: %s", err)
	}
	c.programs[src] = prg
	return prg, nil
}
