package dsl

import (
	"fmt"

	"github.com/etnz/fins"
)

// execVariable stores its input at the path and forwards it, or reads the
// path when there is no input.
func execVariable(n Node, env *Env) (fins.Output, error) {
	v := n.(*VariableNode)
	if !env.Input.IsVoid() {
		meta := map[string]any{"type": string(env.Input.Kind())}
		if err := env.Storage().Set(v.Path, env.Input.Data(), meta); err != nil {
			return fins.Output{}, fmt.Errorf("storage error: %w", err)
		}
		return env.Input.WithLog("stored in " + v.Path), nil
	}

	val, ok, err := env.Storage().Get(v.Path)
	if err != nil {
		return fins.Output{}, fmt.Errorf("storage error: %w", err)
	}
	if !ok {
		return fins.Output{}, fmt.Errorf("%w: variable %s", fins.ErrNotFound, v.Path)
	}
	var out fins.Output
	switch d := val.Data.(type) {
	case fins.Function:
		out = fins.NewOutput(d.Body)
	case *fins.Function:
		out = fins.NewOutput(d.Body)
	default:
		out = fins.NewOutput(d)
	}
	if out.IsError() {
		return fins.Output{}, fmt.Errorf("cannot read %s: %w", v.Path, out.Err())
	}
	for k, m := range val.Metadata {
		out = out.WithMetadata(k, m)
	}
	return out, nil
}

func execLock(n Node, env *Env) (fins.Output, error) {
	path := n.(*LockNode).Path
	if err := env.Storage().Lock(path); err != nil {
		return fins.Output{}, fmt.Errorf("cannot lock %s: %w", path, err)
	}
	return env.Input.WithLog(path + " locked"), nil
}

func execUnlock(n Node, env *Env) (fins.Output, error) {
	path := n.(*UnlockNode).Path
	if err := env.Storage().Unlock(path); err != nil {
		return fins.Output{}, fmt.Errorf("cannot unlock %s: %w", path, err)
	}
	return env.Input.WithLog(path + " unlocked"), nil
}

func execDefine(n Node, env *Env) (fins.Output, error) {
	d := n.(*DefineNode)
	if _, err := Parse(d.Body); err != nil {
		return fins.Output{}, fmt.Errorf("invalid body of !%s: %w", d.Name, err)
	}
	fn := fins.Function{Name: d.Name, Body: d.Body}
	if err := env.Storage().Set(FunctionPath(d.Name), fn, map[string]any{"type": "function"}); err != nil {
		return fins.Output{}, fmt.Errorf("storage error: %w", err)
	}
	return fins.Void().WithLog("defined !" + d.Name), nil
}

func execCall(n Node, env *Env) (fins.Output, error) {
	name := n.(*CallNode).Name
	val, ok, err := env.Storage().Get(FunctionPath(name))
	if err != nil {
		return fins.Output{}, fmt.Errorf("storage error: %w", err)
	}
	if !ok {
		return fins.Output{}, fmt.Errorf("%w: function !%s", fins.ErrNotFound, name)
	}
	var body string
	switch fn := val.Data.(type) {
	case fins.Function:
		body = fn.Body
	case *fins.Function:
		body = fn.Body
	default:
		return fins.Output{}, fmt.Errorf("%w: %s is not a function", fins.ErrTypeMismatch, FunctionPath(name))
	}
	chain, err := Parse(body)
	if err != nil {
		return fins.Output{}, fmt.Errorf("function !%s: %w", name, err)
	}
	return env.call(chain)
}
