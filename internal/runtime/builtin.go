package runtime

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// registerBuiltins adds the built-in functions to the global environment.
// They are interpreter methods in closure form so print reaches the
// configured output streams and shell/hosteval reach the collaborators.
func (i *Interpreter) registerBuiltins() {
	define := func(name string, fn BuiltinFn) {
		i.global.Define(name, &BuiltinVal{Name: name, Fn: fn}, true)
		i.builtinNames[name] = true
	}

	define("print", func(args []Value) (Value, error) {
		parts := make([]string, len(args))
		for idx, v := range args {
			parts[idx] = v.String()
		}
		fmt.Fprintln(i.stdout, strings.Join(parts, " "))
		return NoneVal{}, nil
	})

	define("len", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "len() expects 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case StrVal:
			return IntVal(len(string(v))), nil
		case *ListVal:
			return IntVal(len(v.Elements)), nil
		case *DictVal:
			return IntVal(len(v.Keys)), nil
		default:
			return nil, errNoSpan(TypeError, "len() not supported for type '%s'", args[0].TypeName())
		}
	})

	define("type", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "type() expects 1 argument, got %d", len(args))
		}
		return StrVal(args[0].TypeName()), nil
	})

	define("str", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "str() expects 1 argument, got %d", len(args))
		}
		return StrVal(args[0].String()), nil
	})

	define("int", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "int() expects 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case IntVal:
			return v, nil
		case FloatVal:
			return IntVal(int64(float64(v))), nil
		case BoolVal:
			if bool(v) {
				return IntVal(1), nil
			}
			return IntVal(0), nil
		case StrVal:
			n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
			if err != nil {
				return nil, errNoSpan(TypeError, "int() cannot parse '%s'", string(v))
			}
			return IntVal(n), nil
		default:
			return nil, errNoSpan(TypeError, "int() not supported for type '%s'", args[0].TypeName())
		}
	})

	define("float", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "float() expects 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case FloatVal:
			return v, nil
		case IntVal:
			return FloatVal(float64(int64(v))), nil
		case StrVal:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
			if err != nil {
				return nil, errNoSpan(TypeError, "float() cannot parse '%s'", string(v))
			}
			return FloatVal(f), nil
		default:
			return nil, errNoSpan(TypeError, "float() not supported for type '%s'", args[0].TypeName())
		}
	})

	define("bool", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "bool() expects 1 argument, got %d", len(args))
		}
		return BoolVal(IsTruthy(args[0])), nil
	})

	define("mod", func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, errNoSpan(ArityError, "mod() expects 2 arguments, got %d", len(args))
		}
		a, aOk := args[0].(IntVal)
		b, bOk := args[1].(IntVal)
		if !aOk || !bOk {
			return nil, errNoSpan(TypeError, "mod() requires integer arguments")
		}
		if int64(b) == 0 {
			return nil, errNoSpan(ZeroDivisionError, "modulo by zero")
		}
		return IntVal(int64(a) % int64(b)), nil
	})

	define("range", func(args []Value) (Value, error) {
		var start, stop, step int64 = 0, 0, 1
		switch len(args) {
		case 1:
			n, ok := args[0].(IntVal)
			if !ok {
				return nil, errNoSpan(TypeError, "range() requires integer arguments")
			}
			stop = int64(n)
		case 2, 3:
			a, aOk := args[0].(IntVal)
			b, bOk := args[1].(IntVal)
			if !aOk || !bOk {
				return nil, errNoSpan(TypeError, "range() requires integer arguments")
			}
			start, stop = int64(a), int64(b)
			if len(args) == 3 {
				c, ok := args[2].(IntVal)
				if !ok {
					return nil, errNoSpan(TypeError, "range() requires integer arguments")
				}
				step = int64(c)
			}
		default:
			return nil, errNoSpan(ArityError, "range() expects 1-3 arguments, got %d", len(args))
		}
		if step == 0 {
			return nil, errNoSpan(TypeError, "range() step cannot be zero")
		}
		var elements []Value
		if step > 0 {
			for v := start; v < stop; v += step {
				elements = append(elements, IntVal(v))
			}
		} else {
			for v := start; v > stop; v += step {
				elements = append(elements, IntVal(v))
			}
		}
		return &ListVal{Elements: elements}, nil
	})

	define("push", func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, errNoSpan(ArityError, "push() expects 2 arguments, got %d", len(args))
		}
		list, ok := args[0].(*ListVal)
		if !ok {
			return nil, errNoSpan(TypeError, "push() first argument must be a list, got '%s'", args[0].TypeName())
		}
		list.Elements = append(list.Elements, args[1])
		return IntVal(len(list.Elements)), nil
	})

	define("pop", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "pop() expects 1 argument, got %d", len(args))
		}
		list, ok := args[0].(*ListVal)
		if !ok {
			return nil, errNoSpan(TypeError, "pop() first argument must be a list, got '%s'", args[0].TypeName())
		}
		if len(list.Elements) == 0 {
			return nil, errNoSpan(IndexError, "pop() on empty list")
		}
		last := list.Elements[len(list.Elements)-1]
		list.Elements = list.Elements[:len(list.Elements)-1]
		return last, nil
	})

	define("keys", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "keys() expects 1 argument, got %d", len(args))
		}
		d, ok := args[0].(*DictVal)
		if !ok {
			return nil, errNoSpan(TypeError, "keys() expects a dict argument, got '%s'", args[0].TypeName())
		}
		elements := make([]Value, len(d.Keys))
		for idx, k := range d.Keys {
			elements[idx] = StrVal(k)
		}
		return &ListVal{Elements: elements}, nil
	})

	define("values", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "values() expects 1 argument, got %d", len(args))
		}
		d, ok := args[0].(*DictVal)
		if !ok {
			return nil, errNoSpan(TypeError, "values() expects a dict argument, got '%s'", args[0].TypeName())
		}
		elements := make([]Value, len(d.Keys))
		for idx, k := range d.Keys {
			elements[idx] = d.Values[k]
		}
		return &ListVal{Elements: elements}, nil
	})

	define("shell", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "shell() expects 1 argument, got %d", len(args))
		}
		cmd, ok := args[0].(StrVal)
		if !ok {
			return nil, errNoSpan(TypeError, "shell() command must be a string")
		}
		code, err := i.shell.Run(string(cmd), i.stdout, i.stderr)
		if err != nil {
			return nil, errNoSpan(ShellCommandError, "shell command failed: %s", err)
		}
		// Unlike `$ cmd` lines, a non-zero exit is returned, not raised.
		return IntVal(int64(code)), nil
	})

	define("hosteval", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errNoSpan(ArityError, "hosteval() expects 1 argument, got %d", len(args))
		}
		src, ok := args[0].(StrVal)
		if !ok {
			return nil, errNoSpan(TypeError, "hosteval() source must be a string")
		}
		val, err := i.foreign.Eval(string(src))
		if err != nil {
			return nil, errNoSpan(ForeignExecutionError, "%s", err)
		}
		return val, nil
	})

	define("exit", func(args []Value) (Value, error) {
		code := int64(0)
		if len(args) > 1 {
			return nil, errNoSpan(ArityError, "exit() expects 0-1 arguments, got %d", len(args))
		}
		if len(args) == 1 {
			n, ok := args[0].(IntVal)
			if !ok {
				return nil, errNoSpan(TypeError, "exit() code must be an integer")
			}
			code = int64(n)
		}
		os.Exit(int(code))
		return NoneVal{}, nil
	})
}
