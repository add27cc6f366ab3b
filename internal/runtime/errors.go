package runtime

import (
	"fmt"

	"ypsh-lang/internal/span"
)

// ErrorKind classifies script-level errors. Every kind is catchable by an
// enclosing do/catch.
type ErrorKind int

const (
	NameError ErrorKind = iota
	ImmutableAssignmentError
	TypeError
	ArityError
	IndexError
	KeyError
	ZeroDivisionError
	AttributeError
	ShellCommandError
	ForeignExecutionError
	ImportError
)

var errorKindNames = map[ErrorKind]string{
	NameError:                "NameError",
	ImmutableAssignmentError: "ImmutableAssignmentError",
	TypeError:                "TypeError",
	ArityError:               "ArityError",
	IndexError:               "IndexError",
	KeyError:                 "KeyError",
	ZeroDivisionError:        "ZeroDivisionError",
	AttributeError:           "AttributeError",
	ShellCommandError:        "ShellCommandError",
	ForeignExecutionError:    "ForeignExecutionError",
	ImportError:              "ImportError",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ScriptError is the single raised-error currency of the evaluator. It
// travels as the Error control signal and carries an optional payload dict
// exposed to catch handlers.
type ScriptError struct {
	Kind    ErrorKind
	Message string
	Payload *DictVal // extra fields for the catch value, may be nil
	Span    span.Span
}

func (e *ScriptError) Error() string {
	if e.Span.Start.Line > 0 {
		return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Span.Start.Line, e.Span.Start.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// CatchValue builds the value bound to the catch variable: a dict with kind
// and message, merged with any payload fields.
func (e *ScriptError) CatchValue() Value {
	d := NewDict()
	d.Set("kind", StrVal(e.Kind.String()))
	d.Set("message", StrVal(e.Message))
	if e.Payload != nil {
		for _, k := range e.Payload.Keys {
			d.Set(k, e.Payload.Values[k])
		}
	}
	return d
}

func scriptErr(kind ErrorKind, s span.Span, format string, args ...interface{}) *ScriptError {
	return &ScriptError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: s}
}

// errNoSpan builds a ScriptError without position; the evaluator fills in the
// call site span before propagating.
func errNoSpan(kind ErrorKind, format string, args ...interface{}) *ScriptError {
	return &ScriptError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// RuntimeError reports interpreter misuse that is not part of the script
// error taxonomy (stray control signals, unhandled nodes). It is never
// catchable by do/catch.
type RuntimeError struct {
	Message string
	Span    span.Span
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func runtimeErr(s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Span: s}
}
