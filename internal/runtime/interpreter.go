package runtime

import (
	"io"
	"strings"

	"ypsh-lang/internal/ast"
	"ypsh-lang/internal/span"
	"ypsh-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and an optional value (for return,
// and for the REPL echo of expression statements).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Interpreter
// ============================================================

// ShellRunner dispatches a shell-escape line to the operating system. It
// blocks until the spawned process exits and returns its exit code.
type ShellRunner interface {
	Run(command string, stdout, stderr io.Writer) (int, error)
}

// ForeignEvaluator runs a host-language snippet and maps its result back
// into a runtime value.
type ForeignEvaluator interface {
	Eval(src string) (Value, error)
}

// Interpreter walks the AST and executes it.
type Interpreter struct {
	global *Environment
	env    *Environment
	stdout io.Writer
	stderr io.Writer

	shell   ShellRunner
	foreign ForeignEvaluator

	scriptDir   string
	searchPaths []string

	builtinNames map[string]bool // excluded from import namespace export
	importing    map[string]bool // scripts currently being imported (cycle guard)
}

// NewInterpreter creates a new interpreter with built-in functions registered
// and the default external collaborators wired in.
func NewInterpreter(stdout, stderr io.Writer) *Interpreter {
	global := NewGlobalEnvironment()
	i := &Interpreter{
		global:       global,
		env:          global,
		stdout:       stdout,
		stderr:       stderr,
		shell:        NewSystemShell(),
		foreign:      NewHostEvaluator(),
		builtinNames: make(map[string]bool),
		importing:    make(map[string]bool),
	}
	i.registerBuiltins()
	return i
}

// SetShellRunner replaces the OS command collaborator.
func (i *Interpreter) SetShellRunner(r ShellRunner) { i.shell = r }

// SetForeignEvaluator replaces the foreign-bridge collaborator.
func (i *Interpreter) SetForeignEvaluator(f ForeignEvaluator) { i.foreign = f }

// SetScriptDir sets the directory imports resolve against first.
func (i *Interpreter) SetScriptDir(dir string) { i.scriptDir = dir }

// SetSearchPaths sets additional import search directories.
func (i *Interpreter) SetSearchPaths(paths []string) { i.searchPaths = paths }

// Env returns the current environment (useful for the REPL).
func (i *Interpreter) Env() *Environment {
	return i.env
}

// Run executes the entire AST file. A control signal escaping the program
// root is a distinct failure.
func (i *Interpreter) Run(file *ast.File) error {
	_, err := i.RunInteractive(file)
	return err
}

// RunInteractive executes the file and additionally returns the value of the
// last expression statement, for REPL echo. Statements that are not
// expressions yield a nil value.
func (i *Interpreter) RunInteractive(file *ast.File) (Value, error) {
	var last Value
	for _, node := range file.Body {
		result, err := i.execNode(node)
		if err != nil {
			return nil, err
		}
		switch result.Signal {
		case SigReturn:
			return nil, runtimeErr(node.GetSpan(), "return outside of function")
		case SigBreak:
			return nil, runtimeErr(node.GetSpan(), "break outside of loop")
		case SigContinue:
			return nil, runtimeErr(node.GetSpan(), "continue outside of loop")
		}
		if _, isExpr := node.(*ast.ExprStmt); isExpr {
			last = result.Value
		} else {
			last = nil
		}
	}
	return last, nil
}

// ============================================================
// Node dispatch
// ============================================================

func (i *Interpreter) execNode(node ast.Node) (ExecResult, error) {
	switch n := node.(type) {
	case *ast.FuncDecl:
		return i.execFuncDecl(n)
	case *ast.TemplateDecl:
		return i.execTemplateDecl(n)
	case *ast.ClassDecl:
		return i.execClassDecl(n)
	case *ast.EnumDecl:
		return i.execEnumDecl(n)
	case ast.Stmt:
		return i.execStmt(n)
	default:
		return resultNone, runtimeErr(node.GetSpan(), "unexpected node type: %T", node)
	}
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		return ExecResult{Signal: SigNone, Value: val}, nil

	case *ast.VarDeclStmt:
		return i.execVarDecl(s)

	case *ast.IntentStmt:
		i.env.SetIntent(s.Name, s.Kind)
		return resultNone, nil

	case *ast.AssignStmt:
		return i.execAssign(s)

	case *ast.ReturnStmt:
		var val Value = NoneVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ContinueStmt:
		return ExecResult{Signal: SigContinue}, nil

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.SwitchStmt:
		return i.execSwitch(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.ForInStmt:
		return i.execForIn(s)

	case *ast.DoCatchStmt:
		return i.execDoCatch(s)

	case *ast.ShellStmt:
		return i.execShell(s)

	case *ast.ImportStmt:
		return i.execImport(s)

	case *ast.BlockStmt:
		return i.execBlock(s, NewEnvironment(i.env))

	case *ast.FuncDecl:
		return i.execFuncDecl(s)

	default:
		return resultNone, runtimeErr(stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execVarDecl(s *ast.VarDeclStmt) (ExecResult, error) {
	var val Value = NoneVal{}
	if s.Init != nil {
		v, err := i.evalExpr(s.Init)
		if err != nil {
			return resultNone, err
		}
		val = v
	}

	switch s.Scope {
	case ast.ScopeGlobal:
		i.env.DefineGlobal(s.Name, val, s.IsLet)
	case ast.ScopeLocal:
		i.env.DefineLocal(s.Name, val, s.IsLet)
	default:
		i.env.Define(s.Name, val, s.IsLet)
	}
	return resultNone, nil
}

func (i *Interpreter) execAssign(s *ast.AssignStmt) (ExecResult, error) {
	val, err := i.evalExpr(s.Value)
	if err != nil {
		return resultNone, err
	}

	switch target := s.Target.(type) {
	case *ast.IdentExpr:
		if !i.env.Set(target.Name, val) {
			return resultNone, scriptErr(ImmutableAssignmentError, s.GetSpan(),
				"cannot assign to immutable binding '%s'", target.Name)
		}

	case *ast.AttrExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return resultNone, err
		}
		switch o := obj.(type) {
		case *InstanceVal:
			o.Fields[target.Name] = val
		case *DictVal:
			o.Set(target.Name, val)
		default:
			return resultNone, scriptErr(TypeError, s.GetSpan(),
				"cannot set attribute '%s' on value of type '%s'", target.Name, obj.TypeName())
		}

	case *ast.IndexExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return resultNone, err
		}
		idx, err := i.evalExpr(target.Index)
		if err != nil {
			return resultNone, err
		}
		switch o := obj.(type) {
		case *ListVal:
			idxInt, ok := ToInt64(idx)
			if !ok {
				return resultNone, scriptErr(TypeError, s.GetSpan(), "list index must be an integer")
			}
			if idxInt < 0 || int(idxInt) >= len(o.Elements) {
				return resultNone, scriptErr(IndexError, s.GetSpan(),
					"list index %d out of range (length %d)", idxInt, len(o.Elements))
			}
			o.Elements[idxInt] = val
		case *DictVal:
			keyStr, ok := idx.(StrVal)
			if !ok {
				return resultNone, scriptErr(TypeError, s.GetSpan(),
					"dict key must be a string, got '%s'", idx.TypeName())
			}
			o.Set(string(keyStr), val)
		default:
			return resultNone, scriptErr(TypeError, s.GetSpan(),
				"cannot index-assign value of type '%s'", obj.TypeName())
		}

	default:
		return resultNone, runtimeErr(s.GetSpan(), "invalid assignment target")
	}
	return resultNone, nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}

	if IsTruthy(cond) {
		return i.execBlock(s.Body, NewEnvironment(i.env))
	}

	for _, elseIf := range s.ElseIfs {
		cond, err := i.evalExpr(elseIf.Condition)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execBlock(elseIf.Body, NewEnvironment(i.env))
		}
	}

	if s.ElseBody != nil {
		return i.execBlock(s.ElseBody, NewEnvironment(i.env))
	}

	return resultNone, nil
}

// execSwitch runs at most the first matching arm; arms never fall through.
func (i *Interpreter) execSwitch(s *ast.SwitchStmt) (ExecResult, error) {
	subject, err := i.evalExpr(s.Subject)
	if err != nil {
		return resultNone, err
	}

	for _, arm := range s.Arms {
		val, err := i.evalExpr(arm.Value)
		if err != nil {
			return resultNone, err
		}
		if valuesEqual(subject, val) {
			return i.execBlock(arm.Body, NewEnvironment(i.env))
		}
	}

	if s.Default != nil {
		return i.execBlock(s.Default, NewEnvironment(i.env))
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}

		result, err := i.execBlock(s.Body, NewEnvironment(i.env))
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil
		}
		// SigContinue: next iteration
	}
	return resultNone, nil
}

func (i *Interpreter) execForIn(s *ast.ForInStmt) (ExecResult, error) {
	iterable, err := i.evalExpr(s.Iterable)
	if err != nil {
		return resultNone, err
	}

	var items []Value
	switch it := iterable.(type) {
	case *ListVal:
		items = it.Elements
	case *DictVal:
		// Keys are snapshotted at loop entry so mutation during iteration
		// does not change the traversal.
		items = make([]Value, len(it.Keys))
		for idx, k := range it.Keys {
			items[idx] = StrVal(k)
		}
	default:
		return resultNone, scriptErr(TypeError, s.GetSpan(),
			"for-in requires a list or dict, got '%s'", iterable.TypeName())
	}

	for _, elem := range items {
		loopEnv := NewEnvironment(i.env)
		loopEnv.DefineLocal(s.VarName, elem, false)

		result, err := i.execBlock(s.Body, loopEnv)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil
		}
	}
	return resultNone, nil
}

// execDoCatch absorbs a raised ScriptError from the body and runs the
// handler with the error value bound. Mutations made before the raise stay
// visible. Return/break/continue from the body propagate unchanged.
func (i *Interpreter) execDoCatch(s *ast.DoCatchStmt) (ExecResult, error) {
	result, err := i.execBlock(s.Body, NewEnvironment(i.env))
	if err == nil {
		return result, nil
	}

	scriptErr, ok := err.(*ScriptError)
	if !ok {
		return resultNone, err
	}

	catchEnv := NewEnvironment(i.env)
	if s.CatchName != "" {
		catchEnv.DefineLocal(s.CatchName, scriptErr.CatchValue(), false)
	}
	return i.execBlock(s.Handler, catchEnv)
}

func (i *Interpreter) execShell(s *ast.ShellStmt) (ExecResult, error) {
	command, err := i.evalInterpText(s.Command)
	if err != nil {
		return resultNone, err
	}

	code, runErr := i.shell.Run(command, i.stdout, i.stderr)
	if runErr != nil {
		e := scriptErr(ShellCommandError, s.GetSpan(), "shell command failed: %s", runErr)
		e.Payload = NewDict()
		e.Payload.Set("command", StrVal(command))
		e.Payload.Set("code", IntVal(-1))
		return resultNone, e
	}
	if code != 0 {
		e := scriptErr(ShellCommandError, s.GetSpan(), "shell command exited with code %d", code)
		e.Payload = NewDict()
		e.Payload.Set("command", StrVal(command))
		e.Payload.Set("code", IntVal(int64(code)))
		return resultNone, e
	}
	return resultNone, nil
}

func (i *Interpreter) execBlock(block *ast.BlockStmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, node := range block.Stmts {
		result, err := i.execNode(node)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

// ============================================================
// Declarations
// ============================================================

func (i *Interpreter) execFuncDecl(s *ast.FuncDecl) (ExecResult, error) {
	fn := &FuncVal{
		Name:       s.Name,
		Params:     s.Params,
		ReturnType: s.ReturnType,
		Body:       s.Body,
		Closure:    i.env,
	}
	i.env.Define(s.Name, fn, false)
	return resultNone, nil
}

func (i *Interpreter) execTemplateDecl(s *ast.TemplateDecl) (ExecResult, error) {
	tmpl := &TemplateVal{
		Name:    s.Name,
		Methods: make(map[string]*FuncVal),
		DefEnv:  i.env,
	}
	if err := i.collectTypeBody(s.Body, &tmpl.Fields, tmpl.Methods); err != nil {
		return resultNone, err
	}
	i.env.Define(s.Name, tmpl, false)
	return resultNone, nil
}

func (i *Interpreter) execClassDecl(s *ast.ClassDecl) (ExecResult, error) {
	cls := &ClassVal{
		Name:    s.Name,
		Methods: make(map[string]*FuncVal),
		DefEnv:  i.env,
	}

	if s.Parent != "" {
		parentVal, ok := i.env.Get(s.Parent)
		if !ok {
			return resultNone, scriptErr(NameError, s.GetSpan(), "undefined name '%s'", s.Parent)
		}
		switch parentVal.(type) {
		case *TemplateVal, *ClassVal:
			cls.Parent = parentVal
		default:
			return resultNone, scriptErr(TypeError, s.GetSpan(),
				"'%s' is not a template or class", s.Parent)
		}
	}

	if err := i.collectTypeBody(s.Body, &cls.Fields, cls.Methods); err != nil {
		return resultNone, err
	}
	i.env.Define(s.Name, cls, false)
	return resultNone, nil
}

// collectTypeBody splits a template/class body into ordered field
// initializers and a method table. Method closures capture the declaring
// environment.
func (i *Interpreter) collectTypeBody(body []ast.Node, fields *[]*ast.VarDeclStmt, methods map[string]*FuncVal) error {
	for _, node := range body {
		switch n := node.(type) {
		case *ast.VarDeclStmt:
			*fields = append(*fields, n)
		case *ast.FuncDecl:
			methods[n.Name] = &FuncVal{
				Name:       n.Name,
				Params:     n.Params,
				ReturnType: n.ReturnType,
				Body:       n.Body,
				Closure:    i.env,
			}
		default:
			return runtimeErr(node.GetSpan(), "unexpected node in type body: %T", node)
		}
	}
	return nil
}

func (i *Interpreter) execEnumDecl(s *ast.EnumDecl) (ExecResult, error) {
	enum := &EnumTypeVal{
		Name:    s.Name,
		Cases:   s.Cases,
		Members: make(map[string]*EnumMemberVal, len(s.Cases)),
	}
	for ordinal, name := range s.Cases {
		enum.Members[name] = &EnumMemberVal{Enum: enum, Name: name, Ordinal: ordinal}
	}
	i.env.Define(s.Name, enum, false)
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return IntVal(e.Value), nil
	case *ast.FloatLiteral:
		return FloatVal(e.Value), nil
	case *ast.StringLiteral:
		return StrVal(e.Value), nil
	case *ast.InterpString:
		text, err := i.evalInterpText(e)
		if err != nil {
			return nil, err
		}
		return StrVal(text), nil
	case *ast.BoolLiteral:
		return BoolVal(e.Value), nil
	case *ast.NoneLiteral:
		return NoneVal{}, nil
	case *ast.IdentExpr:
		return i.evalIdent(e)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.TernaryExpr:
		return i.evalTernary(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	case *ast.AttrExpr:
		return i.evalAttr(e)
	case *ast.IndexExpr:
		return i.evalIndex(e)
	case *ast.ListLiteral:
		return i.evalListLiteral(e)
	case *ast.DictLiteral:
		return i.evalDictLiteral(e)
	default:
		return nil, runtimeErr(expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

// evalInterpText evaluates each embedded expression in the current
// environment and splices its string form in source order.
func (i *Interpreter) evalInterpText(e *ast.InterpString) (string, error) {
	var sb strings.Builder
	for idx, part := range e.Parts {
		sb.WriteString(part)
		if idx < len(e.Exprs) {
			val, err := i.evalExpr(e.Exprs[idx])
			if err != nil {
				return "", err
			}
			sb.WriteString(val.String())
		}
	}
	return sb.String(), nil
}

func (i *Interpreter) evalIdent(e *ast.IdentExpr) (Value, error) {
	val, ok := i.env.Get(e.Name)
	if !ok {
		return nil, scriptErr(NameError, e.GetSpan(), "undefined name '%s'", e.Name)
	}
	return val, nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		switch v := operand.(type) {
		case IntVal:
			return IntVal(-int64(v)), nil
		case FloatVal:
			return FloatVal(-float64(v)), nil
		default:
			return nil, scriptErr(TypeError, e.GetSpan(), "cannot negate value of type '%s'", operand.TypeName())
		}
	default:
		return nil, runtimeErr(e.GetSpan(), "unknown unary operator: %s", e.Op)
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	// Short-circuit for logical operators
	if e.Op == token.AND || e.Op == token.OR {
		return i.evalLogical(e)
	}

	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	// Equality works for all types
	if e.Op == token.EQ {
		return BoolVal(valuesEqual(left, right)), nil
	}
	if e.Op == token.NEQ {
		return BoolVal(!valuesEqual(left, right)), nil
	}

	// String operations
	leftStr, leftIsStr := left.(StrVal)
	rightStr, rightIsStr := right.(StrVal)
	if leftIsStr && rightIsStr {
		switch e.Op {
		case token.PLUS:
			return StrVal(string(leftStr) + string(rightStr)), nil
		case token.LT:
			return BoolVal(string(leftStr) < string(rightStr)), nil
		case token.LTE:
			return BoolVal(string(leftStr) <= string(rightStr)), nil
		case token.GT:
			return BoolVal(string(leftStr) > string(rightStr)), nil
		case token.GTE:
			return BoolVal(string(leftStr) >= string(rightStr)), nil
		}
		return nil, scriptErr(TypeError, e.GetSpan(), "cannot apply '%s' to strings", e.Op)
	}

	// List concatenation yields a new list
	if leftList, ok := left.(*ListVal); ok && e.Op == token.PLUS {
		if rightList, ok := right.(*ListVal); ok {
			elems := make([]Value, 0, len(leftList.Elements)+len(rightList.Elements))
			elems = append(elems, leftList.Elements...)
			elems = append(elems, rightList.Elements...)
			return &ListVal{Elements: elems}, nil
		}
	}

	// Numeric operations. Int operands stay on int64 so values beyond
	// float64's integer range don't round.
	leftInt, leftIsInt := left.(IntVal)
	rightInt, rightIsInt := right.(IntVal)
	if leftIsInt && rightIsInt {
		li, ri := int64(leftInt), int64(rightInt)
		switch e.Op {
		case token.PLUS:
			return IntVal(li + ri), nil
		case token.MINUS:
			return IntVal(li - ri), nil
		case token.STAR:
			return IntVal(li * ri), nil
		case token.SLASH:
			if ri == 0 {
				return nil, scriptErr(ZeroDivisionError, e.GetSpan(), "division by zero")
			}
			return IntVal(li / ri), nil
		case token.PERCENT:
			if ri == 0 {
				return nil, scriptErr(ZeroDivisionError, e.GetSpan(), "modulo by zero")
			}
			return IntVal(li % ri), nil
		case token.LT:
			return BoolVal(li < ri), nil
		case token.LTE:
			return BoolVal(li <= ri), nil
		case token.GT:
			return BoolVal(li > ri), nil
		case token.GTE:
			return BoolVal(li >= ri), nil
		default:
			return nil, runtimeErr(e.GetSpan(), "unknown binary operator: %s", e.Op)
		}
	}

	leftF, leftOk := ToFloat64(left)
	rightF, rightOk := ToFloat64(right)
	if !leftOk || !rightOk {
		return nil, scriptErr(TypeError, e.GetSpan(), "cannot apply '%s' to '%s' and '%s'",
			e.Op, left.TypeName(), right.TypeName())
	}

	switch e.Op {
	case token.PLUS:
		return FloatVal(leftF + rightF), nil
	case token.MINUS:
		return FloatVal(leftF - rightF), nil
	case token.STAR:
		return FloatVal(leftF * rightF), nil
	case token.SLASH:
		if rightF == 0 {
			return nil, scriptErr(ZeroDivisionError, e.GetSpan(), "division by zero")
		}
		return FloatVal(leftF / rightF), nil
	case token.PERCENT:
		return nil, scriptErr(TypeError, e.GetSpan(), "modulo requires integer operands")
	case token.LT:
		return BoolVal(leftF < rightF), nil
	case token.LTE:
		return BoolVal(leftF <= rightF), nil
	case token.GT:
		return BoolVal(leftF > rightF), nil
	case token.GTE:
		return BoolVal(leftF >= rightF), nil
	default:
		return nil, runtimeErr(e.GetSpan(), "unknown binary operator: %s", e.Op)
	}
}

func (i *Interpreter) evalLogical(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == token.OR {
		if IsTruthy(left) {
			return left, nil // short-circuit
		}
		return i.evalExpr(e.Right)
	}
	// AND
	if !IsTruthy(left) {
		return left, nil // short-circuit
	}
	return i.evalExpr(e.Right)
}

func (i *Interpreter) evalTernary(e *ast.TernaryExpr) (Value, error) {
	cond, err := i.evalExpr(e.Condition)
	if err != nil {
		return nil, err
	}
	if IsTruthy(cond) {
		return i.evalExpr(e.Then)
	}
	return i.evalExpr(e.Else)
}

func (i *Interpreter) evalListLiteral(e *ast.ListLiteral) (Value, error) {
	elements := make([]Value, len(e.Elements))
	for idx, elemExpr := range e.Elements {
		val, err := i.evalExpr(elemExpr)
		if err != nil {
			return nil, err
		}
		elements[idx] = val
	}
	return &ListVal{Elements: elements}, nil
}

func (i *Interpreter) evalDictLiteral(e *ast.DictLiteral) (Value, error) {
	d := NewDict()
	for idx, key := range e.Keys {
		val, err := i.evalExpr(e.Values[idx])
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
	return d, nil
}

// dottedName flattens an attribute chain rooted at an identifier into a
// dotted string (a.b.c), for namespace lookup.
func dottedName(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		return e.Name, true
	case *ast.AttrExpr:
		prefix, ok := dottedName(e.Object)
		if !ok {
			return "", false
		}
		return prefix + "." + e.Name, true
	default:
		return "", false
	}
}

// evalAttr resolves attribute access. Imported namespaces are bound under
// dotted keys, so the full dotted name is tried before the object itself is
// evaluated.
func (i *Interpreter) evalAttr(e *ast.AttrExpr) (Value, error) {
	if full, ok := dottedName(e); ok {
		if val, found := i.env.Get(full); found {
			return val, nil
		}
	}

	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *InstanceVal:
		if val, exists := o.Fields[e.Name]; exists {
			return val, nil
		}
		if method := findMethod(o.Class, e.Name); method != nil {
			return &BoundMethodVal{Fn: method, Recv: o}, nil
		}
		return nil, scriptErr(AttributeError, e.GetSpan(),
			"'%s' instance has no attribute '%s'", o.Class.Name, e.Name)

	case *ClassVal:
		if method := findMethod(o, e.Name); method != nil {
			return method, nil
		}
		return nil, scriptErr(AttributeError, e.GetSpan(),
			"class '%s' has no attribute '%s'", o.Name, e.Name)

	case *TemplateVal:
		if method, exists := o.Methods[e.Name]; exists {
			return method, nil
		}
		return nil, scriptErr(AttributeError, e.GetSpan(),
			"template '%s' has no attribute '%s'", o.Name, e.Name)

	case *EnumTypeVal:
		if member, exists := o.Members[e.Name]; exists {
			return member, nil
		}
		return nil, scriptErr(AttributeError, e.GetSpan(),
			"enum '%s' has no case '%s'", o.Name, e.Name)

	case *EnumMemberVal:
		switch e.Name {
		case "name":
			return StrVal(o.Name), nil
		case "ordinal":
			return IntVal(int64(o.Ordinal)), nil
		}
		return nil, scriptErr(AttributeError, e.GetSpan(),
			"enum case has no attribute '%s'", e.Name)

	case *DictVal:
		if val, exists := o.Values[e.Name]; exists {
			return val, nil
		}
		return nil, scriptErr(KeyError, e.GetSpan(), "dict has no key '%s'", e.Name)

	default:
		return nil, scriptErr(TypeError, e.GetSpan(),
			"cannot access attribute '%s' on value of type '%s'", e.Name, obj.TypeName())
	}
}

func (i *Interpreter) evalIndex(e *ast.IndexExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalExpr(e.Index)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case StrVal:
		idxInt, ok := ToInt64(idx)
		if !ok {
			return nil, scriptErr(TypeError, e.GetSpan(), "string index must be an integer")
		}
		s := string(o)
		if idxInt < 0 || int(idxInt) >= len(s) {
			return nil, scriptErr(IndexError, e.GetSpan(),
				"string index %d out of range (length %d)", idxInt, len(s))
		}
		return StrVal(string(s[idxInt])), nil
	case *ListVal:
		idxInt, ok := ToInt64(idx)
		if !ok {
			return nil, scriptErr(TypeError, e.GetSpan(), "list index must be an integer")
		}
		if idxInt < 0 || int(idxInt) >= len(o.Elements) {
			return nil, scriptErr(IndexError, e.GetSpan(),
				"list index %d out of range (length %d)", idxInt, len(o.Elements))
		}
		return o.Elements[idxInt], nil
	case *DictVal:
		keyStr, ok := idx.(StrVal)
		if !ok {
			return nil, scriptErr(TypeError, e.GetSpan(),
				"dict key must be a string, got '%s'", idx.TypeName())
		}
		if val, exists := o.Values[string(keyStr)]; exists {
			return val, nil
		}
		return nil, scriptErr(KeyError, e.GetSpan(), "dict has no key '%s'", string(keyStr))
	default:
		return nil, scriptErr(TypeError, e.GetSpan(), "cannot index value of type '%s'", obj.TypeName())
	}
}

// ============================================================
// Calls
// ============================================================

type kwArg struct {
	name  string
	value Value
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	kwargs := make([]kwArg, len(e.Kwargs))
	for idx, kw := range e.Kwargs {
		val, err := i.evalExpr(kw.Value)
		if err != nil {
			return nil, err
		}
		kwargs[idx] = kwArg{name: kw.Name, value: val}
	}

	return i.callValue(callee, args, kwargs, e.GetSpan())
}

func (i *Interpreter) callValue(callee Value, args []Value, kwargs []kwArg, s span.Span) (Value, error) {
	switch fn := callee.(type) {
	case *FuncVal:
		return i.callFunction(fn, nil, args, kwargs, s)
	case *BoundMethodVal:
		return i.callFunction(fn.Fn, fn.Recv, args, kwargs, s)
	case *BuiltinVal:
		if len(kwargs) > 0 {
			return nil, scriptErr(ArityError, s, "%s() does not accept keyword arguments", fn.Name)
		}
		val, err := fn.Fn(args)
		if err != nil {
			if se, ok := err.(*ScriptError); ok {
				if se.Span.Start.Line == 0 {
					se.Span = s
				}
				return nil, se
			}
			return nil, scriptErr(TypeError, s, "%s", err)
		}
		return val, nil
	case *ClassVal:
		return i.instantiate(fn, args, kwargs, s)
	case *TemplateVal:
		return nil, scriptErr(TypeError, s, "template '%s' cannot be instantiated", fn.Name)
	default:
		return nil, scriptErr(TypeError, s, "cannot call value of type '%s'", callee.TypeName())
	}
}

// callFunction binds arguments positionally, then by keyword, then fills
// remaining parameters from their default expressions. Defaults are
// evaluated in the new call frame, so a default may reference parameters
// already bound before it. recv, when non-nil, is prepended as the first
// positional argument (the explicit self parameter of methods).
func (i *Interpreter) callFunction(fn *FuncVal, recv Value, args []Value, kwargs []kwArg, s span.Span) (Value, error) {
	if recv != nil {
		args = append([]Value{recv}, args...)
	}

	frame := NewEnvironment(fn.Closure)
	paramIndex := make(map[string]int, len(fn.Params))
	for idx, p := range fn.Params {
		paramIndex[p.Name] = idx
	}
	bound := make([]bool, len(fn.Params))

	if len(args) > len(fn.Params) {
		return nil, scriptErr(ArityError, s, "%s() expects at most %d arguments, got %d",
			fn.Name, len(fn.Params), len(args))
	}
	for idx, arg := range args {
		frame.DefineLocal(fn.Params[idx].Name, arg, false)
		bound[idx] = true
	}

	for _, kw := range kwargs {
		idx, exists := paramIndex[kw.name]
		if !exists {
			return nil, scriptErr(ArityError, s, "%s() got unexpected keyword argument '%s'", fn.Name, kw.name)
		}
		if bound[idx] {
			return nil, scriptErr(ArityError, s, "%s() got multiple values for argument '%s'", fn.Name, kw.name)
		}
		frame.DefineLocal(kw.name, kw.value, false)
		bound[idx] = true
	}

	// Defaults run inside the call frame, in parameter order.
	prevEnv := i.env
	i.env = frame
	for idx, p := range fn.Params {
		if bound[idx] {
			continue
		}
		if p.Default == nil {
			i.env = prevEnv
			return nil, scriptErr(ArityError, s, "%s() missing required argument '%s'", fn.Name, p.Name)
		}
		val, err := i.evalExpr(p.Default)
		if err != nil {
			i.env = prevEnv
			return nil, err
		}
		frame.DefineLocal(p.Name, val, false)
	}
	i.env = prevEnv

	result, err := i.execBlock(fn.Body, frame)
	if err != nil {
		return nil, err
	}
	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak:
		return nil, runtimeErr(s, "break outside of loop")
	case SigContinue:
		return nil, runtimeErr(s, "continue outside of loop")
	}
	return NoneVal{}, nil
}

// ============================================================
// Instantiation and method resolution
// ============================================================

// typeChain returns the inheritance chain root-first, ending at t.
func typeChain(t Value) []Value {
	var chain []Value
	for t != nil {
		chain = append([]Value{t}, chain...)
		switch v := t.(type) {
		case *ClassVal:
			t = v.Parent
		default:
			t = nil
		}
	}
	return chain
}

func typeFields(t Value) []*ast.VarDeclStmt {
	switch v := t.(type) {
	case *ClassVal:
		return v.Fields
	case *TemplateVal:
		return v.Fields
	}
	return nil
}

func typeDefEnv(t Value) *Environment {
	switch v := t.(type) {
	case *ClassVal:
		return v.DefEnv
	case *TemplateVal:
		return v.DefEnv
	}
	return nil
}

// findMethod walks the inheritance chain from cls outward to its root.
func findMethod(cls *ClassVal, name string) *FuncVal {
	var t Value = cls
	for t != nil {
		switch v := t.(type) {
		case *ClassVal:
			if m, exists := v.Methods[name]; exists {
				return m
			}
			t = v.Parent
		case *TemplateVal:
			if m, exists := v.Methods[name]; exists {
				return m
			}
			t = nil
		default:
			t = nil
		}
	}
	return nil
}

// instantiate creates an instance: field initializers run root-first so a
// child's initializer overrides its parent's, then __init__ runs with self
// bound to the new instance.
func (i *Interpreter) instantiate(cls *ClassVal, args []Value, kwargs []kwArg, s span.Span) (Value, error) {
	inst := &InstanceVal{Class: cls, Fields: make(map[string]Value)}

	for _, t := range typeChain(cls) {
		defEnv := typeDefEnv(t)
		for _, field := range typeFields(t) {
			var val Value = NoneVal{}
			if field.Init != nil {
				fieldEnv := NewEnvironment(defEnv)
				prevEnv := i.env
				i.env = fieldEnv
				v, err := i.evalExpr(field.Init)
				i.env = prevEnv
				if err != nil {
					return nil, err
				}
				val = v
			}
			inst.Fields[field.Name] = val
		}
	}

	if ctor := findMethod(cls, "__init__"); ctor != nil {
		if _, err := i.callFunction(ctor, inst, args, kwargs, s); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kwargs) > 0 {
		return nil, scriptErr(ArityError, s,
			"%s has no __init__ but was called with arguments", cls.Name)
	}

	return inst, nil
}
