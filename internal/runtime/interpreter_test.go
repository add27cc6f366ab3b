package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"ypsh-lang/internal/lexer"
	"ypsh-lang/internal/parser"
)

// fakeShell records dispatched commands and plays back a canned exit code,
// so tests never spawn real processes.
type fakeShell struct {
	commands []string
	output   string
	code     int
	err      error
}

func (f *fakeShell) Run(command string, stdout, stderr io.Writer) (int, error) {
	f.commands = append(f.commands, command)
	if f.output != "" {
		fmt.Fprint(stdout, f.output)
	}
	return f.code, f.err
}

// fakeForeign plays back a canned bridge result.
type fakeForeign struct {
	result Value
	err    error
}

func (f fakeForeign) Eval(src string) (Value, error) {
	return f.result, f.err
}

// runSource parses and executes source code, returning captured output and any error.
func runSource(source string) (string, error) {
	return runSourceWith(source, &fakeShell{}, fakeForeign{result: NoneVal{}})
}

func runSourceWith(source string, sh ShellRunner, fe ForeignEvaluator) (string, error) {
	l := lexer.New(source, "test.ypsh")
	tokens, _ := l.Tokenize()
	p := parser.New(tokens)
	file, _ := p.ParseFile()

	var buf bytes.Buffer
	interp := NewInterpreter(&buf, &buf)
	interp.SetShellRunner(sh)
	interp.SetForeignEvaluator(fe)
	err := interp.Run(file)
	return buf.String(), err
}

func expectOutput(t *testing.T, source, expected string) {
	t.Helper()
	out, err := runSource(source)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if strings.TrimRight(out, "\n") != strings.TrimRight(expected, "\n") {
		t.Errorf("output mismatch:\nexpected: %q\ngot:      %q", expected, out)
	}
}

func expectError(t *testing.T, source, contains string) {
	t.Helper()
	_, err := runSource(source)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("expected error containing %q, got: %v", contains, err)
	}
}

// ---- Basics ----

func TestPrintLiterals(t *testing.T) {
	expectOutput(t, `print(42)`, "42\n")
	expectOutput(t, `print("hello")`, "hello\n")
	expectOutput(t, `print(true, false, none)`, "true false none\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `print(1 + 2 * 3)`, "7\n")
	expectOutput(t, `print((1 + 2) * 3)`, "9\n")
	expectOutput(t, `print(10 / 4)`, "2\n") // integer division
	expectOutput(t, `print(10.0 / 4)`, "2.5\n")
	expectOutput(t, `print(1.0 + 2)`, "3.0\n") // float result keeps its marker
	expectOutput(t, `print(-5, -3.14)`, "-5 -3.14\n")
}

func TestLargeIntArithmetic(t *testing.T) {
	// Values beyond float64's 2^53 integer range must not round.
	expectOutput(t, `print(9007199254740993 + 1)`, "9007199254740994\n")
	expectOutput(t, `print(9007199254740993 - 1)`, "9007199254740992\n")
	expectOutput(t, `print(9007199254740993 * 1)`, "9007199254740993\n")
	expectOutput(t, `print(9007199254740993 / 1)`, "9007199254740993\n")
	expectOutput(t, `print(9007199254740993 > 9007199254740992)`, "true\n")
}

func TestModBuiltin(t *testing.T) {
	expectOutput(t, `
var a = 10 + 20
var b = mod(a, 7)
print(a)
print(b)
`, "30\n2\n")
}

func TestDivisionByZero(t *testing.T) {
	expectError(t, `print(1 / 0)`, "division by zero")
	expectError(t, `print(mod(1, 0))`, "modulo by zero")
}

func TestComparisonAndEquality(t *testing.T) {
	expectOutput(t, `print(1 == 1.0)`, "true\n")
	expectOutput(t, `print(1 != 2)`, "true\n")
	expectOutput(t, `print(3 > 2, 2 <= 2)`, "true true\n")
	expectOutput(t, `print("abc" < "abd")`, "true\n")
	expectOutput(t, `print(none == none, none == 1)`, "true false\n")
	expectOutput(t, `print([1, 2] == [1, 2])`, "true\n")
}

func TestStringOps(t *testing.T) {
	expectOutput(t, `print("hello" + " " + "world")`, "hello world\n")
	expectOutput(t, `print("hello"[1])`, "e\n")
	expectOutput(t, `print(len("hello"))`, "5\n")
}

func TestInterpolation(t *testing.T) {
	expectOutput(t, `
var name = "world"
print("hello \(name), 2+2=\(2 + 2)")
`, "hello world, 2+2=4\n")
}

func TestTernary(t *testing.T) {
	expectOutput(t, `print(5 > 3 ? "yes" : "no")`, "yes\n")
	expectOutput(t, `print(1 > 3 ? "yes" : "no")`, "no\n")
}

func TestShortCircuit(t *testing.T) {
	expectOutput(t, `
func boom() {
  print("boom")
  return true
}
print(false && boom())
print(true || boom())
`, "false\ntrue\n")
}

// ---- Bindings and scope ----

func TestVarReassign(t *testing.T) {
	expectOutput(t, `
var x = 1
x = 2
x += 3
print(x)
`, "5\n")
}

func TestLetImmutable(t *testing.T) {
	expectError(t, `
let k = 1
k = 2
`, "cannot assign to immutable binding 'k'")
}

func TestUndefinedName(t *testing.T) {
	expectError(t, `print(missing)`, "undefined name 'missing'")
}

func TestLocalShadowing(t *testing.T) {
	expectOutput(t, `
var x = 1
func f() {
  local var x = 2
  print(x)
}
f()
print(x)
`, "2\n1\n")
}

func TestGlobalIntent(t *testing.T) {
	expectOutput(t, `
func setup() {
  global total
  var total = 5
}
setup()
print(total)
`, "5\n")
}

func TestGlobalVarDecl(t *testing.T) {
	expectOutput(t, `
func setup() {
  global var total = 7
}
setup()
print(total)
`, "7\n")
}

// ---- Control flow ----

func TestIfElifElse(t *testing.T) {
	expectOutput(t, `
var x = 3
if x > 5 {
  print("big")
} elif x > 1 {
  print("medium")
} else {
  print("small")
}
`, "medium\n")
}

func TestWhileBreakContinue(t *testing.T) {
	expectOutput(t, `
var i = 0
var sum = 0
while true {
  i += 1
  if i > 5 {
    break
  }
  if i == 3 {
    continue
  }
  sum += i
}
print(sum)
`, "12\n")
}

func TestForInList(t *testing.T) {
	expectOutput(t, `
for x in [1, 2, 3] {
  print(x)
}
`, "1\n2\n3\n")
}

func TestForInDictSnapshot(t *testing.T) {
	// Keys added during iteration must not be visited.
	expectOutput(t, `
var d = {a: 1, b: 2}
for k in d {
  d[k + k] = 0
  print(k)
}
`, "a\nb\n")
}

func TestSwitchFirstMatch(t *testing.T) {
	expectOutput(t, `
var x = 2
switch x {
  case 1: {
    print("one")
  }
  case 2: {
    print("two")
  }
  case 1 + 1: {
    print("dup")
  }
  default: {
    print("other")
  }
}
`, "two\n")

	expectOutput(t, `
switch "nope" {
  case "yes": {
    print("yes")
  }
  default: {
    print("fallback")
  }
}
`, "fallback\n")
}

func TestStrayBreak(t *testing.T) {
	expectError(t, `break`, "break outside of loop")
	expectError(t, `continue`, "continue outside of loop")
	expectError(t, `return 1`, "return outside of function")
}

// ---- Functions ----

func TestFunctionReturnType(t *testing.T) {
	expectOutput(t, `
func add(x, y) -> int {
  return x + y
}
print(add(5, 7))
`, "12\n")
}

func TestBareReturn(t *testing.T) {
	expectOutput(t, `
func f() {
  return
}
print(f())
`, "none\n")
}

func TestDefaultReferencesEarlierParam(t *testing.T) {
	expectOutput(t, `
func f(a, b = a + 1) {
  return b
}
print(f(5))
print(f(5, 10))
`, "6\n10\n")
}

func TestKeywordArguments(t *testing.T) {
	expectOutput(t, `
func sub(a, b) {
  return a - b
}
print(sub(b=1, a=10))
print(sub(10, b=4))
`, "9\n6\n")
}

func TestArityErrors(t *testing.T) {
	expectError(t, `
func f(a) {
  return a
}
f(1, 2)
`, "expects at most 1 arguments")
	expectError(t, `
func f(a, b) {
  return a
}
f(1)
`, "missing required argument 'b'")
	expectError(t, `
func f(a) {
  return a
}
f(a=1, c=2)
`, "unexpected keyword argument 'c'")
	expectError(t, `
func f(a) {
  return a
}
f(1, a=2)
`, "multiple values for argument 'a'")
}

func TestClosureCounter(t *testing.T) {
	expectOutput(t, `
func makeCounter() {
  var count = 0
  func inc() {
    count += 1
    return count
  }
  return inc
}
var counter = makeCounter()
print(counter())
print(counter())
print(counter())
`, "1\n2\n3\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
func fib(n) {
  if n <= 1 {
    return n
  }
  return fib(n - 1) + fib(n - 2)
}
print(fib(10))
`, "55\n")
}

// ---- Collections ----

func TestListOps(t *testing.T) {
	expectOutput(t, `
var l = [1, 2]
push(l, 3)
print(len(l), pop(l), len(l))
print([1] + [2])
`, "3 3 2\n[1, 2]\n")
}

func TestListAliasing(t *testing.T) {
	expectOutput(t, `
var a = [1]
var b = a
push(b, 2)
print(len(a))
`, "2\n")
}

func TestListIndexError(t *testing.T) {
	expectError(t, `
var l = [1]
print(l[5])
`, "list index 5 out of range")
	expectError(t, `
var l = [1]
print(l[-1])
`, "out of range")
	expectError(t, `
var l = [10, 20]
print(l[1.9])
`, "list index must be an integer")
}

func TestDictOps(t *testing.T) {
	expectOutput(t, `
var d = {name: "x"}
d.age = 3
d["city"] = "y"
print(d.age, d["name"])
print(keys(d))
`, "3 x\n[\"name\", \"age\", \"city\"]\n")
}

func TestDictKeyError(t *testing.T) {
	expectError(t, `
var d = {a: 1}
print(d["b"])
`, "dict has no key 'b'")
}

// ---- Errors and do/catch ----

func TestDoCatchKind(t *testing.T) {
	expectOutput(t, `
do {
  var x = 10 / 0
} catch e {
  print(e.kind)
}
`, "ZeroDivisionError\n")
}

func TestDoCatchPreservesMutations(t *testing.T) {
	expectOutput(t, `
var n = 1
do {
  n = 2
  var y = nope
} catch e {
  print(n, e.kind)
}
`, "2 NameError\n")
}

func TestDoCatchNoError(t *testing.T) {
	expectOutput(t, `
do {
  print("ok")
} catch e {
  print("handler")
}
`, "ok\n")
}

func TestUncaughtErrorAborts(t *testing.T) {
	expectError(t, `
print("first")
var x = 1 / 0
print("never")
`, "division by zero")

	out, _ := runSource(`
print("first")
var x = 1 / 0
print("never")
`)
	if out != "first\n" {
		t.Errorf("expected output before failure only, got %q", out)
	}
}

// ---- Enums ----

func TestEnumIdentity(t *testing.T) {
	expectOutput(t, `
enum Signal { RED, YELLOW, GREEN }
enum Other { RED }
print(Signal.GREEN == Signal.GREEN)
print(Signal.GREEN == Signal.RED)
print(Signal.RED == Other.RED)
print(Signal.GREEN.name, Signal.GREEN.ordinal)
print(Signal.GREEN)
print(type(Signal.GREEN))
`, "true\nfalse\nfalse\nGREEN 2\nSignal.GREEN\nSignal\n")
}

func TestEnumUnknownCase(t *testing.T) {
	expectError(t, `
enum Signal { RED }
print(Signal.BLUE)
`, "enum 'Signal' has no case 'BLUE'")
}

// ---- Templates and classes ----

func TestClassInit(t *testing.T) {
	expectOutput(t, `
class Point {
  var x = 0
  var y = 0
  func __init__(self, x, y) {
    self.x = x
    self.y = y
  }
  func dist2(self) {
    return self.x * self.x + self.y * self.y
  }
}
var p = Point(3, 4)
print(p.x, p.y)
print(p.dist2())
`, "3 4\n25\n")
}

func TestInheritanceSelfBinding(t *testing.T) {
	// describe lives on the template; self must still resolve to the child.
	expectOutput(t, `
template Animal {
  var name = "animal"
  func describe(self) {
    return self.name + " says " + self.speak()
  }
}
class Dog : Animal {
  var name = "dog"
  func speak(self) {
    return "woof"
  }
}
var d = Dog()
print(d.describe())
`, "dog says woof\n")
}

func TestTemplateNotInstantiable(t *testing.T) {
	expectError(t, `
template Animal {
  var name = "animal"
}
var a = Animal()
`, "cannot be instantiated")
}

func TestClassNoInitRejectsArgs(t *testing.T) {
	expectError(t, `
class Box {
  var v = 0
}
var b = Box(1)
`, "has no __init__")
}

func TestUnknownAttribute(t *testing.T) {
	expectError(t, `
class Box {
  var v = 0
}
var b = Box()
print(b.missing)
`, "'Box' instance has no attribute 'missing'")
}

// ---- Shell collaborator ----

func TestShellLineOrdering(t *testing.T) {
	sh := &fakeShell{output: "hi\n"}
	out, err := runSourceWith(`
print("before")
$ echo hi
print("after")
`, sh, fakeForeign{})
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "before\nhi\nafter\n" {
		t.Errorf("expected interleaved output, got %q", out)
	}
	if len(sh.commands) != 1 || sh.commands[0] != "echo hi" {
		t.Errorf("expected command 'echo hi', got %v", sh.commands)
	}
}

func TestShellLineInterpolation(t *testing.T) {
	sh := &fakeShell{}
	_, err := runSourceWith(`
var file = "a.txt"
$ cat \(file)
`, sh, fakeForeign{})
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if len(sh.commands) != 1 || sh.commands[0] != "cat a.txt" {
		t.Errorf("expected command 'cat a.txt', got %v", sh.commands)
	}
}

func TestShellLineFailureRaises(t *testing.T) {
	sh := &fakeShell{code: 1}
	out, err := runSourceWith(`
do {
  $ false
} catch e {
  print(e.kind, e.code)
}
`, sh, fakeForeign{})
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "ShellCommandError 1\n" {
		t.Errorf("expected caught shell error, got %q", out)
	}
}

func TestShellLineSpawnFailure(t *testing.T) {
	sh := &fakeShell{code: -1, err: errors.New("no such shell")}
	_, err := runSourceWith("$ anything", sh, fakeForeign{})
	if err == nil || !strings.Contains(err.Error(), "shell command failed") {
		t.Errorf("expected spawn failure, got %v", err)
	}
}

func TestShellBuiltinReturnsCode(t *testing.T) {
	sh := &fakeShell{code: 3}
	out, err := runSourceWith(`print(shell("whatever"))`, sh, fakeForeign{})
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "3\n" {
		t.Errorf("expected exit code 3, got %q", out)
	}
}

// ---- Foreign bridge ----

func TestHostevalResult(t *testing.T) {
	fe := fakeForeign{result: IntVal(42)}
	out, err := runSourceWith(`print(hosteval("return 42"))`, &fakeShell{}, fe)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "42\n" {
		t.Errorf("expected 42, got %q", out)
	}
}

func TestHostevalFailure(t *testing.T) {
	fe := fakeForeign{err: errors.New("toolchain missing")}
	out, err := runSourceWith(`
do {
  hosteval("bad")
} catch e {
  print(e.kind)
}
`, &fakeShell{}, fe)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "ForeignExecutionError\n" {
		t.Errorf("expected caught foreign error, got %q", out)
	}
}

// ---- Builtins ----

func TestTypeBuiltin(t *testing.T) {
	expectOutput(t, `print(type(1), type(1.5), type("s"), type(true), type(none), type([]), type({}))`,
		"int float str bool none list dict\n")
}

func TestConversions(t *testing.T) {
	expectOutput(t, `print(int("42") + 1)`, "43\n")
	expectOutput(t, `print(int(3.9), float(2))`, "3 2.0\n")
	expectOutput(t, `print(bool(""), bool("x"), bool([]))`, "false true false\n")
	expectOutput(t, `print(str(12) + "!")`, "12!\n")
	expectError(t, `int("abc")`, "cannot parse 'abc'")
}

func TestRangeBuiltin(t *testing.T) {
	expectOutput(t, `
for n in range(3) {
  print(n)
}
`, "0\n1\n2\n")
	expectOutput(t, `
for n in range(5, 1, -2) {
  print(n)
}
`, "5\n3\n")
	expectError(t, `range(1, 2, 0)`, "step cannot be zero")
}

// ---- REPL echo ----

func TestRunInteractiveEcho(t *testing.T) {
	l := lexer.New("1 + 2", "<repl>")
	tokens, _ := l.Tokenize()
	file, _ := parser.New(tokens).ParseFile()

	var buf bytes.Buffer
	interp := NewInterpreter(&buf, &buf)
	val, err := interp.RunInteractive(file)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if val == nil || val.String() != "3" {
		t.Errorf("expected echoed value 3, got %v", val)
	}
}

func TestRunInteractiveNoEchoForStatements(t *testing.T) {
	l := lexer.New("var x = 1", "<repl>")
	tokens, _ := l.Tokenize()
	file, _ := parser.New(tokens).ParseFile()

	var buf bytes.Buffer
	interp := NewInterpreter(&buf, &buf)
	val, err := interp.RunInteractive(file)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if val != nil {
		t.Errorf("expected no echo value, got %v", val)
	}
}
