package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// hostEvaluator executes Go snippets through the host toolchain. The snippet
// is the body of a function returning any; its result crosses the bridge as
// JSON and is mapped back into runtime values. Results with no primitive
// mapping come back as opaque handles.
type hostEvaluator struct{}

// NewHostEvaluator returns the default foreign-bridge collaborator.
func NewHostEvaluator() ForeignEvaluator {
	return hostEvaluator{}
}

const hostProgram = `package main

import (
	"encoding/json"
	"fmt"
	"os"
)

func eval() any {
%s
}

func main() {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(eval()); err != nil {
		fmt.Fprintln(os.Stdout, "%%!opaque")
	}
}
`

const hostGoMod = "module hosteval\n\ngo 1.21\n"

func (hostEvaluator) Eval(src string) (Value, error) {
	dir, err := os.MkdirTemp("", "ypsh-host-*")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	prog := fmt.Sprintf(hostProgram, src)
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(prog), 0o644); err != nil {
		return nil, fmt.Errorf("writing snippet: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(hostGoMod), 0o644); err != nil {
		return nil, fmt.Errorf("writing go.mod: %w", err)
	}

	cmd := exec.Command("go", "run", ".")
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("host snippet failed: %s", msg)
	}

	return decodeHostResult(stdout.Bytes()), nil
}

// decodeHostResult maps the bridge's JSON output to a runtime value.
// Anything that does not decode cleanly becomes an opaque handle.
func decodeHostResult(raw []byte) Value {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return &OpaqueVal{Handle: uuid.New(), Desc: strings.TrimSpace(string(raw))}
	}
	return hostValue(decoded)
}

func hostValue(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return NoneVal{}
	case bool:
		return BoolVal(val)
	case string:
		return StrVal(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return IntVal(n)
		}
		if f, err := val.Float64(); err == nil {
			return FloatVal(f)
		}
		return &OpaqueVal{Handle: uuid.New(), Desc: val.String()}
	case []interface{}:
		elements := make([]Value, len(val))
		for i, elem := range val {
			elements[i] = hostValue(elem)
		}
		return &ListVal{Elements: elements}
	case map[string]interface{}:
		// JSON objects carry no order; keys are sorted for determinism.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDict()
		for _, k := range keys {
			d.Set(k, hostValue(val[k]))
		}
		return d
	default:
		return &OpaqueVal{Handle: uuid.New(), Desc: fmt.Sprintf("%v", val)}
	}
}
