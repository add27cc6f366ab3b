package runtime

import (
	"os"
	"path/filepath"
	"strings"

	"ypsh-lang/internal/ast"
	"ypsh-lang/internal/lexer"
	"ypsh-lang/internal/parser"
)

var scriptExtensions = []string{"", ".ypsh", ".pylo"}

// execImport loads another script, evaluates it in an isolated environment,
// and exposes its top-level bindings under dotted namespace keys in the
// importer's global frame.
func (i *Interpreter) execImport(s *ast.ImportStmt) (ExecResult, error) {
	path, ok := i.resolveImport(s.Path)
	if !ok {
		return resultNone, scriptErr(ImportError, s.GetSpan(), "cannot find script '%s'", s.Path)
	}

	if i.importing[path] {
		return resultNone, scriptErr(ImportError, s.GetSpan(), "circular import of '%s'", s.Path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return resultNone, scriptErr(ImportError, s.GetSpan(), "cannot read script '%s': %s", s.Path, err)
	}

	lex := lexer.New(string(source), path)
	tokens, lexDiags := lex.Tokenize()
	file, parseDiags := parser.New(tokens).ParseFile()
	if len(lexDiags) > 0 {
		return resultNone, scriptErr(ImportError, s.GetSpan(), "in '%s': %s", s.Path, lexDiags[0])
	}
	if len(parseDiags) > 0 {
		return resultNone, scriptErr(ImportError, s.GetSpan(), "in '%s': %s", s.Path, parseDiags[0])
	}

	sub := NewInterpreter(i.stdout, i.stderr)
	sub.shell = i.shell
	sub.foreign = i.foreign
	sub.searchPaths = i.searchPaths
	sub.scriptDir = filepath.Dir(path)
	sub.importing = i.importing

	i.importing[path] = true
	runErr := sub.Run(file)
	delete(i.importing, path)
	if runErr != nil {
		// an uncaught raise during import aborts the import with the
		// same error
		return resultNone, runErr
	}

	alias := s.Alias
	if alias == "" {
		base := filepath.Base(path)
		alias = strings.TrimSuffix(base, filepath.Ext(base))
	}

	for _, name := range sub.global.Names() {
		if sub.builtinNames[name] {
			continue
		}
		val, _ := sub.global.Get(name)
		i.global.DefineLocal(alias+"."+name, val, false)
	}
	return resultNone, nil
}

// resolveImport locates a script: absolute paths as-is, otherwise relative
// to the importing script's directory and then each search path, each with
// the known extensions tried in order.
func (i *Interpreter) resolveImport(path string) (string, bool) {
	tryFile := func(p string) (string, bool) {
		for _, ext := range scriptExtensions {
			candidate := p + ext
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
		return "", false
	}

	if filepath.IsAbs(path) {
		return tryFile(path)
	}

	dirs := make([]string, 0, len(i.searchPaths)+1)
	if i.scriptDir != "" {
		dirs = append(dirs, i.scriptDir)
	} else {
		dirs = append(dirs, ".")
	}
	dirs = append(dirs, i.searchPaths...)

	for _, dir := range dirs {
		if found, ok := tryFile(filepath.Join(dir, path)); ok {
			return found, true
		}
	}
	return "", false
}
