package ast

import (
	"ypsh-lang/internal/span"
	"ypsh-lang/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *File:
		return m("File", n.Span, "body", nodeSlice(n.Body))

	// ---- Expressions ----
	case *IdentExpr:
		return m("IdentExpr", n.Span, "name", n.Name)
	case *IntLiteral:
		return m("IntLiteral", n.Span, "value", n.Value)
	case *FloatLiteral:
		return m("FloatLiteral", n.Span, "value", n.Value)
	case *StringLiteral:
		return m("StringLiteral", n.Span, "value", n.Value)
	case *InterpString:
		return m("InterpString", n.Span,
			"parts", n.Parts,
			"exprs", exprSlice(n.Exprs))
	case *BoolLiteral:
		return m("BoolLiteral", n.Span, "value", n.Value)
	case *NoneLiteral:
		return m("NoneLiteral", n.Span)
	case *ListLiteral:
		return m("ListLiteral", n.Span, "elements", exprSlice(n.Elements))
	case *DictLiteral:
		return m("DictLiteral", n.Span,
			"keys", n.Keys,
			"values", exprSlice(n.Values))
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", opStr(n.Op), "operand", NodeToMap(n.Operand))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", opStr(n.Op),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *TernaryExpr:
		return m("TernaryExpr", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then),
			"else", NodeToMap(n.Else))
	case *CallExpr:
		result := m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
		if len(n.Kwargs) > 0 {
			kwargs := make([]interface{}, len(n.Kwargs))
			for i, kw := range n.Kwargs {
				kwargs[i] = map[string]interface{}{
					"name":  kw.Name,
					"value": NodeToMap(kw.Value),
				}
			}
			result["kwargs"] = kwargs
		}
		return result
	case *IndexExpr:
		return m("IndexExpr", n.Span,
			"object", NodeToMap(n.Object),
			"index", NodeToMap(n.Index))
	case *AttrExpr:
		return m("AttrExpr", n.Span,
			"object", NodeToMap(n.Object),
			"name", n.Name)

	// ---- Statements ----
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *AssignStmt:
		return m("AssignStmt", n.Span,
			"target", NodeToMap(n.Target),
			"value", NodeToMap(n.Value))
	case *VarDeclStmt:
		result := m("VarDeclStmt", n.Span,
			"name", n.Name,
			"type", n.Type,
			"isLet", n.IsLet,
			"scope", scopeStr(n.Scope))
		if n.Init != nil {
			result["init"] = NodeToMap(n.Init)
		}
		return result
	case *IntentStmt:
		return m("IntentStmt", n.Span, "name", n.Name, "scope", scopeStr(n.Kind))
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *BreakStmt:
		return m("BreakStmt", n.Span)
	case *ContinueStmt:
		return m("ContinueStmt", n.Span)
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", nodeSlice(n.Stmts))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
		if len(n.ElseIfs) > 0 {
			elseIfs := make([]interface{}, len(n.ElseIfs))
			for i, ei := range n.ElseIfs {
				elseIfs[i] = map[string]interface{}{
					"kind":      "ElseIfClause",
					"span":      spanToMap(ei.Span),
					"condition": NodeToMap(ei.Condition),
					"body":      NodeToMap(ei.Body),
				}
			}
			result["elseIfs"] = elseIfs
		}
		if n.ElseBody != nil {
			result["elseBody"] = NodeToMap(n.ElseBody)
		}
		return result
	case *SwitchStmt:
		result := m("SwitchStmt", n.Span, "subject", NodeToMap(n.Subject))
		arms := make([]interface{}, len(n.Arms))
		for i, arm := range n.Arms {
			arms[i] = map[string]interface{}{
				"kind":  "SwitchArm",
				"span":  spanToMap(arm.Span),
				"value": NodeToMap(arm.Value),
				"body":  NodeToMap(arm.Body),
			}
		}
		result["arms"] = arms
		if n.Default != nil {
			result["default"] = NodeToMap(n.Default)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *ForInStmt:
		return m("ForInStmt", n.Span,
			"varName", n.VarName,
			"iterable", NodeToMap(n.Iterable),
			"body", NodeToMap(n.Body))
	case *DoCatchStmt:
		return m("DoCatchStmt", n.Span,
			"body", NodeToMap(n.Body),
			"catchName", n.CatchName,
			"handler", NodeToMap(n.Handler))
	case *ShellStmt:
		return m("ShellStmt", n.Span, "command", NodeToMap(n.Command))
	case *ImportStmt:
		result := m("ImportStmt", n.Span, "path", n.Path)
		if n.Alias != "" {
			result["alias"] = n.Alias
		}
		return result

	// ---- Declarations ----
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name,
			"params", paramSlice(n.Params),
			"returnType", n.ReturnType,
			"body", NodeToMap(n.Body))
	case *TemplateDecl:
		return m("TemplateDecl", n.Span,
			"name", n.Name,
			"body", nodeSlice(n.Body))
	case *ClassDecl:
		result := m("ClassDecl", n.Span,
			"name", n.Name,
			"body", nodeSlice(n.Body))
		if n.Parent != "" {
			result["parent"] = n.Parent
		}
		return result
	case *EnumDecl:
		return m("EnumDecl", n.Span, "name", n.Name, "cases", n.Cases)

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func nodeSlice(nodes []Node) []interface{} {
	result := make([]interface{}, len(nodes))
	for i, n := range nodes {
		result[i] = NodeToMap(n)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func paramSlice(params []Param) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		entry := map[string]interface{}{
			"name": p.Name,
			"type": p.Type,
		}
		if p.Default != nil {
			entry["default"] = NodeToMap(p.Default)
		}
		result[i] = entry
	}
	return result
}

func opStr(kind token.Kind) string {
	return kind.String()
}

func scopeStr(mode ScopeMode) string {
	switch mode {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	default:
		return "default"
	}
}
