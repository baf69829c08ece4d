// Package buildutil provides utilities for extracting attributes from
// buildtools AST nodes.
//
// Catalog manifests are Starlark files whose top-level statements are calls
// such as variant(...) and constraint(...). These helpers read the keyword
// and positional arguments of such calls.
package buildutil

import (
	"fmt"

	"github.com/bazelbuild/buildtools/build"
)

// Arg returns the expression bound to a keyword argument, or nil.
func Arg(call *build.CallExpr, name string) build.Expr {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS
		}
	}
	return nil
}

// String extracts a string attribute from a function call by name.
// If name is empty, returns the first positional string argument.
// Returns empty string if the attribute is not found or not a string.
func String(call *build.CallExpr, name string) string {
	if name == "" {
		if len(call.List) > 0 {
			if str, ok := call.List[0].(*build.StringExpr); ok {
				return str.Value
			}
		}
		return ""
	}
	if str, ok := Arg(call, name).(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

// Bool extracts a boolean attribute from a function call by name.
// Returns false if the attribute is not found or not True.
func Bool(call *build.CallExpr, name string) bool {
	if ident, ok := Arg(call, name).(*build.Ident); ok {
		return ident.Name == "True"
	}
	return false
}

// StringList extracts a list of strings attribute from a function call by name.
// Returns nil if the attribute is absent, and an error if it is not a list of strings.
func StringList(call *build.CallExpr, name string) ([]string, error) {
	expr := Arg(call, name)
	if expr == nil {
		return nil, nil
	}
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, fmt.Errorf("line %d: %s must be a list", Line(expr), name)
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		str, ok := elem.(*build.StringExpr)
		if !ok {
			return nil, fmt.Errorf("line %d: %s must contain only strings", Line(elem), name)
		}
		result = append(result, str.Value)
	}
	return result, nil
}

// StringDict extracts a dict of string keys and values.
// Returns nil if the attribute is absent.
func StringDict(call *build.CallExpr, name string) (map[string]string, error) {
	expr := Arg(call, name)
	if expr == nil {
		return nil, nil
	}
	dict, ok := expr.(*build.DictExpr)
	if !ok {
		return nil, fmt.Errorf("line %d: %s must be a dict", Line(expr), name)
	}
	result := make(map[string]string, len(dict.List))
	for _, kv := range dict.List {
		k, kok := kv.Key.(*build.StringExpr)
		v, vok := kv.Value.(*build.StringExpr)
		if !kok || !vok {
			return nil, fmt.Errorf("line %d: %s must map strings to strings", Line(kv), name)
		}
		result[k.Value] = v.Value
	}
	return result, nil
}

// Calls returns the calls listed in a list attribute, such as
// dependencies = [dep(...), dep(...)]. Plain strings are returned as
// positional-only calls to fn so "g:n:v" can stand in for fn("g:n:v").
func Calls(call *build.CallExpr, name, fn string) ([]*build.CallExpr, error) {
	expr := Arg(call, name)
	if expr == nil {
		return nil, nil
	}
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, fmt.Errorf("line %d: %s must be a list", Line(expr), name)
	}
	result := make([]*build.CallExpr, 0, len(list.List))
	for _, elem := range list.List {
		switch e := elem.(type) {
		case *build.CallExpr:
			if !IsFuncCall(e, fn) {
				return nil, fmt.Errorf("line %d: %s entries must be %s() calls, got %s()", Line(e), name, fn, FuncName(e))
			}
			result = append(result, e)
		case *build.StringExpr:
			result = append(result, &build.CallExpr{X: &build.Ident{Name: fn}, List: []build.Expr{e}})
		default:
			return nil, fmt.Errorf("line %d: %s entries must be %s() calls or strings", Line(elem), name, fn)
		}
	}
	return result, nil
}

// PositionalStrings returns all positional string arguments from a call,
// optionally skipping the first n arguments.
func PositionalStrings(call *build.CallExpr, skip int) []string {
	var result []string
	for i, arg := range call.List {
		if i < skip {
			continue
		}
		if _, ok := arg.(*build.AssignExpr); ok {
			continue
		}
		if str, ok := arg.(*build.StringExpr); ok {
			result = append(result, str.Value)
		}
	}
	return result
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// IsFuncCall returns true if the call is for the specified function name.
func IsFuncCall(call *build.CallExpr, name string) bool {
	return FuncName(call) == name
}

// Line returns the 1-based line an expression starts on.
func Line(expr build.Expr) int {
	start, _ := expr.Span()
	return start.Line
}
