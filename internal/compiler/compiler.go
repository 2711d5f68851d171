// Package compiler wires the four ClassQL stages into a single entry
// point: source text in, parameterized SQL out.
//
// The pipeline is strictly left to right with no feedback between
// stages: lexer → parser → semantic analyzer → code generator. Each
// stage either produces its output or fails with diagnostics carrying
// source spans. A compilation either succeeds with zero diagnostics or
// fails with one or more; there is no partial success.
//
// Compile is a pure function: no shared state, no caches, safe to call
// from any number of goroutines.
package compiler

import (
	"strings"

	"github.com/CFdefense/ClassQL/internal/codegen"
	"github.com/CFdefense/ClassQL/internal/diag"
	"github.com/CFdefense/ClassQL/internal/lexer"
	"github.com/CFdefense/ClassQL/internal/parser"
	"github.com/CFdefense/ClassQL/internal/semantic"
)

// Result is a successful compilation: one SQL statement and its bound
// parameter values in placeholder order. Parameter values are string or
// int64; times bind as integer minutes. Day flags and the full predicate
// compile to SQL literals and bind no parameter.
type Result struct {
	SQL    string
	Params []any
}

// Compile translates a ClassQL query into parameterized SQL. On failure
// it returns the diagnostics in source order; the lexer may report
// several bad characters in one pass, every later stage fails fast on
// its first diagnostic.
//
// Empty (or whitespace-only) input is valid and compiles to the
// unfiltered base query.
func Compile(source string) (*Result, []diag.Diagnostic) {
	toks, lexDiags := lexer.Lex(source)
	if len(lexDiags) > 0 {
		return nil, lexDiags
	}

	raw, parseDiag := parser.Parse(toks)
	if parseDiag != nil {
		return nil, []diag.Diagnostic{*parseDiag}
	}

	normalized, semDiag := semantic.Analyze(raw)
	if semDiag != nil {
		return nil, []diag.Diagnostic{*semDiag}
	}

	sql, params, err := codegen.NewGenerator().Generate(normalized)
	if err != nil {
		// A normalized tree that fails generation is a compiler bug;
		// surface it as a semantic diagnostic rather than panicking.
		d := diag.New(diag.Semantic, diag.NewSpan(0, len(source)), "internal error: %v", err)
		return nil, []diag.Diagnostic{d}
	}

	return &Result{SQL: sql, Params: params}, nil
}

// PlaceholderCount returns the number of ? placeholders in sql. Useful
// for asserting the params invariant; string literals never appear in
// generated SQL, so every ? is a placeholder.
func PlaceholderCount(sql string) int {
	return strings.Count(sql, "?")
}
