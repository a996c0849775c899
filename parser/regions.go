// Copyright 2023 The pymeta authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser partitions a host token buffer into typed code
// regions: plain host code, host code scoping a block, embedded Python
// statements and Python statements carrying an indent block. The
// regions cover the input exactly, without gaps or overlaps.
package parser

import "github.com/golangee/pymeta/token"

// A Region is a maximal typed chunk of the input token sequence.
type Region interface {
	region()
}

// RustCode is a run of host code without any non-inline Python. It
// becomes a single rust(...) call in the generated Python. Host code is
// split at every `;` to keep the generated lines short.
type RustCode struct {
	Units []CodeUnit
}

// RustCodeWithBlock is host code followed by a bracket group that
// contains non-inline Python. It becomes a `with rust(...):` block so
// that tokens emitted inside attach to this group instead of the top
// level.
type RustCodeWithBlock struct {
	Units []CodeUnit
	Group *token.Group
	Block []Region
}

// PyStmt is one logical Python statement, captured between its opening
// marker and the `;` terminator.
type PyStmt struct {
	Marker *token.Punct
	Tokens []token.Token
	// Terminator is the consumed `;`, or nil when the statement was
	// closed by an indent block instead.
	Terminator *token.Punct
}

// PyStmtWithBlock is a Python statement followed by a `:{...}` indent
// block. The braces are stripped from the generated source, the block
// content is emitted indented under the statement.
type PyStmtWithBlock struct {
	Stmt  *PyStmt
	Group *token.Group
	Block []Region
}

func (*RustCode) region()          {}
func (*RustCodeWithBlock) region() {}
func (*PyStmt) region()            {}
func (*PyStmtWithBlock) region()   {}

// A CodeUnit is one reconstructible element of a host code region.
type CodeUnit interface {
	unit()
}

// TokenUnit is a plain host token.
type TokenUnit struct {
	Token token.Token
}

// GroupUnit is a bracket group whose content is pure host code.
type GroupUnit struct {
	Group *token.Group
	Units []CodeUnit
}

// PyExpr is an inline Python expression delimited by two markers, as in
// `$1 + 2$`. An empty expression evaluates to None.
type PyExpr struct {
	StartMarker *token.Punct
	EndMarker   *token.Punct
	Tokens      []token.Token
}

// Span covers the expression including both markers.
func (e *PyExpr) Span() *token.Span {
	return e.StartMarker.SrcSpan().Join(e.EndMarker.SrcSpan())
}

// IdentOrExpr is one fragment of a dynamically constructed identifier.
// Exactly one field is set.
type IdentOrExpr struct {
	Ident *token.Ident
	Expr  *PyExpr
}

// IdentWithPyExpr is a run of identifier fragments and inline Python
// expressions joined by the concatenation marker, as in
// `FOO_~$"A" * 10$~_BAR`. It becomes a dynamic Ident(f"...") in the
// generated Python.
type IdentWithPyExpr struct {
	Parts []IdentOrExpr
}

// Span covers all fragments of the identifier run.
func (u *IdentWithPyExpr) Span() *token.Span {
	span := u.partSpan(0)
	if len(u.Parts) > 1 {
		span = span.Join(u.partSpan(len(u.Parts) - 1))
	}

	return span
}

func (u *IdentWithPyExpr) partSpan(i int) *token.Span {
	part := u.Parts[i]
	if part.Ident != nil {
		return part.Ident.SrcSpan()
	}

	return part.Expr.Span()
}

func (*TokenUnit) unit()       {}
func (*GroupUnit) unit()       {}
func (*PyExpr) unit()          {}
func (*IdentWithPyExpr) unit() {}
