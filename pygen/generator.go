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

package pygen

import (
	"fmt"
	"strings"

	"github.com/golangee/pymeta/parser"
	"github.com/golangee/pymeta/token"
)

// IndentSize is the indentation step of generated Python blocks.
const IndentSize = 4

// Module is one generated Python module together with the span table
// its __spans references resolve against.
type Module struct {
	Filename string
	Source   *Source
	Spans    []*token.Span
	HostFile *token.File
}

// Executable is everything needed to run one expansion.
type Executable struct {
	Main *Module
}

// FindModule resolves a Python filename reported by the interpreter
// back to the generated module, or nil for foreign frames.
func (e *Executable) FindModule(filename string) *Module {
	if e.Main != nil && e.Main.Filename == filename {
		return e.Main
	}

	return nil
}

// Generate renders the code regions of one host file into a Python
// module.
func Generate(hostFile *token.File, filename string, regions []parser.Region) (*Module, error) {
	g := &generator{py: NewSourceBuilder()}

	if err := g.appendRegions(regions); err != nil {
		return nil, err
	}

	return &Module{
		Filename: filename,
		Source:   g.py.Finish(),
		Spans:    g.spans,
		HostFile: hostFile,
	}, nil
}

type generator struct {
	py    *SourceBuilder
	spans []*token.Span
}

func (g *generator) newLine() {
	g.py.NewLine(NoIndent)
}

// appendSpan interns the span into the table and emits the __spans
// reference the generated code passes to the runtime constructors.
func (g *generator) appendSpan(span *token.Span) {
	g.spans = append(g.spans, span)
	g.py.Append(NewSegment(fmt.Sprintf("__spans[%d]", len(g.spans)-1), span))
}

func (g *generator) appendRegions(regions []parser.Region) error {
	for _, region := range regions {
		var err error

		switch r := region.(type) {
		case *parser.RustCode:
			err = g.appendRustCode(r)
		case *parser.RustCodeWithBlock:
			err = g.appendRustCodeWithBlock(r)
		case *parser.PyStmt:
			err = g.appendPyStmt(r)
		case *parser.PyStmtWithBlock:
			err = g.appendPyStmtWithBlock(r)
		default:
			err = fmt.Errorf("BUG: unknown region type %T", region)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// appendPyStmt emits one logical Python line.
func (g *generator) appendPyStmt(stmt *parser.PyStmt) error {
	g.newLine()

	return g.appendTokensAsPython(stmt.Tokens)
}

// appendPyStmtWithBlock emits the statement line followed by its
// indented body. An empty body becomes `pass` so the generated Python
// stays syntactically valid.
func (g *generator) appendPyStmtWithBlock(region *parser.PyStmtWithBlock) error {
	if err := g.appendPyStmt(region.Stmt); err != nil {
		return err
	}

	g.py.PushIndentBlock(IndentSize)
	defer g.py.PopIndentBlock()

	if len(region.Block) == 0 {
		g.newLine()
		g.py.Append(NewSegment("pass", region.Group.SrcSpan()))

		return nil
	}

	return g.appendRegions(region.Block)
}

// appendRustCode emits a host code run as a single rust(...) call. A
// run that contributes no arguments, such as a lone `;`, becomes
// `pass`.
func (g *generator) appendRustCode(region *parser.RustCode) error {
	g.newLine()

	if !hasArgs(region.Units) {
		g.py.Append(NewSegment("pass", nil))

		return nil
	}

	g.py.Append(NewSegment("rust(", nil))

	for _, unit := range region.Units {
		if err := g.appendUnitArg(unit); err != nil {
			return err
		}
	}

	g.py.PopLastSegmentIf(func(seg *Segment) bool { return seg.Code == ", " })
	g.py.Append(NewSegment(")", nil))

	return nil
}

// appendRustCodeWithBlock emits `with rust(..., Group(...)):` followed
// by the indented block content. Tokens emitted while the block runs
// attach to the group instead of the surrounding stream.
func (g *generator) appendRustCodeWithBlock(region *parser.RustCodeWithBlock) error {
	g.newLine()
	g.py.Append(NewSegment("with rust(", nil))

	for _, unit := range region.Units {
		if err := g.appendUnitArg(unit); err != nil {
			return err
		}
	}

	g.py.Append(NewSegment(
		fmt.Sprintf("Group(%q, span=", region.Group.Delim.OpenClose()), nil))
	g.appendSpan(region.Group.SrcSpan())
	g.py.Append(NewSegment(")):", nil))

	g.py.PushIndentBlock(IndentSize)
	defer g.py.PopIndentBlock()

	if len(region.Block) == 0 {
		g.newLine()
		g.py.Append(NewSegment("pass", region.Group.SrcSpan()))

		return nil
	}

	return g.appendRegions(region.Block)
}

// hasArgs reports whether any unit survives as a rust(...) argument.
// Statement terminators are dropped from the generated code.
func hasArgs(units []parser.CodeUnit) bool {
	for _, unit := range units {
		if tu, ok := unit.(*parser.TokenUnit); ok && token.EqPunct(tu.Token, ';') {
			continue
		}

		return true
	}

	return false
}

// appendUnitArg emits one host code unit as an argument of a rust(...)
// call, followed by a `, ` separator segment.
func (g *generator) appendUnitArg(unit parser.CodeUnit) error {
	switch u := unit.(type) {
	case *parser.TokenUnit:
		return g.appendTokenArg(u.Token)

	case *parser.GroupUnit:
		g.py.Append(NewSegment(
			fmt.Sprintf("Group(%q, Tokens(", u.Group.Delim.OpenClose()), u.Group.SrcSpan()))

		for _, inner := range u.Units {
			if err := g.appendUnitArg(inner); err != nil {
				return err
			}
		}

		g.py.PopLastSegmentIf(func(seg *Segment) bool { return seg.Code == ", " })
		g.py.Append(NewSegment("), ", u.Group.SrcSpan()))
		g.appendSpan(u.Group.SrcSpan())
		g.py.Append(NewSegment(")", u.Group.SrcSpan()))
		g.py.Append(NewSegment(", ", nil))

		return nil

	case *parser.PyExpr:
		span := u.Span()
		g.py.Append(NewSegment("Tokens(", span))

		if err := g.appendInlinePyExpr(u); err != nil {
			return err
		}

		g.py.Append(NewSegment(", span=", span))
		g.appendSpan(span)
		g.py.Append(NewSegment(")", span))
		g.py.Append(NewSegment(", ", nil))

		return nil

	case *parser.IdentWithPyExpr:
		if err := g.appendIdentWithPyExpr(u); err != nil {
			return err
		}

		g.py.Append(NewSegment(", ", nil))

		return nil

	default:
		return fmt.Errorf("BUG: unknown code unit type %T", unit)
	}
}

func (g *generator) appendTokenArg(t token.Token) error {
	switch tok := t.(type) {
	case *token.Ident:
		g.py.Append(NewSegment(fmt.Sprintf("Ident(%q, ", tok.Name), tok.SrcSpan()))
		g.appendSpan(tok.SrcSpan())
		g.py.Append(NewSegment(")", tok.SrcSpan()))
		g.py.Append(NewSegment(", ", nil))

		return nil

	case *token.Punct:
		if tok.Char == ';' {
			return nil
		}

		ch := string(tok.Char)
		if tok.Char == '\'' {
			ch = `\'`
		}

		g.py.Append(NewSegment(
			fmt.Sprintf(`Punct('%s', "%s", `, ch, tok.Spacing), tok.SrcSpan()))
		g.appendSpan(tok.SrcSpan())
		g.py.Append(NewSegment(")", tok.SrcSpan()))
		g.py.Append(NewSegment(", ", nil))

		return nil

	case *token.Literal:
		return g.appendLiteralArg(tok)

	default:
		return fmt.Errorf("BUG: unexpected token %T as rust(...) argument", t)
	}
}

// appendLiteralArg emits a literal as its runtime constructor call. The
// second argument of the numeric _new constructors is the bare numeric
// value, the Python parser re-reads the digits the host lexer saw.
func (g *generator) appendLiteralArg(lit *token.Literal) error {
	kind, err := classifyLiteral(lit.Repr)
	if err != nil {
		return token.NewPosError(lit.SrcSpan(), err.Error())
	}

	span := lit.SrcSpan()

	switch kind {
	case litStr, litChar:
		code, err := transcribe(kind, lit.Repr)
		if err != nil {
			return token.NewPosError(span, err.Error())
		}

		tag := "str"
		if kind == litChar {
			tag = "chr"
		}

		g.py.Append(NewSegment(fmt.Sprintf(`StrLiteral(%s, "%s", `, code, tag), span))

	case litBytes, litByte, litCStr:
		code, err := transcribe(kind, lit.Repr)
		if err != nil {
			return token.NewPosError(span, err.Error())
		}

		tag := "bytes"
		switch kind {
		case litByte:
			tag = "byte"
		case litCStr:
			tag = "cstr"
		}

		g.py.Append(NewSegment(fmt.Sprintf(`BytesLiteral(%s, "%s", `, code, tag), span))

	default:
		digits, suffix, isFloat, err := splitNumber(lit.Repr)
		if err != nil {
			return token.NewPosError(span, err.Error())
		}

		if err := validateNumber(lit.Repr, digits, isFloat); err != nil {
			return token.NewPosError(span, err.Error())
		}

		cls := "IntLiteral"
		if isFloat {
			cls = "FloatLiteral"
		}

		typeObj := suffix
		if typeObj == "" {
			typeObj = "None"
		}

		g.py.Append(NewSegment(
			fmt.Sprintf(`%s._new("%s", %s, %s, `, cls, digits, digits, typeObj), span))
	}

	g.appendSpan(span)
	g.py.Append(NewSegment(")", span))
	g.py.Append(NewSegment(", ", nil))

	return nil
}

func transcribe(kind literalKind, repr string) (string, error) {
	switch kind {
	case litStr:
		return stringReprToPython(repr)
	case litChar:
		return charReprToPython(repr)
	case litBytes:
		return bytesReprToPython(repr, false)
	case litByte:
		return byteReprToPython(repr)
	default:
		return bytesReprToPython(repr, true)
	}
}

// appendInlinePyExpr emits a `$...$` expression wrapped in parentheses
// so it splices into any surrounding Python syntax. An empty expression
// evaluates to None.
func (g *generator) appendInlinePyExpr(expr *parser.PyExpr) error {
	if len(expr.Tokens) == 0 {
		g.py.Append(NewSegment("None", expr.Span()))

		return nil
	}

	g.py.Append(NewSegment("(", expr.StartMarker.SrcSpan()))

	if err := g.appendTokensAsPython(expr.Tokens); err != nil {
		return err
	}

	g.py.Append(NewSegment(")", expr.EndMarker.SrcSpan()))

	return nil
}

// appendIdentWithPyExpr emits a dynamically constructed identifier as
// an Ident(f"...") call whose interpolations are the inline
// expressions.
func (g *generator) appendIdentWithPyExpr(unit *parser.IdentWithPyExpr) error {
	span := unit.Span()

	g.py.Append(NewSegment(`Ident(f"`, span))

	for _, part := range unit.Parts {
		if part.Ident != nil {
			g.py.Append(NewSegment(part.Ident.Name, part.Ident.SrcSpan()))

			continue
		}

		g.py.Append(NewSegment("{", part.Expr.StartMarker.SrcSpan()))

		if err := g.appendInlinePyExpr(part.Expr); err != nil {
			return err
		}

		g.py.Append(NewSegment("}", part.Expr.EndMarker.SrcSpan()))
	}

	g.py.Append(NewSegment(`", `, nil))
	g.appendSpan(span)
	g.py.Append(NewSegment(")", span))

	return nil
}

// appendTokensAsPython renders a token run as Python expression text,
// re-synthesizing the whitespace the tokenization dropped.
func (g *generator) appendTokensAsPython(tokens []token.Token) error {
	for i := 0; i < len(tokens); i++ {
		if needSpace(tokens[:i+1]) {
			g.py.Append(NewSegment(" ", nil))
		}

		// `f"string"` is reserved syntax in the host language, so
		// f-strings are written `f~"string"` and rejoined here.
		if id, ok := tokens[i].(*token.Ident); ok && i+2 < len(tokens) &&
			token.EqPunct(tokens[i+1], token.ConcatMarker) {
			if lit, ok := tokens[i+2].(*token.Literal); ok && strings.HasPrefix(lit.Repr, `"`) {
				code, err := stringReprToPython(lit.Repr)
				if err != nil {
					return token.NewPosError(lit.SrcSpan(), err.Error())
				}

				g.py.Append(NewSegment(id.Name, id.SrcSpan()))
				g.py.Append(NewSegment(code, lit.SrcSpan()))
				i += 2

				continue
			}
		}

		switch t := tokens[i].(type) {
		case *token.Ident:
			g.py.Append(NewSegment(t.Name, t.SrcSpan()))

		case *token.Punct:
			if t.Char != ';' {
				g.py.Append(NewSegment(string(t.Char), t.SrcSpan()))
			}

		case *token.Literal:
			code, err := pythonTextOfLiteral(t.Repr)
			if err != nil {
				return token.NewPosError(t.SrcSpan(), err.Error())
			}

			g.py.Append(NewSegment(code, t.SrcSpan()))

		case *token.Group:
			g.py.Append(NewSegment(t.Delim.Open(), t.SrcSpan()))

			if err := g.appendTokensAsPython(t.Tokens); err != nil {
				return err
			}

			g.py.Append(NewSegment(t.Delim.Close(), t.SrcSpan()))
		}
	}

	return nil
}

// needSpace decides whether a space belongs between the last token of
// the slice and the one before it. The arms are ordered, the first
// matching one wins.
func needSpace(toks []token.Token) bool {
	n := len(toks)
	if n < 2 {
		return false
	}

	prev, cur := toks[n-2], toks[n-1]
	prevPunct, _ := prev.(*token.Punct)
	curPunct, _ := cur.(*token.Punct)

	// between identifiers and literals
	if isIdentOrLiteral(prev) && isIdentOrLiteral(cur) {
		return true
	}

	// between two puncts
	if prevPunct != nil && curPunct != nil {
		return prevPunct.Spacing == token.Alone
	}

	// before a punct
	if curPunct != nil {
		return curPunct.Spacing == token.Joint ||
			!strings.ContainsRune(";,:.", curPunct.Char)
	}

	// decorators and star arguments glue to what follows
	if n == 2 && token.EqPunct(toks[0], '@') {
		return false
	}

	if n == 2 && token.EqPunct(toks[0], '*') {
		return false
	}

	if n == 3 && token.EqPunct(toks[0], ',') && token.EqPunct(toks[1], '*') {
		return false
	}

	if n == 3 && token.EqPunct(toks[0], '*') && token.EqPunct(toks[1], '*') {
		return false
	}

	if n == 4 && token.EqPunct(toks[0], ',') &&
		token.EqPunct(toks[1], '*') && token.EqPunct(toks[2], '*') {
		return false
	}

	// after a punct
	if prevPunct != nil {
		return prevPunct.Spacing == token.Alone && prevPunct.Char != '.'
	}

	// before an identifier, e.g. the `as` in `foo() as bar`
	if _, ok := cur.(*token.Ident); ok {
		return true
	}

	return false
}

func isIdentOrLiteral(t token.Token) bool {
	switch t.(type) {
	case *token.Ident, *token.Literal:
		return true
	}

	return false
}
