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

package parser

import (
	"fmt"

	"github.com/golangee/pymeta/token"
)

// MaxNestingDepth bounds bracket recursion. The parser descends with
// the call stack, so pathological nesting must fail before the runtime
// stack does.
const MaxNestingDepth = 128

// CodeRegionParser is the two-grammar co-parser. It walks a token
// buffer once, with bounded position-restoring lookahead, and emits
// regions that partition the input.
type CodeRegionParser struct {
	depth int
}

func NewCodeRegionParser() *CodeRegionParser {
	return &CodeRegionParser{}
}

// Parse partitions tokens into code regions.
func (p *CodeRegionParser) Parse(tokens *token.TokenBuffer) ([]Region, error) {
	regions := []Region{}

	for !tokens.Exhausted() {
		before := tokens.Pos()

		region, err := p.parseOne(tokens, lastRegion(regions))
		if err != nil {
			return nil, err
		}

		regions = append(regions, region)

		if tokens.Pos() == before {
			return nil, token.NewPosError(tokens.DiagnosticSpan(),
				"BUG: code region parser got stuck, aborting to avoid infinite loop")
		}
	}

	return regions, nil
}

func lastRegion(regions []Region) Region {
	if len(regions) == 0 {
		return nil
	}

	return regions[len(regions)-1]
}

func (p *CodeRegionParser) parseOne(tokens *token.TokenBuffer, last Region) (Region, error) {
	// Directly after an indent block only a `;` separator or another
	// block-introducing Python statement may follow. Chained
	// conditionals rely on this: `$if a:{...} $else:{...};`.
	if _, ok := last.(*PyStmtWithBlock); ok && !tokens.IsTerminator() {
		if !tokens.IsMarkerStart() {
			return nil, token.NewPosError(tokens.DiagnosticSpan(),
				"only another Python statement with an indent block can immediately follow an indent block")
		}

		if end := closingMarker(tokens.Seeked(1)); end != nil {
			span := tokens.Current().SrcSpan().Join(end.SrcSpan())

			return nil, token.NewPosError(span,
				"a Python expression can not immediately follow an indent block")
		}

		return p.parsePyStmt(tokens)
	}

	// A marker without a closing counterpart before the next `;` or
	// indent block opens a Python statement. With a closing marker it
	// is an inline expression and stays inside the host region.
	if tokens.IsMarkerStart() && closingMarker(tokens.Seeked(1)) == nil {
		return p.parsePyStmt(tokens)
	}

	return p.parseRust(tokens)
}

// skipToMarkerEnd advances past the next unescaped closing marker.
// It reports false if a `;`, an indent block or the end of input is
// reached first, leaving the cursor there.
func skipToMarkerEnd(tokens *token.TokenBuffer) bool {
	for {
		if tokens.Exhausted() || tokens.IsTerminator() || tokens.IsIndentBlock() {
			return false
		}

		if tokens.IsMarkerEnd() {
			tokens.Seek(1)

			return true
		}

		tokens.Seek(1)
	}
}

// closingMarker returns the punct closing the inline expression that
// starts at the given cursor, or nil if no closing marker occurs before
// the next statement break.
func closingMarker(tokens *token.TokenBuffer) *token.Punct {
	if tokens == nil {
		return nil
	}

	c := tokens.Clone()
	if !skipToMarkerEnd(c) {
		return nil
	}

	return c.Peek(-1).(*token.Punct)
}

// parsePyStmt parses one Python statement, or a statement with an
// indent block if the capture runs into `:{...}`.
func (p *CodeRegionParser) parsePyStmt(tokens *token.TokenBuffer) (Region, error) {
	marker, ok := tokens.ReadOne().(*token.Punct)
	if !ok || marker.Char != token.Marker {
		return nil, token.NewPosError(tokens.DiagnosticSpan(), "BUG: Python statement must start at a marker")
	}

	stmt := &PyStmt{Marker: marker}

	for {
		if tokens.IsTerminator() {
			stmt.Terminator = tokens.ReadOne().(*token.Punct)

			return stmt, nil
		}

		if tokens.Exhausted() {
			span := marker.SrcSpan().Join(tokens.Peek(-1).SrcSpan())

			return nil, token.NewPosError(span, "unterminated Python statement (missing `;` or indent block)").
				SetHint("close the statement with `;` or attach an indented body with `:{...}`")
		}

		if tokens.IsMarkerEscape() {
			stmt.Tokens = append(stmt.Tokens, tokens.ReadEscapedMarker())

			continue
		}

		t := tokens.ReadOne()
		stmt.Tokens = append(stmt.Tokens, t)

		// `:` followed by a brace group closes the statement and opens
		// its indented body. The `:` stays in the statement tokens.
		if token.EqPunct(t, ':') && token.EqGroup(tokens.Current(), token.Brace) {
			group := tokens.ReadOne().(*token.Group)

			block, err := p.parseBlock(group)
			if err != nil {
				return nil, err
			}

			return &PyStmtWithBlock{Stmt: stmt, Group: group, Block: block}, nil
		}
	}
}

// parseBlock recursively parses the content of a bracket group.
func (p *CodeRegionParser) parseBlock(group *token.Group) ([]Region, error) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxNestingDepth {
		return nil, token.NewPosError(group.SrcSpan(),
			fmt.Sprintf("brackets nested deeper than %d levels", MaxNestingDepth))
	}

	return p.Parse(group.Buffer())
}

// parseInlinePyExpr parses a `$...$` expression. The capture must close
// before the statement break; running into `;` or the end of input is a
// hard error spanning from the opening marker to the last consumed
// token.
func (p *CodeRegionParser) parseInlinePyExpr(tokens *token.TokenBuffer) (*PyExpr, error) {
	start := tokens.ReadOne().(*token.Punct)
	expr := &PyExpr{StartMarker: start}

	for !tokens.IsMarkerEnd() {
		if tokens.Exhausted() || tokens.IsTerminator() {
			reason := "unexpected end of statement"
			if tokens.Exhausted() {
				reason = "unexpected end of input"
			}

			span := start.SrcSpan().Join(tokens.Peek(-1).SrcSpan())

			return nil, token.NewPosError(span, "incomplete inline Python expression ("+reason+")")
		}

		if tokens.IsMarkerEscape() {
			expr.Tokens = append(expr.Tokens, tokens.ReadEscapedMarker())

			continue
		}

		expr.Tokens = append(expr.Tokens, tokens.ReadOne())
	}

	expr.EndMarker = tokens.ReadOne().(*token.Punct)

	return expr, nil
}

// detectIdentWithPyExpr speculatively checks whether the cursor sits on
// a foldable run of identifiers and inline expressions joined by the
// concatenation marker. The clone is thrown away, the real cursor does
// not move.
func detectIdentWithPyExpr(tokens *token.TokenBuffer) bool {
	c := tokens.Clone()
	foundIdent, foundExpr := false, false

	for {
		if _, ok := c.Current().(*token.Ident); ok {
			c.Seek(1)

			foundIdent = true
		} else if c.IsMarkerStart() {
			c.Seek(1)

			if !skipToMarkerEnd(c) {
				break
			}

			foundExpr = true
		} else {
			break
		}

		if !token.EqPunct(c.Current(), token.ConcatMarker) {
			break
		}

		c.Seek(1)
	}

	return foundIdent && foundExpr
}

// parseIdentWithPyExpr consumes the run validated by
// detectIdentWithPyExpr.
func (p *CodeRegionParser) parseIdentWithPyExpr(tokens *token.TokenBuffer) (*IdentWithPyExpr, error) {
	unit := &IdentWithPyExpr{}

	for {
		if id, ok := tokens.Current().(*token.Ident); ok {
			tokens.Seek(1)
			unit.Parts = append(unit.Parts, IdentOrExpr{Ident: id})
		} else {
			expr, err := p.parseInlinePyExpr(tokens)
			if err != nil {
				return nil, err
			}

			unit.Parts = append(unit.Parts, IdentOrExpr{Expr: expr})
		}

		if !token.EqPunct(tokens.Current(), token.ConcatMarker) {
			return unit, nil
		}

		// Consume the joining `~` only if another fragment follows,
		// a trailing `~` belongs to the surrounding host code.
		next := tokens.Seeked(1)
		if next == nil {
			return unit, nil
		}

		if _, ok := next.Current().(*token.Ident); !ok && !next.IsMarkerStart() {
			return unit, nil
		}

		tokens.Seek(1)
	}
}

// parseRust accumulates host code units. It ends the region at a `;`
// (cosmetic split), at the end of input, or at a bracket group that
// turns out to contain non-inline Python, which reclassifies the region
// into a RustCodeWithBlock.
func (p *CodeRegionParser) parseRust(tokens *token.TokenBuffer) (Region, error) {
	var units []CodeUnit

	for {
		if detectIdentWithPyExpr(tokens) {
			unit, err := p.parseIdentWithPyExpr(tokens)
			if err != nil {
				return nil, err
			}

			units = append(units, unit)

			continue
		}

		if tokens.IsMarkerStart() {
			expr, err := p.parseInlinePyExpr(tokens)
			if err != nil {
				return nil, err
			}

			units = append(units, expr)

			continue
		}

		if tokens.IsMarkerEscape() {
			units = append(units, &TokenUnit{Token: tokens.ReadEscapedMarker()})

			continue
		}

		t := tokens.ReadOne()
		if t == nil {
			return &RustCode{Units: units}, nil
		}

		if group, ok := t.(*token.Group); ok {
			parsed, err := p.parseBlock(group)
			if err != nil {
				return nil, err
			}

			if containsPython(parsed) {
				// Side effects of the Python inside must scope to this
				// bracket, so the whole region becomes a with-block.
				return &RustCodeWithBlock{Units: units, Group: group, Block: parsed}, nil
			}

			units = append(units, &GroupUnit{Group: group, Units: flattenRust(parsed)})

			continue
		}

		units = append(units, &TokenUnit{Token: t})

		if token.EqPunct(t, ';') {
			return &RustCode{Units: units}, nil
		}
	}
}

func containsPython(regions []Region) bool {
	for _, r := range regions {
		if _, ok := r.(*RustCode); !ok {
			return true
		}
	}

	return false
}

func flattenRust(regions []Region) []CodeUnit {
	var units []CodeUnit
	for _, r := range regions {
		units = append(units, r.(*RustCode).Units...)
	}

	return units
}
