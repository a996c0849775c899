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

package token

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// hostDef scans the flat host token classes. Bracket matching and punct
// spacing classification happen in the assembler below. Lowercase rules
// are elided from the stream.
var hostDef = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "whitespace", Pattern: `\s+`},

	// Raw strings carry at most one hash pair; that covers everything the
	// escape-free transcription path can express anyway.
	{Name: "RawString", Pattern: `(?:b|c)?r#?"[^"]*"#?`},
	{Name: "String", Pattern: `(?:b|c)?"(?:\\.|[^"\\])*"`},
	{Name: "Char", Pattern: `b?'(?:\\u\{[0-9a-fA-F_]+\}|\\.|[^'\\])'`},
	{Name: "Number", Pattern: `(?:0[xX][0-9a-fA-F_]+|0[oO][0-7_]+|0[bB][01_]+|[0-9][0-9_]*(?:\.[0-9][0-9_]*)?(?:[eE][+-]?[0-9_]+)?)(?:[a-zA-Z][a-zA-Z0-9]*)?`},

	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Open", Pattern: `[(\[{]`},
	{Name: "Close", Pattern: `[)\]}]`},
	{Name: "Punct", Pattern: `[!#$%&'*+,\-./:;<=>?@^|~]`},
})

// Lex scans host source text into a token buffer of nested groups.
// The returned file is the shared backing of every span.
func Lex(filename, src string) (*File, *TokenBuffer, error) {
	file := NewFile(filename, src)

	lx, err := hostDef.LexString(filename, src)
	if err != nil {
		return nil, nil, lexError(file, err)
	}

	names := make(map[lexer.TokenType]string)
	for name, typ := range hostDef.Symbols() {
		names[typ] = name
	}

	var flat []lexer.Token

	for {
		t, err := lx.Next()
		if err != nil {
			return nil, nil, lexError(file, err)
		}

		if t.EOF() {
			break
		}

		// Elision of lowercase rules is a lexer detail, keep this
		// independent of it.
		if name := names[t.Type]; name == "comment" || name == "whitespace" {
			continue
		}

		flat = append(flat, t)
	}

	s := &assembler{file: file, toks: flat, names: names}

	tokens, err := s.assemble(nil)
	if err != nil {
		return nil, nil, err
	}

	return file, NewTokenBuffer(tokens), nil
}

func lexError(file *File, err error) error {
	type positioned interface {
		Message() string
		Position() lexer.Position
	}

	if perr, ok := err.(positioned); ok {
		off := perr.Position().Offset
		end := off + 1
		if end > len(file.Src) {
			end = len(file.Src)
		}

		return NewPosError(file.Span(off, end), perr.Message())
	}

	// errors without position information anchor at the file start
	pos := Pos{File: file.Name, Line: 1, Col: 1}

	return NewPosError(NewNode(pos, pos), "cannot scan host source").SetCause(err)
}

type openBracket struct {
	delim Delimiter
	tok   lexer.Token
}

type assembler struct {
	file  *File
	toks  []lexer.Token
	names map[lexer.TokenType]string
	i     int
}

func (s *assembler) span(t lexer.Token) *Span {
	return s.file.Span(t.Pos.Offset, t.Pos.Offset+len(t.Value))
}

// spacing classifies a punct: joint iff another punct character starts
// at the very next byte.
func (s *assembler) spacing(t lexer.Token) Spacing {
	if s.i+1 >= len(s.toks) {
		return Alone
	}

	next := s.toks[s.i+1]
	if s.names[next.Type] != "Punct" {
		return Alone
	}

	if next.Pos.Offset != t.Pos.Offset+len(t.Value) {
		return Alone
	}

	return Joint
}

func delimiterOf(open string) Delimiter {
	switch open {
	case "(":
		return Paren
	case "[":
		return Bracket
	default:
		return Brace
	}
}

// assemble builds the token tree for one bracket level. It stops at the
// close bracket matching open, or at the end of input for the top level.
func (s *assembler) assemble(open *openBracket) ([]Token, error) {
	tokens := []Token{}

	for s.i < len(s.toks) {
		t := s.toks[s.i]

		switch s.names[t.Type] {
		case "Open":
			inner := &openBracket{delim: delimiterOf(t.Value), tok: t}
			s.i++

			content, err := s.assemble(inner)
			if err != nil {
				return nil, err
			}

			closeTok := s.toks[s.i-1]
			span := s.file.Span(t.Pos.Offset, closeTok.Pos.Offset+len(closeTok.Value))
			tokens = append(tokens, &Group{Span: span, Delim: inner.delim, Tokens: content})
		case "Close":
			if open == nil {
				return nil, NewPosError(s.span(t), fmt.Sprintf("unexpected closing %q", t.Value))
			}

			if t.Value != open.delim.Close() {
				return nil, NewPosError(s.span(t),
					fmt.Sprintf("mismatched closing %q", t.Value),
					NewErrDetail(s.span(open.tok), fmt.Sprintf("opened with %q here", open.tok.Value)))
			}

			s.i++

			return tokens, nil
		case "Ident":
			tokens = append(tokens, &Ident{Span: s.span(t), Name: t.Value})
			s.i++
		case "Number", "String", "RawString", "Char":
			tokens = append(tokens, &Literal{Span: s.span(t), Repr: t.Value})
			s.i++
		case "Punct":
			tokens = append(tokens, &Punct{Span: s.span(t), Char: []rune(t.Value)[0], Spacing: s.spacing(t)})
			s.i++
		default:
			return nil, NewPosError(s.span(t), fmt.Sprintf("unexpected token %q", t.Value))
		}
	}

	if open != nil {
		return nil, NewPosError(s.span(open.tok), fmt.Sprintf("unclosed %q", open.tok.Value))
	}

	return tokens, nil
}
