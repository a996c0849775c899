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

// Package token provides the host token model of the pymeta pipeline:
// a Rust-flavored token tree with lazily resolved spans, a cursor-based
// buffer for speculative parsing and the lexer that produces it.
package token

import "strings"

// Marker is the reserved punctuation character that opens and closes an
// embedded Python region.
const Marker = '$'

// ConcatMarker joins identifier fragments and inline Python expressions
// into one dynamically constructed identifier.
const ConcatMarker = '~'

// Spacing describes whether a punctuation character directly abuts the
// following token.
type Spacing int

const (
	// Alone means the punct is followed by whitespace or a non-punct token.
	Alone Spacing = iota
	// Joint means the punct is glued to the next token, as in the two
	// halves of `==`.
	Joint
)

func (s Spacing) String() string {
	if s == Joint {
		return "joint"
	}

	return "alone"
}

// Delimiter is the bracket kind of a Group.
type Delimiter int

const (
	Paren Delimiter = iota
	Bracket
	Brace
)

// Open returns the opening bracket character.
func (d Delimiter) Open() string {
	return [...]string{"(", "[", "{"}[d]
}

// Close returns the closing bracket character.
func (d Delimiter) Close() string {
	return [...]string{")", "]", "}"}[d]
}

// OpenClose returns both bracket characters, as in "()".
func (d Delimiter) OpenClose() string {
	return [...]string{"()", "[]", "{}"}[d]
}

// A Token is a single host token. Groups nest recursively.
type Token interface {
	Node
	// SrcSpan returns the source range this token was lexed from.
	SrcSpan() *Span
	// String renders the token as host source text, without spacing.
	String() string
}

// Ident is a host identifier.
type Ident struct {
	*Span
	Name string
}

func (t *Ident) String() string {
	return t.Name
}

// Punct is a single host punctuation character.
type Punct struct {
	*Span
	Char    rune
	Spacing Spacing
}

func (t *Punct) String() string {
	return string(t.Char)
}

// Literal is a host literal in its raw textual form. Decoding and
// cross-language transcription happen in the generator, the lexer only
// records the repr.
type Literal struct {
	*Span
	Repr string
}

func (t *Literal) String() string {
	return t.Repr
}

// Group is a balanced bracket pair and its recursively lexed content.
// The span covers both brackets.
type Group struct {
	*Span
	Delim  Delimiter
	Tokens []Token
}

func (t *Group) String() string {
	var sb strings.Builder
	sb.WriteString(t.Delim.Open())

	for i, tok := range t.Tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(tok.String())
	}

	sb.WriteString(t.Delim.Close())

	return sb.String()
}

// Buffer returns the group content as an independent token buffer.
func (t *Group) Buffer() *TokenBuffer {
	return NewTokenBuffer(t.Tokens)
}

// EqPunct reports whether t is a punct with the given character.
// It is safe to call with a nil token.
func EqPunct(t Token, ch rune) bool {
	p, ok := t.(*Punct)

	return ok && p.Char == ch
}

// EqGroup reports whether t is a group with the given delimiter.
// It is safe to call with a nil token.
func EqGroup(t Token, d Delimiter) bool {
	g, ok := t.(*Group)

	return ok && g.Delim == d
}
