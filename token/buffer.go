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

// TokenBuffer is a cursor over an immutable token slice. Clones share
// the backing slice, which makes speculative lookahead cheap: branch,
// scan ahead, throw the clone away.
//
// The cursor always stays within [0, len]; accessors return absence
// instead of panicking on out-of-range positions.
type TokenBuffer struct {
	tokens []Token
	pos    int
}

// NewTokenBuffer creates a buffer positioned at the first token.
func NewTokenBuffer(tokens []Token) *TokenBuffer {
	return &TokenBuffer{tokens: tokens}
}

// Clone returns an independent cursor over the same tokens.
func (b *TokenBuffer) Clone() *TokenBuffer {
	c := *b

	return &c
}

// Len returns the total number of tokens.
func (b *TokenBuffer) Len() int {
	return len(b.tokens)
}

// Pos returns the current cursor position.
func (b *TokenBuffer) Pos() int {
	return b.pos
}

// SetPos moves the cursor to an absolute position. It reports false and
// leaves the cursor untouched if pos is outside [0, len].
func (b *TokenBuffer) SetPos(pos int) bool {
	if pos < 0 || pos > len(b.tokens) {
		return false
	}

	b.pos = pos

	return true
}

// Current returns the token under the cursor, or nil at the end.
func (b *TokenBuffer) Current() Token {
	return b.Peek(0)
}

// Peek returns the token at the given offset from the cursor, or nil.
func (b *TokenBuffer) Peek(offset int) Token {
	i := b.pos + offset
	if i < 0 || i >= len(b.tokens) {
		return nil
	}

	return b.tokens[i]
}

// Seek moves the cursor by offset. It reports false and leaves the
// cursor untouched if the target is outside [0, len].
func (b *TokenBuffer) Seek(offset int) bool {
	return b.SetPos(b.pos + offset)
}

// Seeked returns a clone moved by offset, or nil if the move is invalid.
func (b *TokenBuffer) Seeked(offset int) *TokenBuffer {
	c := b.Clone()
	if !c.Seek(offset) {
		return nil
	}

	return c
}

// ReadOne returns the current token and advances the cursor, or nil at
// the end of the buffer.
func (b *TokenBuffer) ReadOne() Token {
	t := b.Current()
	if t != nil {
		b.pos++
	}

	return t
}

// Exhausted reports whether the cursor reached the end.
func (b *TokenBuffer) Exhausted() bool {
	return b.pos >= len(b.tokens)
}

// HasNMore reports whether at least n tokens remain.
func (b *TokenBuffer) HasNMore(n int) bool {
	return b.pos+n <= len(b.tokens)
}

// Remaining returns the tokens from the cursor to the end.
func (b *TokenBuffer) Remaining() []Token {
	return b.tokens[b.pos:]
}

// isMarkerEscapedHere reports whether the marker under the cursor is the
// middle of a `<$>` escape. The three tokens must be glued together, an
// escape with interior space is just ordinary punctuation.
func (b *TokenBuffer) isMarkerEscapedHere() bool {
	cur, ok := b.Current().(*Punct)
	if !ok || cur.Char != Marker {
		return false
	}

	prev, ok := b.Peek(-1).(*Punct)
	if !ok || prev.Char != '<' || prev.Spacing != Joint {
		return false
	}

	return EqPunct(b.Peek(1), '>') && cur.Spacing == Joint
}

// IsMarkerEscape reports whether the cursor sits on the `<` of a `<$>`
// marker escape.
func (b *TokenBuffer) IsMarkerEscape() bool {
	if !b.HasNMore(3) || !EqPunct(b.Peek(1), Marker) {
		return false
	}

	ahead := b.Seeked(1)

	return ahead != nil && ahead.isMarkerEscapedHere()
}

// MarkerEscapeSpan returns the span covering all three escape tokens.
func (b *TokenBuffer) MarkerEscapeSpan() *Span {
	return b.Current().SrcSpan().Join(b.Peek(2).SrcSpan())
}

// ReadEscapedMarker consumes a `<$>` escape and returns a single literal
// marker punct spanning all three original tokens.
func (b *TokenBuffer) ReadEscapedMarker() *Punct {
	span := b.MarkerEscapeSpan()
	b.Seek(3)

	return &Punct{Span: span, Char: Marker, Spacing: Alone}
}

// IsMarkerStart reports whether the cursor sits on an unescaped marker
// that opens an embedded region.
func (b *TokenBuffer) IsMarkerStart() bool {
	return EqPunct(b.Current(), Marker) && !b.isMarkerEscapedHere()
}

// IsMarkerEnd reports whether the cursor sits on an unescaped marker
// that closes an embedded region.
func (b *TokenBuffer) IsMarkerEnd() bool {
	return EqPunct(b.Current(), Marker) && !b.isMarkerEscapedHere()
}

// IsTerminator reports whether the cursor sits on the `;` statement
// terminator.
func (b *TokenBuffer) IsTerminator() bool {
	return EqPunct(b.Current(), ';')
}

// IsIndentBlock reports whether the cursor sits on a `:` immediately
// followed by a brace group, the host stand-in for an indented block.
func (b *TokenBuffer) IsIndentBlock() bool {
	return EqPunct(b.Current(), ':') && EqGroup(b.Peek(1), Brace)
}

// DiagnosticSpan returns the most useful span for an error at the
// current position: the current token, else the previous one, else nil.
func (b *TokenBuffer) DiagnosticSpan() *Span {
	if t := b.Current(); t != nil {
		return t.SrcSpan()
	}

	if t := b.Peek(-1); t != nil {
		return t.SrcSpan()
	}

	return nil
}
