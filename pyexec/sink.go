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

package pyexec

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/golangee/pymeta/token"
)

// NoSpan is the span index of a synthetic token.
const NoSpan = -1

// A TokenSink collects the host tokens a running expansion emits. The
// interpreter backend forwards every constructor call of the generated
// code here, with span-table indices instead of raw spans.
type TokenSink struct {
	spans    []*token.Span
	tokens   []token.Token
	consumed bool
}

func NewTokenSink(spans []*token.Span) *TokenSink {
	return &TokenSink{spans: spans}
}

// Child returns an empty sink over the same span table, used to collect
// the content of a nested group.
func (s *TokenSink) Child() *TokenSink {
	return NewTokenSink(s.spans)
}

// Tokens returns the collected token stream.
func (s *TokenSink) Tokens() []token.Token {
	return s.tokens
}

func (s *TokenSink) span(idx int) (*token.Span, error) {
	if idx == NoSpan {
		return nil, nil
	}

	if idx < 0 || idx >= len(s.spans) {
		return nil, fmt.Errorf("span index %d out of range (%d spans)", idx, len(s.spans))
	}

	return s.spans[idx], nil
}

// AppendGroup wraps the tokens of the inner sink into a bracket group.
// The inner sink is consumed and cannot be appended to again.
func (s *TokenSink) AppendGroup(delimiter string, inner *TokenSink, spanIdx int) error {
	var delim token.Delimiter

	switch delimiter {
	case "()":
		delim = token.Paren
	case "[]":
		delim = token.Bracket
	case "{}":
		delim = token.Brace
	default:
		return fmt.Errorf("invalid delimiter %q", delimiter)
	}

	if inner.consumed {
		return fmt.Errorf("the given token stream has already been consumed")
	}

	inner.consumed = true

	span, err := s.span(spanIdx)
	if err != nil {
		return err
	}

	s.tokens = append(s.tokens, &token.Group{Span: span, Delim: delim, Tokens: inner.tokens})

	return nil
}

func (s *TokenSink) AppendPunct(char rune, spacing string, spanIdx int) error {
	var sp token.Spacing

	switch spacing {
	case "alone":
		sp = token.Alone
	case "joint":
		sp = token.Joint
	default:
		return fmt.Errorf("invalid spacing %q", spacing)
	}

	span, err := s.span(spanIdx)
	if err != nil {
		return err
	}

	s.tokens = append(s.tokens, &token.Punct{Span: span, Char: char, Spacing: sp})

	return nil
}

func (s *TokenSink) AppendIdent(name string, spanIdx int) error {
	if !validIdent(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}

	span, err := s.span(spanIdx)
	if err != nil {
		return err
	}

	s.tokens = append(s.tokens, &token.Ident{Span: span, Name: name})

	return nil
}

// AppendIntLiteral emits an integer literal. A suffixed value must fit
// the suffix type, an unsuffixed one any 128 bit integer.
func (s *TokenSink) AppendIntLiteral(value *big.Int, suffix string, spanIdx int) error {
	if err := checkIntRange(value, suffix); err != nil {
		return err
	}

	repr := value.String() + suffix

	return s.appendLiteral(repr, spanIdx)
}

// AppendFloatLiteral emits a float literal, which must be finite.
func (s *TokenSink) AppendFloatLiteral(value float64, suffix string, spanIdx int) error {
	if suffix != "" && suffix != "f32" && suffix != "f64" {
		return fmt.Errorf("invalid float literal suffix %q", suffix)
	}

	if value != value || value > 1.7976931348623157e308 || value < -1.7976931348623157e308 {
		return fmt.Errorf("invalid float literal value: %v%s", value, suffix)
	}

	return s.appendLiteral(hostFloatRepr(value)+suffix, spanIdx)
}

// AppendStrLiteral emits a text literal, kind "str" or "chr". A chr is
// exactly one character.
func (s *TokenSink) AppendStrLiteral(kind, value string, spanIdx int) error {
	switch kind {
	case "str":
		return s.appendLiteral(hostStringRepr(value), spanIdx)
	case "chr":
		r, size := utf8.DecodeRuneInString(value)
		if size == 0 || size != len(value) {
			return fmt.Errorf("expected one character, got %q", value)
		}

		return s.appendLiteral(hostCharRepr(r), spanIdx)
	default:
		return fmt.Errorf("invalid str literal kind %q", kind)
	}
}

// AppendBytesLiteral emits a binary literal, kind "bytes", "byte" or
// "cstr". A byte is exactly one byte, a cstr must not contain NUL.
func (s *TokenSink) AppendBytesLiteral(kind string, value []byte, spanIdx int) error {
	switch kind {
	case "bytes":
		return s.appendLiteral(hostBytesRepr(value, "b"), spanIdx)
	case "byte":
		if len(value) != 1 {
			return fmt.Errorf("expected one byte, got %d bytes", len(value))
		}

		return s.appendLiteral(hostByteRepr(value[0]), spanIdx)
	case "cstr":
		for _, b := range value {
			if b == 0 {
				return fmt.Errorf("invalid C string bytes: interior NUL")
			}
		}

		return s.appendLiteral(hostBytesRepr(value, "c"), spanIdx)
	default:
		return fmt.Errorf("invalid bytes literal kind %q", kind)
	}
}

func (s *TokenSink) appendLiteral(repr string, spanIdx int) error {
	span, err := s.span(spanIdx)
	if err != nil {
		return err
	}

	s.tokens = append(s.tokens, &token.Literal{Span: span, Repr: repr})

	return nil
}

// IsIdentStart reports whether the rune may begin a host identifier.
func IsIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

// IsIdentContinue reports whether the rune may continue a host
// identifier.
func IsIdentContinue(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func validIdent(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if i == 0 && !IsIdentStart(r) {
			return false
		}

		if i > 0 && !IsIdentContinue(r) {
			return false
		}
	}

	return true
}

var intRanges = map[string][2]*big.Int{
	"":      {new(big.Int).Neg(bigPow2(127)), new(big.Int).Sub(bigPow2(128), big.NewInt(1))},
	"u8":    {big.NewInt(0), big.NewInt(255)},
	"u16":   {big.NewInt(0), big.NewInt(65535)},
	"u32":   {big.NewInt(0), big.NewInt(4294967295)},
	"u64":   {big.NewInt(0), new(big.Int).Sub(bigPow2(64), big.NewInt(1))},
	"u128":  {big.NewInt(0), new(big.Int).Sub(bigPow2(128), big.NewInt(1))},
	"usize": {big.NewInt(0), new(big.Int).Sub(bigPow2(64), big.NewInt(1))},
	"i8":    {big.NewInt(-128), big.NewInt(127)},
	"i16":   {big.NewInt(-32768), big.NewInt(32767)},
	"i32":   {big.NewInt(-2147483648), big.NewInt(2147483647)},
	"i64":   {new(big.Int).Neg(bigPow2(63)), new(big.Int).Sub(bigPow2(63), big.NewInt(1))},
	"i128":  {new(big.Int).Neg(bigPow2(127)), new(big.Int).Sub(bigPow2(127), big.NewInt(1))},
	"isize": {new(big.Int).Neg(bigPow2(63)), new(big.Int).Sub(bigPow2(63), big.NewInt(1))},
}

func bigPow2(n uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), n)
}

func checkIntRange(value *big.Int, suffix string) error {
	r, ok := intRanges[suffix]
	if !ok {
		return fmt.Errorf("invalid int literal suffix %q", suffix)
	}

	if value.Cmp(r[0]) < 0 || value.Cmp(r[1]) > 0 {
		if suffix == "" {
			return fmt.Errorf("int literal value overflow: %s", value)
		}

		return fmt.Errorf("int literal value %s out of range for %s", value, suffix)
	}

	return nil
}

// hostFloatRepr formats a float so that it lexes as a float literal
// again, forcing a fraction when the value happens to be integral.
func hostFloatRepr(v float64) string {
	repr := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(repr, ".e") {
		repr += ".0"
	}

	return repr
}

func hostStringRepr(value string) string {
	sb := &strings.Builder{}
	sb.WriteByte('"')

	for _, r := range value {
		appendHostEscaped(sb, r, '"')
	}

	sb.WriteByte('"')

	return sb.String()
}

func hostCharRepr(r rune) string {
	sb := &strings.Builder{}
	sb.WriteByte('\'')
	appendHostEscaped(sb, r, '\'')
	sb.WriteByte('\'')

	return sb.String()
}

// hostBytesRepr formats a binary literal body under the given prefix,
// "b" for bytes and "c" for C strings.
func hostBytesRepr(value []byte, prefix string) string {
	sb := &strings.Builder{}
	sb.WriteString(prefix)
	sb.WriteByte('"')

	for _, b := range value {
		appendHostByteEscaped(sb, b, '"')
	}

	sb.WriteByte('"')

	return sb.String()
}

func hostByteRepr(b byte) string {
	sb := &strings.Builder{}
	sb.WriteString("b'")
	appendHostByteEscaped(sb, b, '\'')
	sb.WriteByte('\'')

	return sb.String()
}

// appendHostEscaped writes one character of a host text literal body.
func appendHostEscaped(sb *strings.Builder, r rune, quote rune) {
	switch r {
	case '\\':
		sb.WriteString(`\\`)
	case quote:
		sb.WriteByte('\\')
		sb.WriteRune(quote)
	case '\n':
		sb.WriteString(`\n`)
	case '\r':
		sb.WriteString(`\r`)
	case '\t':
		sb.WriteString(`\t`)
	case 0:
		sb.WriteString(`\0`)
	default:
		if r < 0x20 || r == 0x7f {
			fmt.Fprintf(sb, `\u{%x}`, r)
		} else {
			sb.WriteRune(r)
		}
	}
}

// appendHostByteEscaped writes one byte of a host binary literal body.
func appendHostByteEscaped(sb *strings.Builder, b byte, quote byte) {
	switch b {
	case '\\':
		sb.WriteString(`\\`)
	case quote:
		sb.WriteByte('\\')
		sb.WriteByte(quote)
	case '\n':
		sb.WriteString(`\n`)
	case '\r':
		sb.WriteString(`\r`)
	case '\t':
		sb.WriteString(`\t`)
	case 0:
		sb.WriteString(`\0`)
	default:
		if b < 0x20 || b >= 0x7f {
			fmt.Fprintf(sb, `\x%02x`, b)
		} else {
			sb.WriteByte(b)
		}
	}
}
