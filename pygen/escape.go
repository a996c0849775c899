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
	"strconv"
	"strings"
	"unicode/utf8"
)

// appendByteEscaped appends one byte into a Python bytes literal body,
// escaped when necessary.
//
// https://docs.python.org/3/reference/lexical_analysis.html#escape-sequences
func appendByteEscaped(sb *strings.Builder, b byte) {
	switch b {
	case '\\':
		sb.WriteString(`\\`)
	case '\'':
		sb.WriteString(`\'`)
	case '"':
		sb.WriteString(`\"`)
	case 0x07:
		sb.WriteString(`\a`)
	case 0x08:
		sb.WriteString(`\b`)
	case 0x0c:
		sb.WriteString(`\f`)
	case '\n':
		sb.WriteString(`\n`)
	case '\r':
		sb.WriteString(`\r`)
	case '\t':
		sb.WriteString(`\t`)
	case 0x0b:
		sb.WriteString(`\v`)
	default:
		if b < 0x80 && strconv.IsPrint(rune(b)) {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(sb, `\x%02x`, b)
		}
	}
}

// appendRuneEscaped appends one character into a Python string literal
// body. Non-ASCII text passes through unescaped.
func appendRuneEscaped(sb *strings.Builder, r rune) {
	if r < 0x80 {
		appendByteEscaped(sb, byte(r))

		return
	}

	sb.WriteRune(r)
}

// unquoteRepr strips the quotes and prefixes from a host string-like
// literal repr. It returns the body and whether the literal was raw.
func unquoteRepr(repr string) (body string, raw bool, err error) {
	s := repr
	s = strings.TrimPrefix(s, "b")
	s = strings.TrimPrefix(s, "c")

	if strings.HasPrefix(s, "r") {
		s = s[1:]
		s = strings.TrimPrefix(s, "#")
		s = strings.TrimSuffix(s, "#")
		raw = true
	}

	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false, fmt.Errorf("invalid string literal repr %q", repr)
	}

	return s[1 : len(s)-1], raw, nil
}

// unescapeRunes decodes the escape sequences of a non-raw host string
// body into characters.
func unescapeRunes(body string) ([]rune, error) {
	var out []rune

	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])
		if r != '\\' {
			out = append(out, r)
			i += size

			continue
		}

		r, n, err := unescapeOne(body[i:])
		if err != nil {
			return nil, err
		}

		out = append(out, r)
		i += n
	}

	return out, nil
}

// unescapeOne decodes a single escape sequence starting at the
// backslash and returns the decoded character and consumed byte count.
func unescapeOne(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("lone backslash in literal")
	}

	switch s[1] {
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case '0':
		return 0, 2, nil
	case '\\':
		return '\\', 2, nil
	case '\'':
		return '\'', 2, nil
	case '"':
		return '"', 2, nil
	case 'x':
		if len(s) < 4 {
			return 0, 0, fmt.Errorf("truncated \\x escape")
		}

		v, err := strconv.ParseUint(s[2:4], 16, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid \\x escape %q", s[:4])
		}

		return rune(v), 4, nil
	case 'u':
		if len(s) < 3 || s[2] != '{' {
			return 0, 0, fmt.Errorf("invalid \\u escape")
		}

		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0, fmt.Errorf("unterminated \\u escape")
		}

		hex := strings.ReplaceAll(s[3:end], "_", "")

		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || v > 0x10ffff {
			return 0, 0, fmt.Errorf("invalid \\u escape %q", s[:end+1])
		}

		return rune(v), end + 1, nil
	default:
		return 0, 0, fmt.Errorf("unknown escape sequence \\%c", s[1])
	}
}

// decodeStringRepr decodes a host string literal repr (normal or raw)
// into its character content.
func decodeStringRepr(repr string) ([]rune, error) {
	body, raw, err := unquoteRepr(repr)
	if err != nil {
		return nil, err
	}

	if raw {
		return []rune(body), nil
	}

	return unescapeRunes(body)
}

// decodeBytesRepr decodes a host bytes-like literal repr into raw
// bytes. In escaped form \xHH produces a single byte, everything else
// decodes like a string and is re-encoded as UTF-8.
func decodeBytesRepr(repr string) ([]byte, error) {
	body, raw, err := unquoteRepr(repr)
	if err != nil {
		return nil, err
	}

	if raw {
		return []byte(body), nil
	}

	var out []byte

	for i := 0; i < len(body); {
		if body[i] != '\\' {
			out = append(out, body[i])
			i++

			continue
		}

		r, n, err := unescapeOne(body[i:])
		if err != nil {
			return nil, err
		}

		if body[i+1] == 'x' {
			out = append(out, byte(r))
		} else {
			var buf [4]byte
			out = append(out, buf[:utf8.EncodeRune(buf[:], r)]...)
		}

		i += n
	}

	return out, nil
}

// stringReprToPython transcribes a host string literal into a Python
// string literal.
func stringReprToPython(repr string) (string, error) {
	runes, err := decodeStringRepr(repr)
	if err != nil {
		return "", err
	}

	sb := &strings.Builder{}
	sb.WriteByte('"')

	for _, r := range runes {
		appendRuneEscaped(sb, r)
	}

	sb.WriteByte('"')

	return sb.String(), nil
}

// charReprToPython transcribes a host character literal `'x'` into a
// Python single-character string literal.
func charReprToPython(repr string) (string, error) {
	if len(repr) < 3 || repr[0] != '\'' || repr[len(repr)-1] != '\'' {
		return "", fmt.Errorf("invalid char literal repr %q", repr)
	}

	body := repr[1 : len(repr)-1]

	var r rune
	if body[0] == '\\' {
		var n int
		var err error

		r, n, err = unescapeOne(body)
		if err != nil {
			return "", err
		}

		if n != len(body) {
			return "", fmt.Errorf("invalid char literal repr %q", repr)
		}
	} else {
		var size int

		r, size = utf8.DecodeRuneInString(body)
		if size != len(body) {
			return "", fmt.Errorf("invalid char literal repr %q", repr)
		}
	}

	sb := &strings.Builder{}
	sb.WriteByte('\'')
	appendRuneEscaped(sb, r)
	sb.WriteByte('\'')

	return sb.String(), nil
}

// bytesReprToPython transcribes a host bytes or C string literal into a
// Python bytes literal. C strings must not contain interior NUL bytes.
func bytesReprToPython(repr string, cstr bool) (string, error) {
	bytes, err := decodeBytesRepr(repr)
	if err != nil {
		return "", err
	}

	if cstr {
		for _, b := range bytes {
			if b == 0 {
				return "", fmt.Errorf("C string literal contains an interior NUL byte")
			}
		}
	}

	sb := &strings.Builder{}
	sb.WriteString(`b"`)

	for _, b := range bytes {
		appendByteEscaped(sb, b)
	}

	sb.WriteByte('"')

	return sb.String(), nil
}

// byteReprToPython transcribes a host byte literal `b'x'` into a
// Python single-byte bytes literal.
func byteReprToPython(repr string) (string, error) {
	if len(repr) < 4 || !strings.HasPrefix(repr, "b'") || repr[len(repr)-1] != '\'' {
		return "", fmt.Errorf("invalid byte literal repr %q", repr)
	}

	body := repr[2 : len(repr)-1]

	var b byte
	if body[0] == '\\' {
		r, n, err := unescapeOne(body)
		if err != nil {
			return "", err
		}

		if n != len(body) || r > 0xff {
			return "", fmt.Errorf("invalid byte literal repr %q", repr)
		}

		b = byte(r)
	} else {
		if len(body) != 1 {
			return "", fmt.Errorf("invalid byte literal repr %q", repr)
		}

		b = body[0]
	}

	sb := &strings.Builder{}
	sb.WriteString("b'")
	appendByteEscaped(sb, b)
	sb.WriteByte('\'')

	return sb.String(), nil
}
