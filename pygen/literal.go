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
	"math/big"
	"strconv"
	"strings"
)

// literalKind classifies a host literal repr by its prefix.
type literalKind int

const (
	litStr literalKind = iota
	litChar
	litBytes
	litByte
	litCStr
	litInt
	litFloat
)

// classifyLiteral determines the kind of a host literal from its raw
// repr. Numbers are additionally split into their digits and type
// suffix.
func classifyLiteral(repr string) (literalKind, error) {
	switch {
	case strings.HasPrefix(repr, `"`), strings.HasPrefix(repr, `r"`), strings.HasPrefix(repr, `r#`):
		return litStr, nil
	case strings.HasPrefix(repr, "'"):
		return litChar, nil
	case strings.HasPrefix(repr, `b"`), strings.HasPrefix(repr, "br"):
		return litBytes, nil
	case strings.HasPrefix(repr, "b'"):
		return litByte, nil
	case strings.HasPrefix(repr, "c"):
		return litCStr, nil
	}

	if len(repr) > 0 && repr[0] >= '0' && repr[0] <= '9' {
		_, _, isFloat, err := splitNumber(repr)
		if err != nil {
			return 0, err
		}

		if isFloat {
			return litFloat, nil
		}

		return litInt, nil
	}

	return 0, fmt.Errorf("unrecognized literal %q", repr)
}

// numberSuffixes are the recognized numeric type suffixes, longest
// first so that e.g. `u128` wins over a hypothetical shorter match.
var numberSuffixes = []string{
	"usize", "isize",
	"u128", "i128",
	"u64", "u32", "u16",
	"i64", "i32", "i16",
	"f64", "f32",
	"u8", "i8",
}

// splitNumber separates a numeric literal into its digits and type
// suffix and decides whether it denotes a float. Float suffixes are
// never stripped from based literals: in `0x1f32` the trailing `f32`
// is hex digits, not a suffix.
func splitNumber(repr string) (digits, suffix string, isFloat bool, err error) {
	based := strings.HasPrefix(repr, "0x") || strings.HasPrefix(repr, "0X") ||
		strings.HasPrefix(repr, "0o") || strings.HasPrefix(repr, "0O") ||
		strings.HasPrefix(repr, "0b") || strings.HasPrefix(repr, "0B")

	digits = repr

	for _, s := range numberSuffixes {
		if based && s[0] == 'f' {
			continue
		}

		if strings.HasSuffix(repr, s) && len(repr) > len(s) {
			digits, suffix = repr[:len(repr)-len(s)], s

			break
		}
	}

	// The lexer accepts any alphabetic suffix. Unknown suffixes stay in
	// the digits here and fail numeric validation later.
	isFloat = !based &&
		(strings.ContainsAny(digits, ".eE") || suffix == "f32" || suffix == "f64")

	if based && (suffix == "f32" || suffix == "f64") {
		return "", "", false, fmt.Errorf("float suffix on based integer literal %q", repr)
	}

	return digits, suffix, isFloat, nil
}

// maxIntBits bounds unsuffixed integer literals to the widest host
// integer type.
const maxIntBits = 128

// validateNumber parses the digits to reject values no host type can
// represent: integers of 2^128 and above, floats that round to
// infinity.
func validateNumber(repr, digits string, isFloat bool) error {
	plain := strings.ReplaceAll(digits, "_", "")

	if isFloat {
		v, err := strconv.ParseFloat(plain, 64)
		if err != nil || v != v || v > 1.7976931348623157e308 || v < -1.7976931348623157e308 {
			return fmt.Errorf("float literal %q is not a finite number", repr)
		}

		return nil
	}

	v, ok := new(big.Int).SetString(plain, 0)
	if !ok {
		return fmt.Errorf("invalid integer literal %q", repr)
	}

	if v.BitLen() > maxIntBits {
		return fmt.Errorf("integer literal %q exceeds %d bits", repr, maxIntBits)
	}

	return nil
}

// pythonTextOfLiteral transcribes a host literal for use inside Python
// expression text. Numeric type suffixes are dropped, string-like
// literals are re-escaped into Python syntax.
func pythonTextOfLiteral(repr string) (string, error) {
	kind, err := classifyLiteral(repr)
	if err != nil {
		return "", err
	}

	switch kind {
	case litStr:
		return stringReprToPython(repr)
	case litChar:
		return charReprToPython(repr)
	case litBytes:
		return bytesReprToPython(repr, false)
	case litByte:
		return byteReprToPython(repr)
	case litCStr:
		return bytesReprToPython(repr, true)
	default:
		digits, _, isFloat, err := splitNumber(repr)
		if err != nil {
			return "", err
		}

		if err := validateNumber(repr, digits, isFloat); err != nil {
			return "", err
		}

		return digits, nil
	}
}
