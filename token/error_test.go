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
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPosErrorExplain(t *testing.T) {
	_, _, err := Lex("explain_test.rs", "foo(]")
	if err == nil {
		t.Fatal("expected a lex error")
	}

	var posErr *PosError
	if !errors.As(err, &posErr) {
		t.Fatalf("expected a positional error, got %v", err)
	}

	posErr.SetHint("balance the brackets")

	text := posErr.Explain()

	for _, want := range []string{
		"explain_test.rs:1:5",
		"1 |foo(]",
		`^~~~ mismatched closing "]"`,
		`opened with "(" here`,
		"= hint: balance the brackets",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("explanation does not contain %q:\n%s", want, text)
		}
	}
}

func TestPosErrorCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")

	pos := Pos{File: "x.rs", Line: 1, Col: 1}
	err := NewPosError(NewNode(pos, pos), "cannot scan host source").SetCause(cause)

	if got := err.Error(); got != "cannot scan host source: underlying failure" {
		t.Errorf("error text %q", got)
	}

	if !errors.Is(err, cause) {
		t.Errorf("the cause must be reachable through Unwrap")
	}
}

// Lexer failures without position information still become positional
// errors anchored at the file start.
func TestLexErrorWithoutPosition(t *testing.T) {
	file := NewFile("broken.rs", "abc")

	err := lexError(file, fmt.Errorf("backend failure"))

	var posErr *PosError
	if !errors.As(err, &posErr) {
		t.Fatalf("expected a positional error, got %v", err)
	}

	if got := posErr.Details[0].Node.Begin().String(); got != "broken.rs:1:1" {
		t.Errorf("anchored at %q, want broken.rs:1:1", got)
	}

	if !strings.Contains(err.Error(), "backend failure") {
		t.Errorf("error %q does not name the cause", err.Error())
	}
}
