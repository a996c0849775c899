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

package pymeta

import (
	"errors"
	"strings"
	"testing"

	"github.com/golangee/pymeta/pyerr"
	"github.com/golangee/pymeta/pyexec"
	"github.com/golangee/pymeta/pygen"
	"github.com/golangee/pymeta/token"
)

type scriptedContext struct {
	run func(exe *pygen.Executable, sink *pyexec.TokenSink) *pyerr.PythonError
}

func (c *scriptedContext) Run(exe *pygen.Executable, sink *pyexec.TokenSink) *pyerr.PythonError {
	return c.run(exe, sink)
}

func (c *scriptedContext) Release() {}

type scriptedInterpreter struct {
	ctx *scriptedContext
}

func (i *scriptedInterpreter) Bootstrap() error {
	return nil
}

func (i *scriptedInterpreter) Acquire() (pyexec.Context, error) {
	return i.ctx, nil
}

func TestGenerate(t *testing.T) {
	exe, err := Generate("expand_test.rs", `$x = 1; let y = $x$;`)
	if err != nil {
		t.Fatal(err)
	}

	if exe.Main.Filename != MainFilename {
		t.Errorf("main module filename %q, want %q", exe.Main.Filename, MainFilename)
	}

	want := "x = 1\n" +
		`rust(Ident("let", __spans[0]), Ident("y", __spans[1]), ` +
		`Punct('=', "alone", __spans[2]), Tokens((x), span=__spans[3]))` + "\n"

	if got := exe.Main.Source.Code(); got != want {
		t.Errorf("generated source:\n%s\nwant:\n%s", got, want)
	}
}

func TestExpand(t *testing.T) {
	var seenSource string

	interp := &scriptedInterpreter{ctx: &scriptedContext{
		run: func(exe *pygen.Executable, sink *pyexec.TokenSink) *pyerr.PythonError {
			seenSource = exe.Main.Source.Code()

			if err := sink.AppendIdent("let", 0); err != nil {
				return &pyerr.PythonError{Class: "RuntimeError", Msg: err.Error()}
			}

			return nil
		},
	}}

	tokens, diags, err := Expand("expand_test.rs", `let x = 1;`, interp)
	if err != nil {
		t.Fatal(err)
	}

	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}

	if len(tokens) != 1 || tokens[0].(*token.Ident).Name != "let" {
		t.Fatalf("unexpected tokens %#v", tokens)
	}

	if !strings.HasPrefix(seenSource, "rust(Ident(\"let\", __spans[0])") {
		t.Errorf("interpreter ran unexpected source %q", seenSource)
	}
}

func TestExpandReportsPythonFailure(t *testing.T) {
	interp := &scriptedInterpreter{ctx: &scriptedContext{
		run: func(exe *pygen.Executable, sink *pyexec.TokenSink) *pyerr.PythonError {
			return &pyerr.PythonError{Class: "ValueError", Msg: "boom"}
		},
	}}

	tokens, diags, err := Expand("expand_test.rs", `$raise ValueError("boom");`, interp)
	if err != nil {
		t.Fatal(err)
	}

	if tokens != nil {
		t.Errorf("a failed expansion must not yield tokens")
	}

	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}

	if diags[0].Message != "$ValueError: boom" {
		t.Errorf("primary diagnostic %q", diags[0].Message)
	}

	last := diags[len(diags)-1]
	if last.Severity != pyerr.Warning || !strings.Contains(last.Message, "PyMeta source dump") {
		t.Errorf("missing source dump, got %q", last.Message)
	}
}

func TestExpandReportsParseFailure(t *testing.T) {
	interp := &scriptedInterpreter{ctx: &scriptedContext{
		run: func(exe *pygen.Executable, sink *pyexec.TokenSink) *pyerr.PythonError {
			t.Fatal("the interpreter must not run on parse failures")

			return nil
		},
	}}

	_, _, err := Expand("expand_test.rs", `$x = 1`, interp)

	var posErr *token.PosError
	if !errors.As(err, &posErr) {
		t.Fatalf("expected a positional error, got %v", err)
	}

	if !strings.Contains(err.Error(), "unterminated Python statement") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
