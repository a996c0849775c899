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
	"testing"

	"github.com/golangee/pymeta/pyerr"
	"github.com/golangee/pymeta/pygen"
	"github.com/golangee/pymeta/token"
)

type fakeContext struct {
	run      func(exe *pygen.Executable, sink *TokenSink) *pyerr.PythonError
	released int
}

func (c *fakeContext) Run(exe *pygen.Executable, sink *TokenSink) *pyerr.PythonError {
	return c.run(exe, sink)
}

func (c *fakeContext) Release() {
	c.released++
}

type fakeInterpreter struct {
	bootstrapped int
	acquireErr   error
	ctx          *fakeContext
}

func (i *fakeInterpreter) Bootstrap() error {
	i.bootstrapped++

	return nil
}

func (i *fakeInterpreter) Acquire() (Context, error) {
	if i.acquireErr != nil {
		return nil, i.acquireErr
	}

	return i.ctx, nil
}

func testExecutable(t *testing.T) *pygen.Executable {
	t.Helper()

	host := token.NewFile("pyexec_test.rs", "let x = 1;")

	b := pygen.NewSourceBuilder()
	b.NewLine(pygen.NoIndent)
	b.Append(pygen.NewSegment("rust(Ident(\"x\", __spans[0]))", host.Span(4, 5)))

	return &pygen.Executable{Main: &pygen.Module{
		Filename: "<main>",
		Source:   b.Finish(),
		Spans:    []*token.Span{host.Span(4, 5)},
		HostFile: host,
	}}
}

// Bootstrap runs once per process, so all Execute paths share one test
// function to keep their ordering under control.
func TestExecute(t *testing.T) {
	exe := testExecutable(t)

	interp := &fakeInterpreter{ctx: &fakeContext{
		run: func(exe *pygen.Executable, sink *TokenSink) *pyerr.PythonError {
			if err := sink.AppendIdent("x", 0); err != nil {
				t.Fatal(err)
			}

			return nil
		},
	}}

	tokens, pyErr, err := Execute(interp, exe)
	if err != nil || pyErr != nil {
		t.Fatalf("err %v, pyErr %v", err, pyErr)
	}

	if len(tokens) != 1 || tokens[0].(*token.Ident).Name != "x" {
		t.Fatalf("unexpected tokens %#v", tokens)
	}

	if got := tokens[0].SrcSpan().Text(); got != "x" {
		t.Errorf("token span covers %q, want x", got)
	}

	if interp.ctx.released != 1 {
		t.Errorf("context released %d times, want 1", interp.ctx.released)
	}

	// a failing script yields the Python error, not tokens
	interp.ctx = &fakeContext{
		run: func(exe *pygen.Executable, sink *TokenSink) *pyerr.PythonError {
			return &pyerr.PythonError{Class: "ValueError", Msg: "boom"}
		},
	}

	tokens, pyErr, err = Execute(interp, exe)
	if err != nil {
		t.Fatal(err)
	}

	if tokens != nil || pyErr == nil || pyErr.Class != "ValueError" {
		t.Errorf("got tokens %v, pyErr %v", tokens, pyErr)
	}

	if interp.ctx.released != 1 {
		t.Errorf("context released %d times, want 1", interp.ctx.released)
	}

	// interpreter infrastructure failures surface as plain errors
	interp.acquireErr = fmt.Errorf("no sessions left")

	if _, _, err := Execute(interp, exe); err == nil {
		t.Errorf("expected an acquire failure")
	}

	if interp.bootstrapped != 1 {
		t.Errorf("bootstrap ran %d times, want once per process", interp.bootstrapped)
	}
}
