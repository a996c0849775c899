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

// Package pyexec is the execution boundary of the pipeline. It defines
// the interpreter contract and the token sink the generated Python
// writes its result tokens into. The package contains no interpreter of
// its own, backends plug in through the Interpreter interface.
package pyexec

import (
	"sync"

	"github.com/golangee/pymeta/pyerr"
	"github.com/golangee/pymeta/pygen"
	"github.com/golangee/pymeta/token"
)

// A Context is one attached interpreter session. Run executes the main
// module of the executable against the sink, synchronously and without
// a timeout: generated code may legitimately run long, termination is
// the author's responsibility.
type Context interface {
	Run(exe *pygen.Executable, sink *TokenSink) *pyerr.PythonError
	Release()
}

// An Interpreter provides Python execution. Bootstrap is called once
// per process before the first Acquire and loads the runtime support
// module into the interpreter.
type Interpreter interface {
	Bootstrap() error
	Acquire() (Context, error)
}

var (
	bootstrapOnce sync.Once
	bootstrapErr  error
)

// Bootstrap initializes the interpreter runtime exactly once. Repeated
// calls return the first outcome.
func Bootstrap(interp Interpreter) error {
	bootstrapOnce.Do(func() {
		bootstrapErr = interp.Bootstrap()
	})

	return bootstrapErr
}

// WithContext acquires a session, runs fn and releases the session
// again on every exit path.
func WithContext(interp Interpreter, fn func(Context) error) error {
	if err := Bootstrap(interp); err != nil {
		return err
	}

	ctx, err := interp.Acquire()
	if err != nil {
		return err
	}

	defer ctx.Release()

	return fn(ctx)
}

// Execute runs one expansion. A Python failure is reported as a
// *pyerr.PythonError and yields no tokens, err covers infrastructure
// failures of the interpreter itself.
func Execute(interp Interpreter, exe *pygen.Executable) ([]token.Token, *pyerr.PythonError, error) {
	sink := NewTokenSink(exe.Main.Spans)

	var pyErr *pyerr.PythonError

	err := WithContext(interp, func(ctx Context) error {
		pyErr = ctx.Run(exe, sink)

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if pyErr != nil {
		return nil, pyErr, nil
	}

	return sink.Tokens(), nil, nil
}
