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

// Package pymeta expands host source containing embedded Python into a
// plain host token stream: the input is lexed, partitioned into code
// regions, rendered as a Python module and executed, with interpreter
// failures mapped back onto host source spans.
package pymeta

import (
	"github.com/golangee/pymeta/parser"
	"github.com/golangee/pymeta/pyerr"
	"github.com/golangee/pymeta/pyexec"
	"github.com/golangee/pymeta/pygen"
	"github.com/golangee/pymeta/token"
)

// MainFilename is the Python filename of the generated main module, as
// it appears in interpreter tracebacks.
const MainFilename = "<PyMeta main>"

// Generate runs the front half of the pipeline, from host source to the
// generated Python executable. Lex, parse and transcription failures
// are returned as *token.PosError.
func Generate(filename, src string) (*pygen.Executable, error) {
	file, buf, err := token.Lex(filename, src)
	if err != nil {
		return nil, err
	}

	regions, err := parser.NewCodeRegionParser().Parse(buf)
	if err != nil {
		return nil, err
	}

	module, err := pygen.Generate(file, MainFilename, regions)
	if err != nil {
		return nil, err
	}

	return &pygen.Executable{Main: module}, nil
}

// Expand runs one full expansion. A Python failure yields no tokens and
// the diagnostics to report instead, err covers failures of the
// pipeline itself.
func Expand(filename, src string, interp pyexec.Interpreter) ([]token.Token, []pyerr.Diagnostic, error) {
	exe, err := Generate(filename, src)
	if err != nil {
		return nil, nil, err
	}

	tokens, pyErr, err := pyexec.Execute(interp, exe)
	if err != nil {
		return nil, nil, err
	}

	if pyErr != nil {
		return nil, pyerr.Render(pyErr, exe), nil
	}

	return tokens, nil, nil
}
