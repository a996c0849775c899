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

// Package pyerr models interpreter failures and maps their Python
// source positions back onto host source spans.
package pyerr

import (
	"unicode/utf8"

	"github.com/golangee/pymeta/pygen"
	"github.com/golangee/pymeta/token"
)

// NoCol marks an absent column or line bound.
const NoCol = -1

// SourceLocation is a position range inside generated Python source.
// Module is nil for frames from foreign files, which then cannot be
// mapped back to host code.
type SourceLocation struct {
	Module    *pygen.Module
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int

	resolved bool
	srcSpan  *token.Span
}

func NewSourceLocation(module *pygen.Module, file string, startLine, startCol, endLine, endCol int) *SourceLocation {
	return &SourceLocation{
		Module:    module,
		File:      file,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   endLine,
		EndCol:    endCol,
	}
}

// Filename returns the reported Python filename.
func (l *SourceLocation) Filename() string {
	if l.Module != nil {
		return l.Module.Filename
	}

	return l.File
}

// Segments returns the generated segments the location range touches,
// or nil for foreign files. Columns count characters, matching the
// interpreter's position reporting.
func (l *SourceLocation) Segments() []*pygen.Segment {
	if l.Module == nil {
		return nil
	}

	endLine := l.EndLine
	if endLine == NoCol {
		endLine = l.StartLine
	}

	var segments []*pygen.Segment

	for lineno := l.StartLine; lineno <= endLine; lineno++ {
		if lineno < 1 || lineno > len(l.Module.Source.Lines) {
			break
		}

		line := l.Module.Source.Lines[lineno-1]
		column := line.Indent

		for _, segment := range line.Segments {
			segStart := column
			column += utf8.RuneCountInString(segment.Code)
			segEnd := column - 1

			if lineno == l.StartLine && l.StartCol != NoCol && segEnd < l.StartCol {
				continue
			}

			if lineno == endLine && l.EndCol != NoCol && segStart > l.EndCol {
				continue
			}

			segments = append(segments, segment)
		}
	}

	return segments
}

// SrcSpan maps the location onto the minimal covering host span, or nil
// when no touched segment carries one. The result is memoized.
func (l *SourceLocation) SrcSpan() *token.Span {
	if !l.resolved {
		l.srcSpan = pygen.JoinSrcSpans(l.Segments())
		l.resolved = true
	}

	return l.srcSpan
}

func (l *SourceLocation) equal(other *SourceLocation) bool {
	if l == nil || other == nil {
		return l == other
	}

	sameFile := l.Module == other.Module
	if l.Module == nil && other.Module == nil {
		sameFile = l.File == other.File
	}

	return sameFile &&
		l.StartLine == other.StartLine && l.StartCol == other.StartCol &&
		l.EndLine == other.EndLine && l.EndCol == other.EndCol
}

// FrameSummary is one traceback entry.
type FrameSummary struct {
	Name     string
	Location *SourceLocation
}

func (f *FrameSummary) equal(other *FrameSummary) bool {
	if f == nil || other == nil {
		return f == other
	}

	return f.Name == other.Name && f.Location.equal(other.Location)
}

// PythonError is a failure reported by the interpreter. Runtime errors
// carry a Stack with the most recent call first, syntax errors carry a
// single SyntaxLoc. Both are absent when no trace information could be
// extracted.
type PythonError struct {
	Class string
	Msg   string

	Stack     []*FrameSummary
	SyntaxLoc *SourceLocation
}
