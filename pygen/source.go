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

// Package pygen turns code regions into executable Python source text.
// Every emitted fragment remembers the host span it came from, so that
// interpreter failures can be mapped back onto host source positions.
package pygen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golangee/pymeta/token"
)

// A Segment is a fragment of generated Python, optionally tagged with
// the host span it originates from. Synthetic glue like commas carries
// no span.
type Segment struct {
	Code    string
	SrcSpan *token.Span
}

func NewSegment(code string, srcSpan *token.Span) *Segment {
	return &Segment{Code: code, SrcSpan: srcSpan}
}

// JoinSrcSpans reduces the host spans of the given segments pairwise:
// two present spans join to their minimal covering span, a present one
// wins over an absent one. The result is nil if no segment carries a
// span.
func JoinSrcSpans(segments []*Segment) *token.Span {
	var joined *token.Span
	for _, seg := range segments {
		joined = joined.Join(seg.SrcSpan)
	}

	return joined
}

// A Line is one generated source line with its final indentation.
type Line struct {
	Segments []*Segment
	Indent   int
}

func (l *Line) isEmpty() bool {
	return len(l.Segments) == 0
}

func (l *Line) addTo(sb *strings.Builder) {
	for i := 0; i < l.Indent; i++ {
		sb.WriteByte(' ')
	}

	for _, seg := range l.Segments {
		sb.WriteString(seg.Code)
	}

	sb.WriteByte('\n')
}

// Source is the fully assembled generated module text.
type Source struct {
	Lines []*Line
}

// Code renders the plain Python source text.
func (s *Source) Code() string {
	sb := &strings.Builder{}
	for _, line := range s.Lines {
		line.addTo(sb)
	}

	return sb.String()
}

// DiagnosticDump renders the source with a line number gutter, used as
// the secondary diagnostic on any failure.
func (s *Source) DiagnosticDump() string {
	if len(s.Lines) == 0 {
		return "<Python source is empty>"
	}

	width := len(strconv.Itoa(len(s.Lines)))
	sb := &strings.Builder{}

	for i, line := range s.Lines {
		fmt.Fprintf(sb, "%*d | ", width, i+1)
		line.addTo(sb)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
