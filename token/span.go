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

import "sort"

// A File is the shared, immutable source text that all spans of one
// lexer run point into. Line offsets are computed once on demand.
type File struct {
	Name string
	Src  string

	lineOffsets []int
}

// NewFile wraps the given source text.
func NewFile(name, src string) *File {
	return &File{Name: name, Src: src}
}

// Span returns a span over the byte range [begin, end) of this file.
func (f *File) Span(begin, end int) *Span {
	return &Span{fileRef: f, begin: begin, end: end}
}

// CallSite returns the span that stands in for the macro invocation as a
// whole. It is the fallback anchor for diagnostics that could not be
// mapped to anything more precise.
func (f *File) CallSite() *Span {
	return f.Span(0, len(f.Src))
}

// offsets returns the byte offset of the first character of each line.
func (f *File) offsets() []int {
	if f.lineOffsets == nil {
		offsets := []int{0}
		for i := 0; i < len(f.Src); i++ {
			if f.Src[i] == '\n' {
				offsets = append(offsets, i+1)
			}
		}
		f.lineOffsets = offsets
	}

	return f.lineOffsets
}

// resolve turns a byte offset into a Pos.
func (f *File) resolve(offset int) Pos {
	offsets := f.offsets()
	line := sort.Search(len(offsets), func(i int) bool { return offsets[i] > offset })

	return Pos{
		File:   f.Name,
		Line:   line,
		Col:    offset - offsets[line-1] + 1,
		Offset: offset,
	}
}

// Span is a byte range within a File. Resolving a byte offset into a
// line/column pair walks the line table, so the resolved positions are
// memoized; a Span is immutable apart from that cache.
//
// The zero Span (and a nil Span) resolves to zero positions, which makes
// spanless test tokens cheap to construct.
type Span struct {
	fileRef    *File
	begin, end int

	resolved         bool
	beginPos, endPos Pos
}

func (s *Span) memoize() {
	if s == nil || s.resolved || s.fileRef == nil {
		return
	}

	s.beginPos = s.fileRef.resolve(s.begin)
	s.endPos = s.fileRef.resolve(s.end)
	s.resolved = true
}

// Begin returns the resolved start position.
func (s *Span) Begin() Pos {
	if s == nil {
		return Pos{}
	}

	s.memoize()

	return s.beginPos
}

// End returns the resolved position one past the last covered byte.
func (s *Span) End() Pos {
	if s == nil {
		return Pos{}
	}

	s.memoize()

	return s.endPos
}

// File returns the file this span points into, or nil.
func (s *Span) File() *File {
	if s == nil {
		return nil
	}

	return s.fileRef
}

// Text returns the covered source text.
func (s *Span) Text() string {
	if s == nil || s.fileRef == nil {
		return ""
	}

	return s.fileRef.Src[s.begin:s.end]
}

// SrcSpan makes *Span usable as an embedded field: every token hands
// out its own span through this method. The method name deliberately
// differs from the embedded field name `Span`, which would otherwise
// shadow it.
func (s *Span) SrcSpan() *Span {
	return s
}

// Join returns the minimal span covering both s and other. A nil operand
// falls back to the other one; two nil operands join to nil. Spans of
// different files cannot be joined, the receiver wins.
func (s *Span) Join(other *Span) *Span {
	switch {
	case s == nil:
		return other
	case other == nil:
		return s
	case s.fileRef != other.fileRef:
		return s
	}

	begin, end := s.begin, s.end
	if other.begin < begin {
		begin = other.begin
	}

	if other.end > end {
		end = other.end
	}

	return &Span{fileRef: s.fileRef, begin: begin, end: end}
}

// String renders the span in the "file:line:col" format, mostly for test
// failure output.
func (s *Span) String() string {
	if s == nil {
		return "<no span>"
	}

	return s.Begin().String()
}
