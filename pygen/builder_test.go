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

import "testing"

func line(b *SourceBuilder, indent int, code string) {
	b.NewLine(indent)
	b.Append(NewSegment(code, nil))
}

func TestSourceBuilderIndentResolution(t *testing.T) {
	b := NewSourceBuilder()
	line(b, NoIndent, "a")

	// raw indents 4, 4, 8 dedent to the block minimum and shift by the
	// step, yielding 4, 4, 8 under a step of 4
	b.PushIndentBlock(4)
	line(b, 4, "b")
	line(b, 4, "c")
	line(b, 8, "d")
	b.PopIndentBlock()

	line(b, NoIndent, "e")

	src := b.Finish()

	wantIndents := []int{0, 4, 4, 8, 0}
	wantCodes := []string{"a", "b", "c", "d", "e"}

	if len(src.Lines) != len(wantIndents) {
		t.Fatalf("got %d lines, want %d", len(src.Lines), len(wantIndents))
	}

	for i, l := range src.Lines {
		if l.Indent != wantIndents[i] || l.Segments[0].Code != wantCodes[i] {
			t.Errorf("line %d: indent %d code %q, want %d %q",
				i, l.Indent, l.Segments[0].Code, wantIndents[i], wantCodes[i])
		}
	}
}

func TestSourceBuilderNestedBlocks(t *testing.T) {
	b := NewSourceBuilder()
	line(b, NoIndent, "if a:")

	b.PushIndentBlock(4)
	line(b, NoIndent, "if b:")

	b.PushIndentBlock(4)
	line(b, NoIndent, "x")
	b.PopIndentBlock()

	b.PopIndentBlock()

	src := b.Finish()

	wantIndents := []int{0, 4, 8}
	for i, l := range src.Lines {
		if l.Indent != wantIndents[i] {
			t.Errorf("line %d: indent %d, want %d", i, l.Indent, wantIndents[i])
		}
	}
}

func TestSourceBuilderBlankLineCollapse(t *testing.T) {
	b := NewSourceBuilder()
	line(b, NoIndent, "a")
	b.NewLine(NoIndent)
	b.NewLine(NoIndent)
	line(b, NoIndent, "b")

	src := b.Finish()

	if len(src.Lines) != 3 {
		t.Fatalf("got %d lines, want 3 (blank run collapsed)", len(src.Lines))
	}

	if got := src.Code(); got != "a\n\nb\n" {
		t.Errorf("code %q, want %q", got, "a\n\nb\n")
	}
}

func TestSourceBuilderPopLastSegmentIf(t *testing.T) {
	b := NewSourceBuilder()
	b.NewLine(NoIndent)
	b.Append(NewSegment("f(", nil))
	b.Append(NewSegment("x", nil))
	b.Append(NewSegment(", ", nil))
	b.PopLastSegmentIf(func(seg *Segment) bool { return seg.Code == ", " })
	b.PopLastSegmentIf(func(seg *Segment) bool { return seg.Code == ", " })
	b.Append(NewSegment(")", nil))

	if got := b.Finish().Code(); got != "f(x)\n" {
		t.Errorf("code %q, want %q", got, "f(x)\n")
	}
}

func TestDiagnosticDump(t *testing.T) {
	empty := &Source{}
	if got := empty.DiagnosticDump(); got != "<Python source is empty>" {
		t.Errorf("empty dump %q", got)
	}

	b := NewSourceBuilder()
	for i := 0; i < 10; i++ {
		line(b, NoIndent, "x")
	}

	src := b.Finish()
	dump := src.DiagnosticDump()

	wantFirst := " 1 | x"
	wantLast := "10 | x"

	lines := splitLines(dump)
	if lines[0] != wantFirst || lines[len(lines)-1] != wantLast {
		t.Errorf("dump gutter: first %q last %q, want %q / %q",
			lines[0], lines[len(lines)-1], wantFirst, wantLast)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0

	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}

	return append(lines, s[start:])
}
