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

// NoIndent marks a line without a recorded raw indentation.
const NoIndent = -1

type builderLine struct {
	segments []*Segment
	// indent is the raw indentation as observed in the host source, or
	// NoIndent. Raw indents are only relative: the block minimum is
	// subtracted again on Finish.
	indent int
}

type blockItem struct {
	// exactly one of line and block is set
	line  *builderLine
	block *indentBlock
}

type indentBlock struct {
	items []blockItem
	// indent is the fixed step this block adds to all contained lines.
	indent int
}

func (b *indentBlock) newLine(indent int) {
	b.items = append(b.items, blockItem{line: &builderLine{indent: indent}})
}

func (b *indentBlock) lastLine() *builderLine {
	if len(b.items) == 0 {
		panic("appending to an empty indent block")
	}

	line := b.items[len(b.items)-1].line
	if line == nil {
		panic("the last element is not a line")
	}

	return line
}

// SourceBuilder assembles generated lines into nested indent blocks.
// On Finish every block is dedented to its own minimum raw indent and
// shifted by its fixed step plus the ambient indentation of the
// enclosing block.
type SourceBuilder struct {
	stack []*indentBlock
}

func NewSourceBuilder() *SourceBuilder {
	return &SourceBuilder{stack: []*indentBlock{{}}}
}

func (b *SourceBuilder) top() *indentBlock {
	return b.stack[len(b.stack)-1]
}

// NewLine starts a new line, optionally with a raw indent (NoIndent for
// none).
func (b *SourceBuilder) NewLine(indent int) {
	b.top().newLine(indent)
}

// Append adds a segment to the current line.
func (b *SourceBuilder) Append(seg *Segment) {
	line := b.top().lastLine()
	line.segments = append(line.segments, seg)
}

// PopLastSegmentIf removes the last segment of the current line if pred
// accepts it. Used to drop a trailing argument separator.
func (b *SourceBuilder) PopLastSegmentIf(pred func(*Segment) bool) {
	line := b.top().lastLine()
	if n := len(line.segments); n > 0 && pred(line.segments[n-1]) {
		line.segments = line.segments[:n-1]
	}
}

// PushIndentBlock opens a nested block whose lines are shifted by the
// given fixed step.
func (b *SourceBuilder) PushIndentBlock(step int) {
	block := &indentBlock{indent: step}
	top := b.top()
	top.items = append(top.items, blockItem{block: block})
	b.stack = append(b.stack, block)
}

// PopIndentBlock closes the innermost block.
func (b *SourceBuilder) PopIndentBlock() {
	if len(b.stack) <= 1 {
		panic("root indent block can't be popped (PushIndentBlock / PopIndentBlock mismatch?)")
	}

	b.stack = b.stack[:len(b.stack)-1]
}

// Finish resolves all indentation and splices the blocks into a flat
// line list. Runs of blank lines collapse to at most one.
func (b *SourceBuilder) Finish() *Source {
	if len(b.stack) != 1 {
		panic("PushIndentBlock / PopIndentBlock mismatch")
	}

	var lines []*Line
	b.stack[0].process(&lines, 0)

	collapsed := make([]*Line, 0, len(lines))
	wasEmpty := false

	for _, line := range lines {
		isEmpty := line.isEmpty()
		if !isEmpty || !wasEmpty {
			collapsed = append(collapsed, line)
		}

		wasEmpty = isEmpty
	}

	return &Source{Lines: collapsed}
}

// process resolves this block into final lines. lastIndent is the
// resolved indentation of the line preceding the block, which becomes
// the ambient base for everything inside.
func (b *indentBlock) process(out *[]*Line, lastIndent int) {
	minIndent := 0
	found := false

	for _, it := range b.items {
		if it.line != nil && it.line.indent != NoIndent {
			if !found || it.line.indent < minIndent {
				minIndent = it.line.indent
			}

			found = true
		}
	}

	// strip the common raw indent, then shift by step and ambient
	for _, it := range b.items {
		if it.line == nil {
			continue
		}

		rel := 0
		if it.line.indent != NoIndent {
			rel = it.line.indent - minIndent
		}

		it.line.indent = lastIndent + b.indent + rel
	}

	current := lastIndent + b.indent

	for _, it := range b.items {
		if it.line != nil {
			*out = append(*out, &Line{Segments: it.line.segments, Indent: it.line.indent})
			current = it.line.indent

			continue
		}

		it.block.process(out, current)
	}
}
