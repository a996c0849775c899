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

import "testing"

func lexTokens(t *testing.T, src string) *TokenBuffer {
	t.Helper()

	_, buf, err := Lex("buffer_test.rs", src)
	if err != nil {
		t.Fatal(err)
	}

	return buf
}

func TestTokenBufferCursor(t *testing.T) {
	buf := lexTokens(t, "a b c")

	if buf.Len() != 3 || buf.Pos() != 0 {
		t.Fatalf("fresh buffer: len %d pos %d", buf.Len(), buf.Pos())
	}

	if got := buf.Current().(*Ident).Name; got != "a" {
		t.Errorf("current %q, want a", got)
	}

	if got := buf.Peek(2).(*Ident).Name; got != "c" {
		t.Errorf("peek(2) %q, want c", got)
	}

	if buf.Peek(3) != nil || buf.Peek(-1) != nil {
		t.Errorf("out of range peeks must be nil")
	}

	clone := buf.Clone()
	clone.Seek(2)

	if buf.Pos() != 0 {
		t.Errorf("clone seek moved the original cursor")
	}

	if got := clone.ReadOne().(*Ident).Name; got != "c" {
		t.Errorf("read %q, want c", got)
	}

	if !clone.Exhausted() || clone.ReadOne() != nil {
		t.Errorf("exhausted buffer must read nil")
	}

	if clone.Seek(1) || clone.SetPos(-1) || clone.SetPos(4) {
		t.Errorf("invalid moves must report false")
	}

	if buf.Seeked(5) != nil {
		t.Errorf("invalid seeked must be nil")
	}

	if !buf.HasNMore(3) || buf.HasNMore(4) {
		t.Errorf("exactly 3 tokens remain at the start")
	}

	if clone.HasNMore(1) {
		t.Errorf("an exhausted buffer has no more tokens")
	}

	if got := buf.Seeked(1).Current().(*Ident).Name; got != "b" {
		t.Errorf("seeked(1) current %q, want b", got)
	}
}

func TestMarkerPredicates(t *testing.T) {
	buf := lexTokens(t, "$x$ ; :{} <$>")

	if !buf.IsMarkerStart() || !buf.IsMarkerEnd() {
		t.Errorf("unescaped $ must be marker start and end")
	}

	buf.Seek(3)

	if !buf.IsTerminator() {
		t.Errorf("expected terminator at ;")
	}

	buf.Seek(1)

	if !buf.IsIndentBlock() {
		t.Errorf("expected indent block at :{}")
	}

	buf.Seek(2)

	if !buf.IsMarkerEscape() {
		t.Errorf("expected marker escape at <$>")
	}

	if buf.IsMarkerStart() {
		t.Errorf("the < of an escape is not a marker start")
	}

	escaped := buf.ReadEscapedMarker()
	if escaped.Char != Marker || escaped.Spacing != Alone {
		t.Errorf("escaped marker is %q %v", escaped.Char, escaped.Spacing)
	}

	if got := escaped.SrcSpan().Text(); got != "<$>" {
		t.Errorf("escape span covers %q, want <$>", got)
	}

	if !buf.Exhausted() {
		t.Errorf("escape must consume all three tokens")
	}
}

func TestMarkerEscapeNeedsJointSpacing(t *testing.T) {
	buf := lexTokens(t, "< $ >")

	if buf.IsMarkerEscape() {
		t.Errorf("spaced < $ > is not an escape")
	}

	buf.Seek(1)

	if !buf.IsMarkerStart() {
		t.Errorf("the $ of a spaced run is an ordinary marker")
	}
}

func TestTruncatedMarkerEscape(t *testing.T) {
	buf := lexTokens(t, "<$")

	if buf.IsMarkerEscape() {
		t.Errorf("a truncated escape is ordinary punctuation")
	}
}

func TestDiagnosticSpan(t *testing.T) {
	buf := lexTokens(t, "ab")

	if got := buf.DiagnosticSpan().Text(); got != "ab" {
		t.Errorf("diagnostic span %q, want ab", got)
	}

	buf.Seek(1)

	if got := buf.DiagnosticSpan().Text(); got != "ab" {
		t.Errorf("diagnostic span at the end %q, want previous token", got)
	}

	empty := NewTokenBuffer(nil)
	if empty.DiagnosticSpan() != nil {
		t.Errorf("empty buffer has no diagnostic span")
	}
}
