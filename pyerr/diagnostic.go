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

package pyerr

import (
	"fmt"

	"github.com/golangee/pymeta/pygen"
	"github.com/golangee/pymeta/token"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	return [...]string{"error", "warning", "note"}[s]
}

// A Diagnostic is one message for the host compiler to render. Span is
// nil when the message anchors at the macro call site.
type Diagnostic struct {
	Severity Severity
	Span     *token.Span
	Message  string
}

// repeatCutoff is how many identical consecutive frames are written out
// before the rest of the run collapses into a repeat note.
const repeatCutoff = 3

// Render turns an interpreter failure into the diagnostics of one
// expansion: the primary error at the best mapped host span, traceback
// or syntax location notes, and a dump of the generated source. A
// failure that cannot be mapped anchors at the macro call site.
func Render(err *PythonError, exe *pygen.Executable) []Diagnostic {
	errText := fmt.Sprintf("%c%s: %s", token.Marker, err.Class, err.Msg)
	fallback := callSite(exe)

	var diags []Diagnostic

	switch {
	case len(err.Stack) > 0:
		span := err.Stack[0].Location.SrcSpan()
		if span == nil {
			span = fallback
		}

		diags = append(diags, Diagnostic{
			Severity: Error,
			Span:     span,
			Message:  errText,
		})
		diags = append(diags, Diagnostic{
			Severity: Note,
			Message:  "Traceback (most recent call first):",
		})
		diags = append(diags, renderStack(err.Stack)...)

	case err.SyntaxLoc != nil:
		loc := err.SyntaxLoc

		span := loc.SrcSpan()
		if span == nil {
			span = fallback
		}

		diags = append(diags, Diagnostic{
			Severity: Error,
			Span:     span,
			Message:  errText,
		})

		msg := fmt.Sprintf("File %q, line %d", loc.Filename(), loc.StartLine)
		if span := loc.SrcSpan(); span != nil {
			msg += fmt.Sprintf(" (Rust line %d)", span.Begin().Line)
		}

		diags = append(diags, Diagnostic{Severity: Note, Message: msg})

	default:
		diags = append(diags, Diagnostic{Severity: Error, Span: fallback, Message: errText})
	}

	if exe != nil && exe.Main != nil {
		diags = append(diags, Diagnostic{
			Severity: Warning,
			Message: fmt.Sprintf("PyMeta source dump of %q:\n%s",
				exe.Main.Filename, exe.Main.Source.DiagnosticDump()),
		})
	}

	return diags
}

// callSite returns the whole-invocation span that anchors diagnostics
// which could not be mapped to anything more precise.
func callSite(exe *pygen.Executable) *token.Span {
	if exe == nil || exe.Main == nil || exe.Main.HostFile == nil {
		return nil
	}

	return exe.Main.HostFile.CallSite()
}

// renderStack writes one note per frame. A run of identical frames is
// cut off after repeatCutoff entries, the remainder collapses into a
// single repeat note, mirroring Python's own traceback formatting.
func renderStack(stack []*FrameSummary) []Diagnostic {
	var diags []Diagnostic

	var lastFrame *FrameSummary

	repeating := 0

	for i := 0; i < len(stack); i++ {
		frame := stack[i]

		if frame.equal(lastFrame) {
			repeating++

			if repeating == repeatCutoff {
				for i+1 < len(stack) && stack[i+1].equal(lastFrame) {
					repeating++
					i++
				}

				notShown := repeating + 1 - repeatCutoff
				plural := ""
				if notShown > 1 {
					plural = "s"
				}

				diags = append(diags, Diagnostic{
					Severity: Note,
					Message:  fmt.Sprintf("|  [Previous line repeated %d more time%s]", notShown, plural),
				})

				continue
			}
		} else {
			repeating = 0
		}

		lastFrame = frame

		if span := frame.Location.SrcSpan(); span != nil {
			diags = append(diags, Diagnostic{
				Severity: Note,
				Span:     span,
				Message: fmt.Sprintf("|  File %q, line %d (Rust line %d), in %s",
					frame.Location.Filename(), frame.Location.StartLine,
					span.Begin().Line, frame.Name),
			})

			continue
		}

		diags = append(diags, Diagnostic{
			Severity: Note,
			Message: fmt.Sprintf("|  File %q, line %d, in %s",
				frame.Location.Filename(), frame.Location.StartLine, frame.Name),
		})
	}

	return diags
}
