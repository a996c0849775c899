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

import (
	"strings"
	"testing"

	"github.com/golangee/pymeta/parser"
	"github.com/golangee/pymeta/token"
)

func generate(t *testing.T, src string) (*Module, error) {
	t.Helper()

	file, buf, err := token.Lex("generator_test.rs", src)
	if err != nil {
		t.Fatal(err)
	}

	regions, err := parser.NewCodeRegionParser().Parse(buf)
	if err != nil {
		t.Fatal(err)
	}

	return Generate(file, "<test>", regions)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      string
		wantSpans int
		wantErr   string
	}{
		{
			name: "empty",
			text: "",
			want: "",
		},
		{
			name: "host code call",
			text: `let x = 1;`,
			want: `rust(Ident("let", __spans[0]), Ident("x", __spans[1]), ` +
				`Punct('=', "alone", __spans[2]), IntLiteral._new("1", 1, None, __spans[3]))` + "\n",
			wantSpans: 4,
		},
		{
			name:      "terminator only emits no-op",
			text:      `;`,
			want:      "pass\n",
			wantSpans: 0,
		},
		{
			name:      "python statement text",
			text:      `$x = [i for i in range(3)];`,
			want:      "x = [i for i in range(3)]\n",
			wantSpans: 0,
		},
		{
			name:      "fstring concat workaround",
			text:      `$msg = f~"hi {name}";`,
			want:      "msg = f\"hi {name}\"\n",
			wantSpans: 0,
		},
		{
			name: "statement with indent block",
			text: `$for i in range(3):{ emit($i$); };`,
			want: "for i in range(3):\n" +
				`    rust(Ident("emit", __spans[0]), Group("()", Tokens(Tokens((i), span=__spans[1])), __spans[2]))` + "\n" +
				"pass\n",
			wantSpans: 3,
		},
		{
			name: "empty indent block body",
			text: `$if x:{};`,
			want: "if x:\n" +
				"    pass\n" +
				"pass\n",
			wantSpans: 0,
		},
		{
			name: "host block scopes python",
			text: `unsafe { $print(1); }`,
			want: `with rust(Ident("unsafe", __spans[0]), Group("{}", span=__spans[1])):` + "\n" +
				"    print(1)\n",
			wantSpans: 2,
		},
		{
			name: "dynamic identifier",
			text: `fn $prefix$~_handler();`,
			want: `rust(Ident("fn", __spans[0]), Ident(f"{(prefix)}_handler", __spans[1]), ` +
				`Group("()", Tokens(), __spans[2]))` + "\n",
			wantSpans: 3,
		},
		{
			name: "escaped marker",
			text: `let a = <$>;`,
			want: `rust(Ident("let", __spans[0]), Ident("a", __spans[1]), ` +
				`Punct('=', "alone", __spans[2]), Punct('$', "alone", __spans[3]))` + "\n",
			wantSpans: 4,
		},
		{
			name: "empty inline expression",
			text: `take($$);`,
			want: `rust(Ident("take", __spans[0]), Group("()", ` +
				`Tokens(Tokens(None, span=__spans[1])), __spans[2]))` + "\n",
			wantSpans: 3,
		},
		{
			name: "literal kinds",
			text: `take('x', b"y", 1_000u32, 2.5);`,
			want: `rust(Ident("take", __spans[0]), Group("()", Tokens(` +
				`StrLiteral('x', "chr", __spans[1]), Punct(',', "alone", __spans[2]), ` +
				`BytesLiteral(b"y", "bytes", __spans[3]), Punct(',', "alone", __spans[4]), ` +
				`IntLiteral._new("1_000", 1_000, u32, __spans[5]), Punct(',', "alone", __spans[6]), ` +
				`FloatLiteral._new("2.5", 2.5, None, __spans[7])), __spans[8]))` + "\n",
			wantSpans: 9,
		},
		{
			name: "string literal transcription",
			text: `take(r"a\b");`,
			want: `rust(Ident("take", __spans[0]), Group("()", Tokens(` +
				`StrLiteral("a\\b", "str", __spans[1])), __spans[2]))` + "\n",
			wantSpans: 3,
		},
		{
			name:    "integer literal overflow",
			text:    `let x = 340282366920938463463374607431768211456;`,
			wantErr: "exceeds 128 bits",
		},
		{
			name:    "float literal overflow",
			text:    `$x = 1e999;`,
			wantErr: "not a finite number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			module, err := generate(t, tt.text)

			if tt.wantErr != "" {
				if err == nil {
					t.Errorf("expected error, but did not get one")
				} else if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Error(err)
				return
			}

			if got := module.Source.Code(); got != tt.want {
				t.Errorf("generated source:\n%s\nwant:\n%s", got, tt.want)
			}

			if tt.wantSpans > 0 && len(module.Spans) != tt.wantSpans {
				t.Errorf("span table has %d entries, want %d", len(module.Spans), tt.wantSpans)
			}
		})
	}
}

// Every segment of a host code argument list must point back at host
// source, so interpreter errors inside it can be mapped.
func TestGenerateTagsHostSegments(t *testing.T) {
	module, err := generate(t, `let x = $1 + 1$;`)
	if err != nil {
		t.Fatal(err)
	}

	if len(module.Spans) == 0 {
		t.Fatal("expected span table entries")
	}

	for i, span := range module.Spans {
		if span == nil {
			t.Errorf("span %d is nil", i)
		}
	}

	line := module.Source.Lines[0]

	var tagged int
	for _, seg := range line.Segments {
		if seg.SrcSpan != nil {
			tagged++
		}
	}

	if tagged == 0 {
		t.Error("no segment carries a source span")
	}
}

func TestExecutableFindModule(t *testing.T) {
	module, err := generate(t, `$x = 1;`)
	if err != nil {
		t.Fatal(err)
	}

	exe := &Executable{Main: module}

	if exe.FindModule("<test>") != module {
		t.Error("main module not found by filename")
	}

	if exe.FindModule("other.py") != nil {
		t.Error("foreign filename must not resolve")
	}
}
