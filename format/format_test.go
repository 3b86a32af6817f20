// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package format_test

import (
	"bytes"
	"testing"

	"github.com/markdowntree/mdast"
	"github.com/markdowntree/mdast/format"
	"github.com/markdowntree/mdast/internal/fixtures"
)

// reparse formats doc and parses the result again, returning the
// second-generation document. A round trip through Format should be
// idempotent at the HTML-rendering level even where the exact Markdown
// text differs (e.g. reference-style links are rewritten inline).
func reparse(t *testing.T, doc *mdast.Document) *mdast.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := format.Format(&buf, doc); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out, err := mdast.Parse(buf.Bytes(), "", "test.md", mdast.DefaultOptions())
	if err != nil {
		t.Fatalf("reparse Parse: %v", err)
	}
	return out
}

func renderHTML(t *testing.T, doc *mdast.Document) string {
	t.Helper()
	var buf bytes.Buffer
	if err := mdast.RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	return buf.String()
}

func TestFormatIdempotent(t *testing.T) {
	for _, c := range fixtures.Cases() {
		c := c
		t.Run(c.Section+"/"+c.Name, func(t *testing.T) {
			doc, err := mdast.Parse([]byte(c.Markdown), "", "test.md", mdast.DefaultOptions())
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			roundTripped := reparse(t, doc)
			gotHTML := renderHTML(t, roundTripped)
			wantHTML := renderHTML(t, doc)
			if gotHTML != wantHTML {
				t.Errorf("round trip changed rendered HTML:\n got %q\nwant %q", gotHTML, wantHTML)
			}
		})
	}
}

func TestFormatHeading(t *testing.T) {
	doc, err := mdast.Parse([]byte("## Section Two {#sec-two}\n"), "", "test.md", mdast.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := format.Format(&buf, doc); err != nil {
		t.Fatalf("Format: %v", err)
	}
	got := buf.String()
	if !bytes.Contains([]byte(got), []byte("## Section Two {#")) {
		t.Errorf("Format() = %q, want heading with label suffix", got)
	}
}

func TestFormatTable(t *testing.T) {
	doc, err := mdast.Parse([]byte("| a | b |\n|:--|--:|\n| 1 | 2 |\n"), "", "test.md", mdast.DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := format.Format(&buf, doc); err != nil {
		t.Fatalf("Format: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"| a | b |", ":-- |", "--: |", "| 1 | 2 |"} {
		if !bytes.Contains([]byte(got), []byte(want)) {
			t.Errorf("Format() = %q, missing %q", got, want)
		}
	}
}
