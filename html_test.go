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

package mdast

import (
	"bytes"
	"testing"

	"github.com/markdowntree/mdast/internal/fixtures"
	"github.com/markdowntree/mdast/internal/normhtml"
)

func TestRenderHTMLFixtures(t *testing.T) {
	for _, c := range fixtures.Cases() {
		c := c
		t.Run(c.Section+"/"+c.Name, func(t *testing.T) {
			doc, err := Parse([]byte(c.Markdown), "", "test.md", DefaultOptions())
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			var buf bytes.Buffer
			if err := RenderHTML(&buf, doc); err != nil {
				t.Fatalf("RenderHTML: %v", err)
			}
			got := normhtml.NormalizeHTML(buf.Bytes())
			want := normhtml.NormalizeHTML([]byte(c.HTML))
			if !bytes.Equal(got, want) {
				t.Errorf("RenderHTML(%q) =\n%s\nwant (normalized)\n%s", c.Markdown, got, want)
			}
		})
	}
}

func TestRenderHTMLSoftBreak(t *testing.T) {
	doc, err := Parse([]byte("one\ntwo\n"), "", "test.md", DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, tc := range []struct {
		behavior SoftBreakBehavior
		want     string
	}{
		{SoftBreakPreserve, "one\ntwo"},
		{SoftBreakSpace, "one two"},
		{SoftBreakHarden, "one<br>\ntwo"},
	} {
		r := &HTMLRenderer{SoftBreakBehavior: tc.behavior}
		var buf bytes.Buffer
		if err := r.Render(&buf, doc); err != nil {
			t.Fatalf("Render: %v", err)
		}
		got := buf.String()
		if !bytes.Contains([]byte(got), []byte(tc.want)) {
			t.Errorf("behavior %v: Render() = %q, want substring %q", tc.behavior, got, tc.want)
		}
	}
}

func TestRenderHTMLIgnoreRaw(t *testing.T) {
	doc, err := Parse([]byte("plain <span>raw</span> text\n"), "", "test.md", DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := &HTMLRenderer{IgnoreRaw: true}
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("<span>")) {
		t.Errorf("Render() with IgnoreRaw kept raw HTML: %q", buf.String())
	}
}

func TestRenderHTMLFilterTag(t *testing.T) {
	doc, err := Parse([]byte("<script>alert(1)</script>\n\ntext\n"), "", "test.md", DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("<script>")) {
		t.Errorf("default filter let <script> through: %q", buf.String())
	}
}

func TestRenderHTMLEscaping(t *testing.T) {
	doc, err := Parse([]byte("a < b & c > d\n"), "", "test.md", DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"&lt;", "&amp;", "&gt;"} {
		if !bytes.Contains([]byte(got), []byte(want)) {
			t.Errorf("Render() = %q, missing escaped %q", got, want)
		}
	}
}
