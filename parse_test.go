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
	"testing"
)

func mustParse(tb testing.TB, source string) *Document {
	tb.Helper()
	doc, err := Parse([]byte(source), "", "test.md", DefaultOptions())
	if err != nil {
		tb.Fatalf("Parse: %v", err)
	}
	return doc
}

func findKind(n *Node, kind Kind) *Node {
	if n.Kind() == kind {
		return n
	}
	for _, c := range n.Children() {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestParseHeadings(t *testing.T) {
	doc := mustParse(t, "# Title\n\nSecond\n-------\n")
	if got := doc.Root.ChildCount(); got != 2 {
		t.Fatalf("root has %d children, want 2", got)
	}
	h1 := doc.Root.Child(0)
	if h1.Kind() != HeadingKind || h1.HeadingLevel() != 1 {
		t.Errorf("first child = %v level %d, want HeadingKind level 1", h1.Kind(), h1.HeadingLevel())
	}
	h2 := doc.Root.Child(1)
	if h2.Kind() != HeadingKind || h2.HeadingLevel() != 2 {
		t.Errorf("second child = %v level %d, want HeadingKind level 2", h2.Kind(), h2.HeadingLevel())
	}
}

func TestParseHeadingLabel(t *testing.T) {
	doc := mustParse(t, "## Section Two {#sec-two}\n")
	h := doc.Root.Child(0)
	if !h.IsLabeled() {
		t.Fatalf("heading not labeled")
	}
	if got, want := h.Label(), explicitHeadingLabelKey("sec-two", "", "test.md"); got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
	if _, ok := doc.LabeledHeadings[h.Label()]; !ok {
		t.Errorf("heading not registered in Document.LabeledHeadings")
	}
	text := findKind(h, TextKind)
	if text == nil || text.Literal() != "Section Two" {
		t.Errorf("heading text = %+v, want \"Section Two\"", text)
	}
}

func TestParseBlockquote(t *testing.T) {
	doc := mustParse(t, "> one\n> two\n")
	bq := doc.Root.Child(0)
	if bq.Kind() != BlockquoteKind {
		t.Fatalf("root child = %v, want BlockquoteKind", bq.Kind())
	}
	if bq.ChildCount() != 1 || bq.Child(0).Kind() != ParagraphKind {
		t.Fatalf("blockquote children = %v", bq.Children())
	}
}

func TestParseTightList(t *testing.T) {
	doc := mustParse(t, "- one\n- two\n")
	list := doc.Root.Child(0)
	if list.Kind() != ListKind {
		t.Fatalf("root child = %v, want ListKind", list.Kind())
	}
	if !list.IsTight() {
		t.Error("list should be tight")
	}
	if list.ChildCount() != 2 {
		t.Fatalf("list has %d items, want 2", list.ChildCount())
	}
}

func TestParseLooseList(t *testing.T) {
	doc := mustParse(t, "- one\n\n- two\n")
	list := doc.Root.Child(0)
	if list.IsTight() {
		t.Error("list should be loose")
	}
}

func TestParseOrderedListStart(t *testing.T) {
	doc := mustParse(t, "3. one\n4. two\n")
	list := doc.Root.Child(0)
	if !list.IsOrderedList() || list.StartNumber() != 3 {
		t.Errorf("ordered=%v start=%d, want true 3", list.IsOrderedList(), list.StartNumber())
	}
}

func TestParseTaskList(t *testing.T) {
	doc := mustParse(t, "- [ ] todo\n- [x] done\n")
	list := doc.Root.Child(0)
	item0, item1 := list.Child(0), list.Child(1)
	if !item0.IsTaskList() || item0.IsChecked() {
		t.Errorf("item0 task=%v checked=%v, want true false", item0.IsTaskList(), item0.IsChecked())
	}
	if !item1.IsTaskList() || !item1.IsChecked() {
		t.Errorf("item1 task=%v checked=%v, want true true", item1.IsTaskList(), item1.IsChecked())
	}
}

func TestParseFencedCode(t *testing.T) {
	doc := mustParse(t, "```go\nfunc f() {}\n```\n")
	code := doc.Root.Child(0)
	if code.Kind() != CodeKind {
		t.Fatalf("root child = %v, want CodeKind", code.Kind())
	}
	if code.Syntax() != "go" {
		t.Errorf("Syntax() = %q, want \"go\"", code.Syntax())
	}
	if code.Literal() != "func f() {}" {
		t.Errorf("Literal() = %q, want \"func f() {}\"", code.Literal())
	}
}

func TestParseMathFence(t *testing.T) {
	doc := mustParse(t, "```math\na^2+b^2=c^2\n```\n")
	m := doc.Root.Child(0)
	if m.Kind() != MathKind || m.Inline() {
		t.Fatalf("root child = %v inline=%v, want block MathKind", m.Kind(), m.Inline())
	}
	if m.Literal() != "a^2+b^2=c^2" {
		t.Errorf("Literal() = %q", m.Literal())
	}
}

func TestParseInlineMath(t *testing.T) {
	doc := mustParse(t, "Energy $E=mc^2$ here.\n")
	p := doc.Root.Child(0)
	m := findKind(p, MathKind)
	if m == nil || !m.Inline() || m.Literal() != "E=mc^2" {
		t.Fatalf("math node = %+v", m)
	}
}

func TestParseEmphasis(t *testing.T) {
	doc := mustParse(t, "*em* and **strong**\n")
	p := doc.Root.Child(0)
	var opts []TextOption
	for _, c := range p.Children() {
		if c.Kind() == TextKind {
			opts = append(opts, c.TextOptions())
		}
	}
	if len(opts) < 2 {
		t.Fatalf("not enough text nodes: %d", len(opts))
	}
	if !opts[0].Has(ItalicText) {
		t.Errorf("first text run not italic: %v", opts[0])
	}
	foundBold := false
	for _, o := range opts {
		if o.Has(BoldText) {
			foundBold = true
		}
	}
	if !foundBold {
		t.Errorf("no bold text run found among %v", opts)
	}
}

func TestParseStrikethrough(t *testing.T) {
	doc := mustParse(t, "~~gone~~\n")
	p := doc.Root.Child(0)
	text := findKind(p, TextKind)
	if text == nil || !text.TextOptions().Has(StrikethroughText) {
		t.Fatalf("text node = %+v", text)
	}
}

func TestParseLinkReferenceDefinition(t *testing.T) {
	doc := mustParse(t, "[a][x]\n\n[x]: /a \"title\"\n")
	p := doc.Root.Child(0)
	link := findKind(p, LinkKind)
	if link == nil {
		t.Fatalf("no link found")
	}
	if link.Destination() != "/a" || link.Title() != "title" {
		t.Errorf("link dest=%q title=%q", link.Destination(), link.Title())
	}
}

func TestParseForwardReference(t *testing.T) {
	doc := mustParse(t, "[a][x]\n\n[x]: /a\n")
	p := doc.Root.Child(0)
	link := findKind(p, LinkKind)
	if link == nil || link.Destination() != "/a" {
		t.Fatalf("forward reference did not resolve: %+v", link)
	}
}

func TestParseFootnote(t *testing.T) {
	doc := mustParse(t, "See it.[^1]\n\n[^1]: Explained here.\n")
	p := doc.Root.Child(0)
	ref := findKind(p, FootnoteRefKind)
	if ref == nil {
		t.Fatalf("no footnote reference found")
	}
	if _, ok := doc.Footnotes[footnoteLabelKey("1", "", "test.md")]; !ok {
		t.Errorf("footnote definition not registered")
	}
}

func TestParseTable(t *testing.T) {
	doc := mustParse(t, "| a | b |\n|:--|--:|\n| 1 | 2 |\n")
	tbl := doc.Root.Child(0)
	if tbl.Kind() != TableKind {
		t.Fatalf("root child = %v, want TableKind", tbl.Kind())
	}
	if tbl.ChildCount() != 2 {
		t.Fatalf("table has %d rows, want 2", tbl.ChildCount())
	}
	aligns := tbl.Alignments()
	if len(aligns) != 2 || aligns[0] != AlignLeft || aligns[1] != AlignRight {
		t.Errorf("Alignments() = %v", aligns)
	}
}

func TestParseHTMLBlock(t *testing.T) {
	doc := mustParse(t, "<div>\n  <p>raw</p>\n</div>\n")
	h := doc.Root.Child(0)
	if h.Kind() != HTMLKind || h.Inline() {
		t.Fatalf("root child = %v inline=%v, want block HTMLKind", h.Kind(), h.Inline())
	}
}
