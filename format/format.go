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

// Package format serializes a parsed [mdast.Document] back to Markdown
// text equivalent to the original source. It exists primarily as an
// idempotence oracle for tests: formatting a parsed document and
// re-parsing the result should produce the same tree.
package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/markdowntree/mdast"
)

// Format writes doc's tree to w as CommonMark/GFM Markdown.
func Format(w io.Writer, doc *mdast.Document) error {
	ww := &errWriter{w: w}
	fw := &formatter{w: ww}
	for i, c := range doc.Root.Children() {
		if i > 0 {
			ww.WriteString("\n")
		}
		fw.block(c, 0)
	}
	return ww.err
}

type formatter struct {
	w *errWriter
}

func (f *formatter) writeIndent(indent int) {
	f.w.WriteString(strings.Repeat(" ", indent))
}

func (f *formatter) block(n *mdast.Node, indent int) {
	switch n.Kind() {
	case mdast.ParagraphKind:
		f.writeIndent(indent)
		f.inlines(n)
		f.w.WriteString("\n")
	case mdast.HeadingKind:
		f.writeIndent(indent)
		f.w.WriteString(strings.Repeat("#", n.HeadingLevel()))
		f.w.WriteString(" ")
		f.inlines(n)
		if n.IsLabeled() {
			f.w.WriteString(" {#")
			f.w.WriteString(n.LabelText())
			f.w.WriteString("}")
		}
		f.w.WriteString("\n")
	case mdast.HorizontalLineKind:
		f.writeIndent(indent)
		f.w.WriteString("---\n")
	case mdast.BlockquoteKind:
		for i, c := range n.Children() {
			if i > 0 {
				f.writeIndent(indent)
				f.w.WriteString(">\n")
			}
			f.writeIndent(indent)
			f.w.WriteString("> ")
			f.block(c, 0)
		}
	case mdast.CodeKind:
		f.writeIndent(indent)
		fence := "```"
		f.w.WriteString(fence)
		f.w.WriteString(n.Syntax())
		f.w.WriteString("\n")
		for _, line := range strings.Split(n.Literal(), "\n") {
			f.writeIndent(indent)
			f.w.WriteString(line)
			f.w.WriteString("\n")
		}
		f.writeIndent(indent)
		f.w.WriteString(fence)
		f.w.WriteString("\n")
	case mdast.ListKind:
		for i, item := range n.Children() {
			if i > 0 && !n.IsTight() {
				f.w.WriteString("\n")
			}
			marker := "- "
			if n.IsOrderedList() {
				marker = strconv.Itoa(n.StartNumber()+i) + ". "
			}
			f.writeIndent(indent)
			f.w.WriteString(marker)
			if item.IsTaskList() {
				if item.IsChecked() {
					f.w.WriteString("[x] ")
				} else {
					f.w.WriteString("[ ] ")
				}
			}
			f.listItemBody(item, indent+len(marker))
		}
	case mdast.TableKind:
		f.table(n, indent)
	case mdast.LinkReferenceDefinitionKind:
		f.writeIndent(indent)
		f.w.WriteString("[")
		f.w.WriteString(n.Label())
		f.w.WriteString("]: ")
		f.w.WriteString(n.Destination())
		if n.Title() != "" {
			f.w.WriteString(` "`)
			f.w.WriteString(n.Title())
			f.w.WriteString(`"`)
		}
		f.w.WriteString("\n")
	case mdast.FootnoteKind:
		f.writeIndent(indent)
		f.w.WriteString("[^")
		f.w.WriteString(n.LabelText())
		f.w.WriteString("]: ")
		f.inlines(n)
		f.w.WriteString("\n")
	case mdast.MathKind:
		f.writeIndent(indent)
		f.w.WriteString("$$")
		f.w.WriteString(n.Literal())
		f.w.WriteString("$$\n")
	case mdast.HTMLKind:
		f.writeIndent(indent)
		f.w.WriteString(n.Literal())
		f.w.WriteString("\n")
	default:
		for _, c := range n.Children() {
			f.block(c, indent)
		}
	}
}

// listItemBody formats a list item's first block inline with its marker
// (tight-list shorthand) and any remaining blocks indented beneath it.
func (f *formatter) listItemBody(item *mdast.Node, contIndent int) {
	children := item.Children()
	if len(children) == 0 {
		f.w.WriteString("\n")
		return
	}
	if children[0].Kind() == mdast.ParagraphKind {
		f.inlines(children[0])
		f.w.WriteString("\n")
		children = children[1:]
	} else {
		f.w.WriteString("\n")
	}
	for _, c := range children {
		f.block(c, contIndent)
	}
}

func (f *formatter) table(n *mdast.Node, indent int) {
	rows := n.Children()
	aligns := n.Alignments()
	writeRow := func(row *mdast.Node) {
		f.writeIndent(indent)
		f.w.WriteString("|")
		for _, cell := range row.Children() {
			f.w.WriteString(" ")
			f.inlines(cell)
			f.w.WriteString(" |")
		}
		f.w.WriteString("\n")
	}
	if len(rows) == 0 {
		return
	}
	writeRow(rows[0])
	f.writeIndent(indent)
	f.w.WriteString("|")
	for i := range rows[0].Children() {
		var a mdast.Alignment
		if i < len(aligns) {
			a = aligns[i]
		}
		switch a {
		case mdast.AlignLeft:
			f.w.WriteString(" :-- |")
		case mdast.AlignCenter:
			f.w.WriteString(" :-: |")
		case mdast.AlignRight:
			f.w.WriteString(" --: |")
		default:
			f.w.WriteString(" --- |")
		}
	}
	f.w.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
}

func (f *formatter) inlines(n *mdast.Node) {
	for _, c := range n.Children() {
		f.inline(c)
	}
}

func (f *formatter) inline(n *mdast.Node) {
	switch n.Kind() {
	case mdast.TextKind:
		opts := n.TextOptions()
		if opts.Has(mdast.StrikethroughText) {
			f.w.WriteString("~~")
		}
		if opts.Has(mdast.BoldText) {
			f.w.WriteString("**")
		}
		if opts.Has(mdast.ItalicText) {
			f.w.WriteString("*")
		}
		f.w.WriteString(n.Literal())
		if opts.Has(mdast.ItalicText) {
			f.w.WriteString("*")
		}
		if opts.Has(mdast.BoldText) {
			f.w.WriteString("**")
		}
		if opts.Has(mdast.StrikethroughText) {
			f.w.WriteString("~~")
		}
	case mdast.CodeKind:
		f.w.WriteString("`")
		f.w.WriteString(n.Literal())
		f.w.WriteString("`")
	case mdast.LineBreakKind:
		if n.HardBreak() {
			f.w.WriteString("  \n")
		} else {
			f.w.WriteString("\n")
		}
	case mdast.LinkKind:
		f.w.WriteString("[")
		f.inlines(n)
		f.w.WriteString("](")
		f.w.WriteString(mdast.NormalizeURI(n.Destination()))
		if n.Title() != "" {
			f.w.WriteString(` "`)
			f.w.WriteString(n.Title())
			f.w.WriteString(`"`)
		}
		f.w.WriteString(")")
	case mdast.ImageKind:
		f.w.WriteString("![")
		f.inlines(n)
		f.w.WriteString("](")
		f.w.WriteString(mdast.NormalizeURI(n.Destination()))
		if n.Title() != "" {
			f.w.WriteString(` "`)
			f.w.WriteString(n.Title())
			f.w.WriteString(`"`)
		}
		f.w.WriteString(")")
	case mdast.FootnoteRefKind:
		f.w.WriteString("[^")
		f.w.WriteString(n.LabelText())
		f.w.WriteString("]")
	case mdast.MathKind:
		fence := "$"
		if !n.Inline() {
			fence = "$$"
		}
		f.w.WriteString(fence)
		f.w.WriteString(n.Literal())
		f.w.WriteString(fence)
	case mdast.HTMLKind:
		f.w.WriteString(n.Literal())
	case mdast.AnchorKind:
		f.w.WriteString("{#")
		f.w.WriteString(n.Label())
		f.w.WriteString("}")
	default:
		panic(fmt.Sprintf("format: unhandled inline kind %v", n.Kind()))
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	var n int
	n, w.err = w.w.Write(p)
	return n, w.err
}

func (w *errWriter) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	var n int
	n, w.err = io.WriteString(w.w, s)
	return n, w.err
}
