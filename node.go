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

// Package mdast parses CommonMark 0.30 documents, GitHub-Flavored tables,
// strikethrough and task lists, Pandoc-style footnotes, TeX math spans, and
// optional heading labels into an immutable abstract syntax tree.
package mdast

// Node is a single element of a parsed document. The zero value is not a
// valid Node; every Node is produced by [Parse], [BlockParser.NextBlock], or
// an [InlineParser]. A Node and its descendants are never mutated once
// returned to a caller: construction goes through a private builder
// ([nodeBuilder.finalize]) so the tree a caller observes is always
// complete, mirroring the teacher's builder-then-freeze Block/Inline split
// collapsed onto a single Kind sum type.
type Node struct {
	kind Kind
	span Span

	// pos is n's line/column extent, or an invalid SourceSpan if n was
	// synthesized (e.g. a PageBreak inserted by the multi-file driver).
	pos SourceSpan

	children []*Node

	// Heading
	level      int
	labeled    bool
	label      string
	labelText  string // the bare label/id as written (or synthesized), unscoped
	markerSpan SourceSpan // the leading `#` run, or the setext underline

	// Code / Math (fenced only; an indented code block has no delimiters)
	openFenceSpan  SourceSpan
	closeFenceSpan SourceSpan
	infoSpan       SourceSpan

	// Blockquote: one `>` delimiter span per content line.
	quoteMarkers []SourceSpan

	// List / ListItem
	ordered         bool
	startNumber     int
	tight           bool
	taskList        bool
	taskListChecked bool

	// Code / HTML
	inline bool
	syntax string

	// Text: openStyles[i]/closeStyles[i] are the delimiter spans that
	// applied the i'th style to this node (a Text node split across
	// several nested emphasis runs carries one pair per run).
	textOpts    TextOption
	spaceBefore bool
	spaceAfter  bool
	openStyles  []SourceSpan
	closeStyles []SourceSpan

	// LineBreak
	hard bool

	// Link / Image
	destination string
	title       string
	textSpan    SourceSpan // the link text / alt text between brackets
	urlSpan     SourceSpan // the destination+title, or the reference label

	// Table
	alignments []Alignment

	// literal is the raw text payload of a leaf node (Text, Code, HTML,
	// Math); it is empty for container kinds, whose text is reconstructed
	// by walking their children.
	literal string
}

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Span returns the byte range of source that produced n, or a span with
// IsValid() == false if n was synthesized (e.g. a PageBreak inserted by the
// multi-file driver).
func (n *Node) Span() Span { return n.span }

// Pos returns the line/column extent of n, or a SourceSpan with
// IsValid() == false if n was synthesized.
func (n *Node) Pos() SourceSpan { return n.pos }

// MarkerSpan returns the line/column span of a [HeadingKind] node's leading
// `#` run (or its setext underline), or an invalid SourceSpan if n is not a
// heading.
func (n *Node) MarkerSpan() SourceSpan { return n.markerSpan }

// OpenFenceSpan returns the line/column span of a fenced [CodeKind] or
// [MathKind] node's opening fence, or an invalid SourceSpan for an indented
// code block.
func (n *Node) OpenFenceSpan() SourceSpan { return n.openFenceSpan }

// CloseFenceSpan returns the line/column span of a fenced [CodeKind] or
// [MathKind] node's closing fence, or an invalid SourceSpan if the block was
// never explicitly closed or isn't fenced.
func (n *Node) CloseFenceSpan() SourceSpan { return n.closeFenceSpan }

// InfoSpan returns the line/column span of a fenced [CodeKind] node's info
// string, or an invalid SourceSpan if there is none.
func (n *Node) InfoSpan() SourceSpan { return n.infoSpan }

// QuoteMarkers returns the line/column span of each `>` delimiter in a
// [BlockquoteKind] node, one per content line, in document order.
func (n *Node) QuoteMarkers() []SourceSpan { return n.quoteMarkers }

// TextSpan returns the line/column span of a [LinkKind] or [ImageKind]
// node's bracketed text (or alt text).
func (n *Node) TextSpan() SourceSpan { return n.textSpan }

// URLSpan returns the line/column span of a [LinkKind] or [ImageKind]
// node's destination-and-title tail, or its collapsed/shortcut reference
// label.
func (n *Node) URLSpan() SourceSpan { return n.urlSpan }

// OpenStyleSpans returns the opening-delimiter span for each emphasis or
// strikethrough run applied to a [TextKind] node, parallel to
// [Node.CloseStyleSpans].
func (n *Node) OpenStyleSpans() []SourceSpan { return n.openStyles }

// CloseStyleSpans returns the closing-delimiter span for each emphasis or
// strikethrough run applied to a [TextKind] node, parallel to
// [Node.OpenStyleSpans].
func (n *Node) CloseStyleSpans() []SourceSpan { return n.closeStyles }

// ChildCount returns the number of children of n.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i'th child of n.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a read-only view of n's children.
func (n *Node) Children() []*Node { return n.children }

// HeadingLevel returns the heading level (1-6) for a [HeadingKind] node.
func (n *Node) HeadingLevel() int { return n.level }

// IsLabeled reports whether a [HeadingKind] node carries an explicit
// `{#label}` heading label, as opposed to one synthesized from its text.
// [Node.Label] is populated either way: every heading is registered in
// [Document.LabeledHeadings].
func (n *Node) IsLabeled() bool { return n.labeled }

// Label returns the canonical, per-file-scoped label key for a heading,
// footnote, footnote reference, or anchor (see canonicalLabel). It is
// suitable for building unique HTML ids across a merged multi-file
// document, but is not the bare label a document's source would spell;
// use [Node.LabelText] to write that back out.
func (n *Node) Label() string { return n.label }

// LabelText returns the bare, unscoped label/id text for a heading or
// footnote, exactly as written for an explicit `{#label}` or `[^id]`, or
// as synthesized (slugified heading text) when none was given. Unlike
// [Node.Label], it carries no working-path/file-name scoping, so it is
// what a formatter writes back into `{#...}`/`[^...]` source syntax.
func (n *Node) LabelText() string { return n.labelText }

// IsOrderedList reports whether a [ListKind] node is an ordered list.
func (n *Node) IsOrderedList() bool { return n.ordered }

// StartNumber returns the first number of an ordered [ListKind].
func (n *Node) StartNumber() int { return n.startNumber }

// IsTight reports whether a [ListKind] is a tight list (no <p> wrapping of
// its items' contents).
func (n *Node) IsTight() bool { return n.tight }

// IsTaskList reports whether a [ListItemKind] carries a `[ ]`/`[x]` marker.
func (n *Node) IsTaskList() bool { return n.taskList }

// IsChecked reports whether a task-list [ListItemKind] is checked.
func (n *Node) IsChecked() bool { return n.taskListChecked }

// Inline reports whether a [CodeKind] or [HTMLKind] node is inline (a code
// span / raw inline tag) rather than block-level (a code block / HTML
// block).
func (n *Node) Inline() bool { return n.inline }

// Syntax returns the fenced-code-block info string's first word, or "" if
// absent. A [MathKind] node produced from a ```math fenced block reports
// "".
func (n *Node) Syntax() string { return n.syntax }

// TextOptions returns the composable style flags of a [TextKind] node.
func (n *Node) TextOptions() TextOption { return n.textOpts }

// HardBreak reports whether a [LineBreakKind] is a hard line break.
func (n *Node) HardBreak() bool { return n.hard }

// Destination returns the resolved URL of a [LinkKind] or [ImageKind].
func (n *Node) Destination() string { return n.destination }

// Title returns the resolved title of a [LinkKind] or [ImageKind], or "".
func (n *Node) Title() string { return n.title }

// Alignments returns the per-column alignment of a [TableKind] node.
func (n *Node) Alignments() []Alignment { return n.alignments }

// Literal returns the literal text payload of a leaf node (Text, Code,
// HTML, Math). For container kinds it returns "".
func (n *Node) Literal() string { return n.literal }

// nodeBuilder accumulates mutable state while a Node's subtree is under
// construction; finalize freezes it into an immutable *Node.
type nodeBuilder struct {
	n Node
}

func newNodeBuilder(kind Kind) *nodeBuilder {
	return &nodeBuilder{n: Node{
		kind:           kind,
		span:           NullSpan(),
		pos:            NullSourceSpan(),
		markerSpan:     NullSourceSpan(),
		openFenceSpan:  NullSourceSpan(),
		closeFenceSpan: NullSourceSpan(),
		infoSpan:       NullSourceSpan(),
		textSpan:       NullSourceSpan(),
		urlSpan:        NullSourceSpan(),
	}}
}

func (b *nodeBuilder) setSpan(s Span) *nodeBuilder {
	b.n.span = s
	return b
}

func (b *nodeBuilder) addChild(c *Node) *nodeBuilder {
	b.n.children = append(b.n.children, c)
	return b
}

func (b *nodeBuilder) finalize() *Node {
	out := b.n
	return &out
}

// NewDocumentNode constructs a synthetic [DocumentKind] node from a flat
// slice of top-level children, for drivers (such as the multifile package)
// that assemble a document out of more than one parse.
func NewDocumentNode(children []*Node) *Node {
	b := newNodeBuilder(DocumentKind)
	for _, c := range children {
		b.addChild(c)
	}
	return b.finalize()
}

// NewPageBreakNode constructs a synthetic [PageBreakKind] marker node,
// used by the multifile driver to separate the content of successive
// files within one combined document.
func NewPageBreakNode() *Node {
	return newNodeBuilder(PageBreakKind).finalize()
}

// NewAnchorNode constructs a synthetic [AnchorKind] marker node labeled
// with label, used by the multifile driver to mark the start of each
// file's content so cross-file links can target it.
func NewAnchorNode(label string) *Node {
	b := newNodeBuilder(AnchorKind)
	b.n.label = label
	return b.finalize()
}
