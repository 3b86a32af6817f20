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
)

// blockState is the mutable, parser-private representation of an
// in-progress block. Once closed, [closeBlock] freezes its extent and
// [buildNode] converts it (and its descendants) into immutable [Node]s.
// This mirrors the teacher's mutable-Block-until-close, frozen-after
// design, generalized to the single Kind sum type.
type blockState struct {
	kind      Kind
	open      bool
	startLine int
	start     int
	end       int // -1 while open

	children  []*blockState
	lineSpans []Span // raw content lines for acceptsLines kinds

	lastLineBlank bool

	// Heading
	level        int
	headingLabel string
	headingSet   bool
	markerSpan   Span // the `#` run, or the setext underline

	// Blockquote: one `>` delimiter span per content line.
	quoteMarkers []Span

	// List / ListItem
	ordered       bool
	startNumber   int
	delimChar     byte
	tight         bool
	taskList      bool
	taskChecked   bool
	contentIndent int // ListItemKind: indent of content relative to line start

	// Code
	fenced      bool
	fenceChar   byte
	fenceLen    int
	fenceIndent int
	infoString  Span
	isMath      bool
	openFence   Span
	closeFence  Span

	// HTML block
	htmlCondition    int
	htmlClosePending bool
	inline           bool // HTMLKind / CodeKind: inline vs block-level (always false from block parsing)

	// LinkReferenceDefinition / Footnote
	refLabel  string
	destText  string
	titleText string
	hasTitle  bool

	// Table
	alignmentsTable []Alignment
}

// documentRootKind is the sentinel kind a per-call root blockState starts
// life as, before the first matched block start overwrites it in place.
const documentRootKind = invalidKind

func newBlockState(kind Kind) *blockState {
	return &blockState{
		kind: kind, open: true, end: -1,
		markerSpan: NullSpan(), openFence: NullSpan(), closeFence: NullSpan(),
	}
}

func (b *blockState) lastChild() *blockState {
	if len(b.children) == 0 {
		return nil
	}
	return b.children[len(b.children)-1]
}

// closeBlock closes b (a child of parent, or nil if b is a per-call root)
// and every open descendant, applying each kind's onClose hook bottom-up.
func closeBlock(b *blockState, source []byte, end int) {
	closeBlockIn(nil, b, source, end)
}

func closeBlockIn(parent, b *blockState, source []byte, end int) {
	if !b.open {
		return
	}
	if child := b.lastChild(); child != nil {
		closeBlockIn(b, child, source, end)
	}
	b.open = false
	if b.end < 0 {
		b.end = end
	}
	if rule, ok := blockRules[b.kind]; ok && rule.onClose != nil {
		rule.onClose(parent, b, source)
	}
}

// blockRule describes how a block kind participates in the phase-1 ladder.
type blockRule struct {
	// match attempts to continue this block kind given the current line in
	// p; it advances p's cursor past any required container markers
	// (blockquote `>`, list item indent) on success.
	match func(p *lineParser) bool
	// acceptsLines reports whether raw line text is appended directly to
	// this block (as opposed to it only ever containing other blocks).
	acceptsLines bool
	// onClose runs once, when the block is closed: tight/loose list
	// determination, trailing blank-line trim on indented code,
	// paragraph -> link-reference/footnote/table extraction. parent is nil
	// when b is a per-call root block with no in-tree parent.
	onClose func(parent, b *blockState, source []byte)
}

var blockRules map[Kind]blockRule

func init() {
	blockRules = map[Kind]blockRule{
		documentRootKind: {
			match: func(p *lineParser) bool { return true },
		},
		BlockquoteKind: {
			match: matchBlockquote,
		},
		ListKind: {
			match:   func(p *lineParser) bool { return true },
			onClose: onCloseList,
		},
		ListItemKind: {
			match: matchListItem,
		},
		HeadingKind: {
			match:        func(p *lineParser) bool { return false },
			acceptsLines: true,
		},
		ParagraphKind: {
			match:        matchParagraphLazy,
			acceptsLines: true,
			onClose:      onCloseParagraph,
		},
		CodeKind: {
			match:        matchCode,
			acceptsLines: true,
			onClose:      onCloseCode,
		},
		HTMLKind: {
			match:        matchHTMLBlock,
			acceptsLines: true,
		},
		HorizontalLineKind: {
			match: func(p *lineParser) bool { return false },
		},
	}
}

// lineParser is the cursor used while scanning a single input line against
// the open block stack and the block-start grammar.
type lineParser struct {
	p    *BlockParser
	root *blockState

	line      []byte
	lineStart int
	i         int // byte offset within line past consumed indentation/markers

	container *blockState

	// quoteMarker is the span of the `>` delimiter most recently consumed
	// by matchBlockquote against the current line, or NullSpan if none has
	// been consumed yet this line.
	quoteMarker Span
}

func newLineParser(p *BlockParser, root *blockState, line []byte) *lineParser {
	lp := &lineParser{p: p, root: root}
	lp.reset(0, line)
	return lp
}

func (lp *lineParser) reset(lineStart int, line []byte) {
	lp.lineStart = lineStart
	lp.line = line
	lp.i = 0
	lp.container = nil
	lp.quoteMarker = NullSpan()
}

// BytesAfterIndent returns the line bytes after consumed indentation.
func (lp *lineParser) BytesAfterIndent() []byte { return lp.line[lp.i:] }

func (lp *lineParser) IsRestBlank() bool { return isBlankLine(lp.BytesAfterIndent()) }

func (lp *lineParser) Indent() int { return indentLength(lp.BytesAfterIndent()) }

func (lp *lineParser) Advance(n int) { lp.i += n }

func (lp *lineParser) ConsumeIndent(n int) {
	rest := lp.BytesAfterIndent()
	consumed := 0
	for consumed < n && len(rest) > 0 {
		switch rest[0] {
		case ' ':
			consumed++
		case '\t':
			consumed += tabStopSize
		default:
			return
		}
		rest = rest[1:]
		lp.i++
	}
}

func (lp *lineParser) ContainerKind() Kind {
	if lp.container == nil {
		return documentRootKind
	}
	return lp.container.kind
}

// openBlock closes any open last child of container and opens a new block
// of kind as its child — or, if container is the not-yet-committed root,
// overwrites the root's own kind in place.
func (lp *lineParser) openBlock(kind Kind) *blockState {
	container := lp.container
	if container == nil {
		container = lp.root
	}
	if child := container.lastChild(); child != nil && child.open {
		closeBlock(child, nil, lp.lineStart)
	}
	if container == lp.root && container.kind == documentRootKind && len(container.children) == 0 {
		container.kind = kind
		container.startLine = lp.p.lineno
		container.start = lp.lineStart + lp.i
		lp.container = container
		return container
	}
	nb := newBlockState(kind)
	nb.startLine = lp.p.lineno
	nb.start = lp.lineStart + lp.i
	container.children = append(container.children, nb)
	lp.container = nb
	return nb
}

func descendOpenBlocks(p *lineParser) (allMatched bool) {
	p.container = nil
	child := p.root
	for {
		rule, ok := blockRules[child.kind]
		parent := p.container
		p.container = child
		if !ok || rule.match == nil || !rule.match(p) {
			p.container = parent
			return false
		}
		if child.kind == BlockquoteKind {
			child.quoteMarkers = append(child.quoteMarkers, p.quoteMarker)
		}
		child = child.lastChild()
		if child == nil || !child.open {
			return true
		}
	}
}

func openNewBlocks(p *lineParser, allMatched bool) (hasText bool) {
	if len(p.line) == 0 {
		closeBlock(p.root, nil, p.lineStart)
		p.container = nil
		return false
	}

	if !allMatched {
		defer func() {
			if !p.IsRestBlank() {
				if tip := findTip(p.root); tip != nil && tip.kind == ParagraphKind {
					p.container = tip
					return
				}
			}
			if p.container == nil {
				closeBlock(p.root, nil, p.lineStart)
			} else if child := p.container.lastChild(); child != nil {
				closeBlock(child, nil, p.lineStart)
			}
		}()
	}

openingLoop:
	for p.root.open && (p.ContainerKind() == ParagraphKind || !blockRules[p.ContainerKind()].acceptsLines) {
		for _, start := range blockStarts {
			switch start(p) {
			case blockStartMatched:
				continue openingLoop
			case blockStartLineConsumed:
				return false
			}
		}
		return true
	}
	return true
}

func findTip(b *blockState) *blockState {
	for b != nil && b.open {
		if child := b.lastChild(); child != nil {
			b = child
			continue
		}
		return b
	}
	return b
}

func addLineText(p *lineParser) {
	isBlank := p.IsRestBlank()
	container := p.container
	if container == nil {
		container = p.root
	}
	if child := container.lastChild(); child != nil && isBlank {
		child.lastLineBlank = true
	}
	lastLineBlank := isBlank && !(p.ContainerKind() == BlockquoteKind ||
		p.ContainerKind() == CodeKind ||
		(p.ContainerKind() == ListItemKind && len(container.children) == 0))
	container.lastLineBlank = lastLineBlank

	if container.kind == CodeKind && container.fenced && checkFencedCodeClose(p, container) {
		return
	}

	rule := blockRules[p.ContainerKind()]
	switch {
	case rule.acceptsLines:
		start := p.lineStart + p.i
		container.lineSpans = append(container.lineSpans, Span{Start: start, End: p.lineStart + len(p.line)})
		if container.kind == HTMLKind && container.htmlClosePending {
			closeBlock(container, nil, p.lineStart+len(p.line))
		}
	case !isBlank:
		p.openBlock(ParagraphKind)
		p.ConsumeIndent(p.Indent())
		if p.container == nil {
			return
		}
		start := p.lineStart + p.i
		p.container.lineSpans = append(p.container.lineSpans, Span{Start: start, End: p.lineStart + len(p.line)})
	}
}

type blockStartResult int

const (
	blockStartNoMatch blockStartResult = iota
	blockStartMatched
	blockStartLineConsumed
)

var blockStarts []func(p *lineParser) blockStartResult

func init() {
	blockStarts = []func(p *lineParser) blockStartResult{
		startBlockquote,
		startATXHeading,
		startFencedCode,
		startHTMLBlock,
		startThematicBreakOrSetext,
		startListItem,
		startIndentedCode,
	}
}

func matchBlockquote(p *lineParser) bool {
	p.ConsumeIndent(min(p.Indent(), 3))
	rest := p.BytesAfterIndent()
	if len(rest) == 0 || rest[0] != '>' {
		return false
	}
	markerStart := p.lineStart + p.i
	p.Advance(1)
	p.quoteMarker = Span{Start: markerStart, End: markerStart + 1}
	if rest := p.BytesAfterIndent(); len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t') {
		p.ConsumeIndent(1)
	}
	return true
}

func startBlockquote(p *lineParser) blockStartResult {
	if p.Indent() >= 4 {
		return blockStartNoMatch
	}
	save := *p
	if !matchBlockquote(p) {
		*p = save
		return blockStartNoMatch
	}
	marker := p.quoteMarker
	b := p.openBlock(BlockquoteKind)
	b.quoteMarkers = append(b.quoteMarkers, marker)
	return blockStartMatched
}

func startATXHeading(p *lineParser) blockStartResult {
	if p.Indent() >= 4 {
		return blockStartNoMatch
	}
	save := *p
	p.ConsumeIndent(p.Indent())
	rest := p.BytesAfterIndent()
	n := 0
	for n < len(rest) && rest[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		*p = save
		return blockStartNoMatch
	}
	if n < len(rest) && rest[n] != ' ' && rest[n] != '\t' && rest[n] != '\r' && rest[n] != '\n' {
		*p = save
		return blockStartNoMatch
	}
	markerSpan := Span{Start: p.lineStart + p.i, End: p.lineStart + p.i + n}
	p.Advance(n)
	rest = p.BytesAfterIndent()
	j := 0
	for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
		j++
	}
	contentStart := p.lineStart + p.i + j

	lineBytes := p.line
	cEnd := len(lineBytes)
	for cEnd > 0 && (lineBytes[cEnd-1] == '\n' || lineBytes[cEnd-1] == '\r') {
		cEnd--
	}
	k := cEnd
	for k > p.i+n+j && (lineBytes[k-1] == ' ' || lineBytes[k-1] == '\t') {
		k--
	}
	closeEnd := k
	for closeEnd > p.i+n+j && lineBytes[closeEnd-1] == '#' {
		closeEnd--
	}
	if closeEnd < k && (closeEnd == p.i+n+j || lineBytes[closeEnd-1] == ' ' || lineBytes[closeEnd-1] == '\t') {
		k = closeEnd
		for k > p.i+n+j && (lineBytes[k-1] == ' ' || lineBytes[k-1] == '\t') {
			k--
		}
	}
	contentEnd := p.lineStart + k
	if contentEnd < contentStart {
		contentEnd = contentStart
	}
	end := p.lineStart + len(p.line)

	b := p.openBlock(HeadingKind)
	b.level = n
	b.markerSpan = markerSpan
	b.lineSpans = []Span{{Start: contentStart, End: contentEnd}}
	if p.p.opts.EnableHeadingLabels {
		parseHeadingLabel(b, p.p.buf)
	}
	closeBlock(b, nil, end)
	p.container = nil
	return blockStartLineConsumed
}

// parseHeadingLabel extracts a trailing `{#label}` from a heading's
// content span, per the optional heading-label extension.
func parseHeadingLabel(b *blockState, source []byte) {
	if len(b.lineSpans) == 0 {
		return
	}
	span := b.lineSpans[0]
	content := span.Slice(source)
	trimmed := bytes.TrimRight(content, " \t")
	if len(trimmed) < 4 || trimmed[len(trimmed)-1] != '}' {
		return
	}
	idx := bytes.LastIndexByte(trimmed, '{')
	if idx < 0 || idx+1 >= len(trimmed) || trimmed[idx+1] != '#' {
		return
	}
	label := trimmed[idx+2 : len(trimmed)-1]
	if len(label) == 0 || bytes.ContainsAny(label, " \t") {
		return
	}
	newEnd := span.Start + idx
	for newEnd > span.Start && (source[newEnd-1] == ' ' || source[newEnd-1] == '\t') {
		newEnd--
	}
	b.lineSpans[0] = Span{Start: span.Start, End: newEnd}
	b.headingLabel = string(label)
	b.headingSet = true
}

func startThematicBreakOrSetext(p *lineParser) blockStartResult {
	if p.Indent() >= 4 {
		return blockStartNoMatch
	}
	save := *p
	p.ConsumeIndent(p.Indent())
	rest := p.BytesAfterIndent()

	if p.ContainerKind() == ParagraphKind && len(rest) > 0 && (rest[0] == '=' || rest[0] == '-') {
		marker := rest[0]
		n := 0
		for n < len(rest) && rest[n] == marker {
			n++
		}
		j := n
		for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
			j++
		}
		if j >= len(rest) || rest[j] == '\n' || rest[j] == '\r' {
			para := p.container
			if para != nil && para.open && para.kind == ParagraphKind {
				underlineStart := p.lineStart + p.i
				closeBlock(para, nil, p.lineStart+len(p.line))
				para.kind = HeadingKind
				para.markerSpan = Span{Start: underlineStart, End: underlineStart + n}
				if marker == '=' {
					para.level = 1
				} else {
					para.level = 2
				}
				p.container = nil
				return blockStartLineConsumed
			}
		}
	}
	*p = save

	if len(rest) == 0 {
		return blockStartNoMatch
	}
	marker := rest[0]
	if marker != '*' && marker != '-' && marker != '_' {
		return blockStartNoMatch
	}
	count := 0
	ok := true
	for _, c := range rest {
		switch {
		case c == marker:
			count++
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		default:
			ok = false
		}
		if !ok {
			break
		}
	}
	if !ok || count < 3 {
		*p = save
		return blockStartNoMatch
	}
	b := p.openBlock(HorizontalLineKind)
	closeBlock(b, nil, p.lineStart+len(p.line))
	p.container = nil
	return blockStartLineConsumed
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
