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
	"regexp"
)

// matchParagraphLazy implements paragraph continuation: a paragraph
// continues onto any non-blank line that [openNewBlocks] doesn't recognize
// as interrupting it (CommonMark's "paragraph continuation text", 4.8).
func matchParagraphLazy(p *lineParser) bool {
	return !p.IsRestBlank()
}

var linkRefDefRE = regexp.MustCompile(`(?s)^\[([^\]\n]{1,999})\]:[ \t]*\n?[ \t]*(<[^<>\n]*>|[^ \t\n]+)[ \t]*(?:\n?[ \t]*("[^"\n]*"|'[^'\n]*'|\([^()\n]*\)))?[ \t]*(\r?\n|$)`)

var footnoteDefStartRE = regexp.MustCompile(`^\[\^([^\]\s]+)\]:[ \t]?`)

var tableDelimRowRE = regexp.MustCompile(`^[ \t]*:?-+:?[ \t]*$`)

// onCloseParagraph rewrites a just-closed paragraph (or, via the setext
// code path, a still-Paragraph-shaped Heading before level assignment runs)
// into its final form: leading link reference definitions are split off as
// sibling [LinkReferenceDefinitionKind] blocks, a `[^id]:` prefix converts
// the whole block into a [FootnoteKind], and a two-line header+delimiter
// shape converts it into a [TableKind].
func onCloseParagraph(parent, b *blockState, source []byte) {
	if parent == nil || len(b.lineSpans) == 0 {
		return
	}

	if tryFootnoteDefinition(b, source) {
		return
	}
	if tryTable(parent, b, source) {
		return
	}
	extractLinkReferenceDefinitions(parent, b, source)
}

func tryFootnoteDefinition(b *blockState, source []byte) bool {
	first := b.lineSpans[0].Slice(source)
	m := footnoteDefStartRE.FindSubmatchIndex(first)
	if m == nil {
		return false
	}
	b.kind = FootnoteKind
	b.refLabel = string(first[m[2]:m[3]])
	b.lineSpans[0] = Span{Start: b.lineSpans[0].Start + m[1], End: b.lineSpans[0].End}
	return true
}

// tryTable recognizes a GFM pipe table: a header line, a delimiter line of
// the form `---|:--:|--:`, and zero or more body lines, replacing the
// paragraph with a [TableKind] tree.
func tryTable(parent, b *blockState, source []byte) bool {
	if len(b.lineSpans) < 2 {
		return false
	}
	header := b.lineSpans[0].Slice(source)
	delim := b.lineSpans[1].Slice(source)
	if !looksLikeTableDelimiter(delim) {
		return false
	}
	headerCells := splitTableRow(header)
	delimCells := splitTableRow(delim)
	if len(headerCells) == 0 || len(headerCells) != len(delimCells) {
		return false
	}
	aligns := make([]Alignment, len(delimCells))
	for i, c := range delimCells {
		c = bytes.TrimSpace(c)
		left := len(c) > 0 && c[0] == ':'
		right := len(c) > 0 && c[len(c)-1] == ':'
		switch {
		case left && right:
			aligns[i] = AlignCenter
		case left:
			aligns[i] = AlignLeft
		case right:
			aligns[i] = AlignRight
		default:
			aligns[i] = AlignNone
		}
	}

	b.kind = TableKind
	b.alignmentsTable = aligns

	rowSpans := append([]Span{b.lineSpans[0]}, b.lineSpans[2:]...)
	b.lineSpans = nil
	for _, rowSpan := range rowSpans {
		row := newBlockState(TableRowKind)
		row.start, row.end = rowSpan.Start, rowSpan.End
		row.open = false
		cells := splitTableRowSpans(rowSpan, source)
		for len(cells) < len(headerCells) {
			cells = append(cells, Span{Start: rowSpan.End, End: rowSpan.End})
		}
		for i := 0; i < len(headerCells); i++ {
			cell := newBlockState(TableCellKind)
			cell.start, cell.end = cells[i].Start, cells[i].End
			cell.open = false
			cell.lineSpans = []Span{cells[i]}
			row.children = append(row.children, cell)
		}
		b.children = append(b.children, row)
	}
	return true
}

func looksLikeTableDelimiter(line []byte) bool {
	cells := splitTableRow(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !tableDelimRowRE.Match(bytes.TrimSpace(c)) {
			return false
		}
	}
	return true
}

// splitTableRow splits a pipe-delimited row into cell byte slices,
// respecting a leading/trailing `|` and backslash-escaped pipes.
func splitTableRow(line []byte) [][]byte {
	line = bytes.TrimRight(line, "\r\n")
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}
	var cells [][]byte
	var cur []byte
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '\\' && i+1 < len(trimmed) {
			cur = append(cur, trimmed[i], trimmed[i+1])
			i++
			continue
		}
		if trimmed[i] == '|' {
			cells = append(cells, cur)
			cur = nil
			continue
		}
		cur = append(cur, trimmed[i])
	}
	cells = append(cells, cur)
	if len(cells) > 1 && len(bytes.TrimSpace(cells[0])) == 0 {
		cells = cells[1:]
	}
	if len(cells) > 1 && len(bytes.TrimSpace(cells[len(cells)-1])) == 0 {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// splitTableRowSpans is like splitTableRow but returns byte-offset spans
// into source instead of copied slices, so inline parsing can still see
// accurate positions.
func splitTableRowSpans(rowSpan Span, source []byte) []Span {
	line := rowSpan.Slice(source)
	raw := bytes.TrimRight(line, "\r\n")
	start := rowSpan.Start
	trimStart := 0
	for trimStart < len(raw) && (raw[trimStart] == ' ' || raw[trimStart] == '\t') {
		trimStart++
	}
	trimEnd := len(raw)
	for trimEnd > trimStart && (raw[trimEnd-1] == ' ' || raw[trimEnd-1] == '\t') {
		trimEnd--
	}
	raw = raw[trimStart:trimEnd]
	base := start + trimStart

	var spans []Span
	cellStart := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			continue
		}
		if raw[i] == '|' {
			spans = append(spans, Span{Start: base + cellStart, End: base + i})
			cellStart = i + 1
		}
	}
	spans = append(spans, Span{Start: base + cellStart, End: base + len(raw)})
	if len(spans) > 1 && spans[0].Len() == 0 {
		spans = spans[1:]
	}
	if len(spans) > 1 && spans[len(spans)-1].Len() == 0 {
		spans = spans[:len(spans)-1]
	}
	for i := range spans {
		s := spans[i].Slice(source)
		trimS := 0
		for trimS < len(s) && (s[trimS] == ' ' || s[trimS] == '\t') {
			trimS++
		}
		trimE := len(s)
		for trimE > trimS && (s[trimE-1] == ' ' || s[trimE-1] == '\t') {
			trimE--
		}
		spans[i] = Span{Start: spans[i].Start + trimS, End: spans[i].Start + trimE}
	}
	return spans
}

// extractLinkReferenceDefinitions splits zero or more leading
// `[label]: destination "title"` definitions off of b, inserting a
// LinkReferenceDefinitionKind sibling before b for each and shrinking b's
// remaining content to whatever paragraph text (if any) is left.
func extractLinkReferenceDefinitions(parent, b *blockState, source []byte) {
	idx := indexOfBlockInParent(parent, b)
	if idx < 0 {
		return
	}

	// Join the paragraph's lines back into one buffer view via spans so the
	// regex can match across the "title on next line" case; since spans are
	// not necessarily contiguous in source (each line keeps its own
	// indentation before it in the buffer), match line by line instead.
	var defs []*blockState
	lines := b.lineSpans
	for len(lines) > 0 {
		text := lines[0].Slice(source)
		m := linkRefDefRE.FindSubmatchIndex(text)
		if m == nil && len(lines) > 1 {
			// Try matching across the first two lines (title on its own
			// line).
			joined := append(append([]byte{}, text...), lines[1].Slice(source)...)
			m2 := linkRefDefRE.FindSubmatchIndex(joined)
			if m2 != nil && m2[1] >= len(text) {
				def := newLinkRefDefBlock(lines[0].Start, text, joined, source, m2)
				defs = append(defs, def)
				lines = lines[2:]
				continue
			}
		}
		if m == nil {
			break
		}
		def := newLinkRefDefBlock(lines[0].Start, text, text, source, m)
		defs = append(defs, def)
		lines = lines[1:]
	}
	if len(defs) == 0 {
		return
	}

	b.lineSpans = lines
	newSiblings := make([]*blockState, 0, len(defs)+1)
	newSiblings = append(newSiblings, defs...)
	if len(lines) > 0 {
		newSiblings = append(newSiblings, b)
	}
	parent.children = append(parent.children[:idx], append(newSiblings, parent.children[idx+1:]...)...)
}

func newLinkRefDefBlock(lineStart int, _, matchedAgainst, source []byte, m []int) *blockState {
	def := newBlockState(LinkReferenceDefinitionKind)
	def.open = false
	def.start = lineStart
	def.end = lineStart + m[1]
	label := normalizeLabelSpacing(string(matchedAgainst[m[2]:m[3]]))
	def.refLabel = label
	dest := trimAngleBrackets(string(matchedAgainst[m[4]:m[5]]))
	def.infoString = Span{Start: -1, End: -1} // unused for link ref defs
	def.destText = dest
	if m[6] >= 0 {
		title := string(matchedAgainst[m[6]:m[7]])
		def.titleText = title[1 : len(title)-1]
		def.hasTitle = true
	}
	return def
}

func trimAngleBrackets(s string) string {
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1]
	}
	return s
}

func indexOfBlockInParent(parent, b *blockState) int {
	for i, c := range parent.children {
		if c == b {
			return i
		}
	}
	return -1
}
