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
	"strings"
)

// nulReplacement is U+FFFD REPLACEMENT CHARACTER, substituted for every NUL
// byte in parsed text per CommonMark 2.3 ("an insecure character").
const nulReplacement = "�"

// buildNode converts a closed blockState tree into its immutable Node
// form, registering link reference definitions, footnote definitions, and
// labeled headings into p's lookup tables as it goes (first definition
// wins, CommonMark 4.7). Container leaves that require a second,
// reference-aware pass (paragraphs, headings, table cells, footnote
// bodies) are left holding raw source text in Literal; [InlineParser.RewriteTree]
// performs that second pass once every root block in the document has been
// registered, so a reference definition may follow its first use.
func buildNode(root *blockState, source []byte, ip *InlineParser, p *BlockParser) *Node {
	pidx := newPosIndex(source, root.startLine-1) // startLine counts from 1
	return convertBlock(root, source, p, pidx)
}

func convertBlock(b *blockState, source []byte, p *BlockParser, pidx *posIndex) *Node {
	nb := newNodeBuilder(b.kind)
	nb.setSpan(Span{Start: b.start, End: b.end})
	nb.n.pos = pidx.span(Span{Start: b.start, End: b.end})

	switch b.kind {
	case HeadingKind:
		nb.n.level = b.level
		nb.n.literal = joinLines(b.lineSpans, source)
		nb.n.markerSpan = pidx.span(b.markerSpan)
		if b.headingSet {
			nb.n.labeled = true
			nb.n.labelText = b.headingLabel
			nb.n.label = explicitHeadingLabelKey(b.headingLabel, p.workingPath, p.fileName)
		} else {
			nb.n.labeled = false
			nb.n.labelText = slugifyHeadingText(nb.n.literal)
			nb.n.label = synthesizedHeadingLabelKey(nb.n.literal, p.workingPath, p.fileName)
		}
		finished := nb.finalize()
		if p.labeledHeadings != nil {
			if _, exists := p.labeledHeadings[finished.label]; !exists {
				p.labeledHeadings[finished.label] = finished
			}
		}
		return finished

	case ParagraphKind:
		nb.n.literal = joinLines(b.lineSpans, source)

	case FootnoteKind:
		nb.n.literal = joinLines(b.lineSpans, source)
		nb.n.labelText = b.refLabel
		nb.n.label = footnoteLabelKey(b.refLabel, p.workingPath, p.fileName)

	case TableCellKind:
		nb.n.literal = joinLines(b.lineSpans, source)

	case ListKind:
		nb.n.ordered = b.ordered
		nb.n.startNumber = b.startNumber
		nb.n.tight = b.tight
		for _, c := range b.children {
			nb.addChild(convertBlock(c, source, p, pidx))
		}

	case ListItemKind:
		nb.n.taskList = b.taskList
		nb.n.taskListChecked = b.taskChecked
		for _, c := range b.children {
			nb.addChild(convertBlock(c, source, p, pidx))
		}

	case TableKind:
		nb.n.alignments = b.alignmentsTable
		for _, c := range b.children {
			nb.addChild(convertBlock(c, source, p, pidx))
		}

	case CodeKind:
		nb.n.inline = b.inline
		literal := joinLines(b.lineSpans, source)
		syntax := firstInfoWord(b.infoString, source)
		nb.n.openFenceSpan = pidx.span(b.openFence)
		nb.n.closeFenceSpan = pidx.span(b.closeFence)
		nb.n.infoSpan = pidx.span(b.infoString)
		if b.isMath {
			nb.n.kind = MathKind
			nb.n.literal = literal
		} else {
			nb.n.syntax = syntax
			nb.n.literal = literal
		}

	case HTMLKind:
		nb.n.inline = b.inline
		nb.n.literal = joinLines(b.lineSpans, source)

	case BlockquoteKind:
		for _, s := range b.quoteMarkers {
			nb.n.quoteMarkers = append(nb.n.quoteMarkers, pidx.span(s))
		}
		for _, c := range b.children {
			nb.addChild(convertBlock(c, source, p, pidx))
		}

	case LinkReferenceDefinitionKind:
		nb.n.label = b.refLabel
		nb.n.destination = b.destText
		if b.hasTitle {
			nb.n.title = b.titleText
		}
		finished := nb.finalize()
		if p.refs != nil {
			if _, exists := p.refs[b.refLabel]; !exists {
				p.refs[b.refLabel] = LinkDefinition{
					Destination:  b.destText,
					Title:        b.titleText,
					TitlePresent: b.hasTitle,
				}
			}
		}
		return finished

	case HorizontalLineKind:
		// no payload

	default: // DocumentKind and any other pure container
		for _, c := range b.children {
			nb.addChild(convertBlock(c, source, p, pidx))
		}
	}

	finished := nb.finalize()
	if b.kind == FootnoteKind && p.footnotes != nil {
		if _, exists := p.footnotes[finished.label]; !exists {
			p.footnotes[finished.label] = finished
		}
	}
	return finished
}

// joinLines reassembles a block's raw content lines (each already stripped
// of its opening indentation/container markers by the phase-1 ladder) into
// a single string, separated by '\n' regardless of the source's original
// line ending style.
func joinLines(spans []Span, source []byte) string {
	if len(spans) == 0 {
		return ""
	}
	var buf strings.Builder
	for i, s := range spans {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(trimEOL(s.Slice(source)))
	}
	return stripNUL(buf.String())
}

func stripNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", nulReplacement)
}

func trimEOL(line []byte) []byte {
	return bytes.TrimRight(line, "\r\n")
}

func firstInfoWord(span Span, source []byte) string {
	if span.Start < 0 || span.End < 0 || span.Start >= span.End {
		return ""
	}
	info := bytes.TrimSpace(span.Slice(source))
	if i := bytes.IndexAny(info, " \t"); i >= 0 {
		info = info[:i]
	}
	return string(info)
}
