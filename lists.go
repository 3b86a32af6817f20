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

// matchListItem continues a list item: the line must be indented at least
// as far as the item's content indent (the marker width plus the spaces
// after it, recorded in contentIndent when the item was opened).
func matchListItem(p *lineParser) bool {
	item := p.container
	if item == nil {
		return false
	}
	if p.IsRestBlank() {
		// Blank lines are handled by CommonMark's general blank-line
		// tolerance inside list items; a single blank continuation is
		// allowed as long as the item already has content.
		return len(item.children) > 0
	}
	want := item.contentIndent
	if p.Indent() < want {
		return false
	}
	p.ConsumeIndent(want)
	return true
}

func startListItem(p *lineParser) blockStartResult {
	if p.ContainerKind() == ParagraphKind {
		// Lists never interrupt a lazy paragraph continuation by
		// themselves; ordered lists additionally require start == 1 to
		// interrupt at all (CommonMark 5.2).
	}
	save := *p
	indent := p.Indent()
	if indent >= 4 {
		return blockStartNoMatch
	}
	p.ConsumeIndent(indent)
	rest := p.BytesAfterIndent()
	if len(rest) == 0 {
		*p = save
		return blockStartNoMatch
	}

	var ordered bool
	var delim byte
	var startNumber int
	n := 0

	switch {
	case rest[0] == '-' || rest[0] == '+' || rest[0] == '*':
		delim = rest[0]
		n = 1
	case isASCIIDigit(rest[0]):
		digits := 0
		for digits < len(rest) && isASCIIDigit(rest[digits]) && digits < 9 {
			digits++
		}
		if digits == 0 || digits >= len(rest) || (rest[digits] != '.' && rest[digits] != ')') {
			*p = save
			return blockStartNoMatch
		}
		startNumber = 0
		for _, c := range rest[:digits] {
			startNumber = startNumber*10 + int(c-'0')
		}
		ordered = true
		delim = rest[digits]
		n = digits + 1
	default:
		*p = save
		return blockStartNoMatch
	}

	if n >= len(rest) || (rest[n] != ' ' && rest[n] != '\t' && rest[n] != '\n' && rest[n] != '\r') {
		*p = save
		return blockStartNoMatch
	}

	if p.ContainerKind() == ParagraphKind && (!ordered || startNumber != 1) {
		*p = save
		return blockStartNoMatch
	}
	// A bare marker line (nothing after the required space) cannot
	// interrupt a paragraph either, and starts an item with no indent
	// beyond the marker.
	afterMarker := rest[n:]
	markerOnly := isBlankLine(afterMarker)
	if p.ContainerKind() == ParagraphKind && markerOnly {
		*p = save
		return blockStartNoMatch
	}

	p.Advance(n)
	spaceCount := 0
	for spaceCount < len(p.BytesAfterIndent()) && spaceCount < 4 && (p.BytesAfterIndent()[spaceCount] == ' ' || p.BytesAfterIndent()[spaceCount] == '\t') {
		spaceCount++
	}
	if markerOnly {
		spaceCount = 1
	} else if spaceCount == 0 {
		spaceCount = 1
	}
	p.ConsumeIndent(spaceCount)
	contentIndent := n + spaceCount
	if markerOnly {
		contentIndent = n + 1
	}

	// Ensure the list itself exists as a container with matching ordered/delim.
	parent := p.container
	if parent == nil {
		parent = p.root
	}
	list := parent.lastChild()
	if parent.kind == ListKind {
		// The open list itself matched this line; its item did not.
		list = parent
	}
	needNewList := list == nil || !list.open || list.kind != ListKind ||
		list.ordered != ordered || list.delimChar != delim
	if needNewList {
		list = p.openBlock(ListKind)
		list.ordered = ordered
		list.delimChar = delim
		list.startNumber = startNumber
	} else {
		p.container = list
	}

	item := p.openBlock(ListItemKind)
	item.contentIndent = contentIndent
	item.delimChar = delim

	// Task list checkbox: `[ ]` or `[x]`/`[X]` immediately after the marker.
	rest = p.BytesAfterIndent()
	if p.p.opts.EnableTaskLists && len(rest) >= 3 && rest[0] == '[' && rest[2] == ']' && (rest[1] == ' ' || rest[1] == 'x' || rest[1] == 'X') {
		if len(rest) == 3 || rest[3] == ' ' || rest[3] == '\t' {
			item.taskList = true
			item.taskChecked = rest[1] == 'x' || rest[1] == 'X'
			p.Advance(3)
			if rest := p.BytesAfterIndent(); len(rest) > 0 && rest[0] == ' ' {
				p.Advance(1)
			}
		}
	}

	return blockStartMatched
}

// onCloseList determines whether the list is tight (no child paragraph is
// surrounded by a blank line, and no blank line separates list items that
// both have block content) per CommonMark 5.3.
func onCloseList(parent, b *blockState, source []byte) {
	tight := true
	for i, item := range b.children {
		if item.lastLineBlank && i != len(b.children)-1 {
			tight = false
		}
		for j, child := range item.children {
			if child.lastLineBlank && (j != len(item.children)-1 || i != len(b.children)-1) {
				tight = false
			}
		}
	}
	b.tight = tight
}
