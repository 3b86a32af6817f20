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

import "bytes"

// matchCode continues a fenced or indented code block.
func matchCode(p *lineParser) bool {
	b := p.container
	if b == nil {
		return false
	}
	if b.fenced {
		// Fenced code blocks always "continue" at descend time; the
		// closing fence is recognized in addLineText, once we know this
		// is the deepest open container for the line.
		p.ConsumeIndent(min(b.fenceIndent, p.Indent()))
		return true
	}
	// Indented code blocks require >= 4 columns of indentation (or a
	// blank line).
	if p.IsRestBlank() {
		return true
	}
	if p.Indent() < 4 {
		return false
	}
	p.ConsumeIndent(4)
	return true
}

func startFencedCode(p *lineParser) blockStartResult {
	if p.Indent() >= 4 {
		return blockStartNoMatch
	}
	save := *p
	fenceIndent := p.Indent()
	p.ConsumeIndent(fenceIndent)
	rest := p.BytesAfterIndent()
	if len(rest) == 0 || (rest[0] != '`' && rest[0] != '~') {
		*p = save
		return blockStartNoMatch
	}
	char := rest[0]
	n := 0
	for n < len(rest) && rest[n] == char {
		n++
	}
	if n < 3 {
		*p = save
		return blockStartNoMatch
	}
	infoStart := p.i + n
	infoRest := p.line[infoStart:]
	if char == '`' && bytes.IndexByte(infoRest, '`') >= 0 {
		*p = save
		return blockStartNoMatch
	}
	end := len(infoRest)
	for end > 0 && (infoRest[end-1] == '\n' || infoRest[end-1] == '\r') {
		end--
	}
	infoTrimEnd := end
	for infoTrimEnd > 0 && (infoRest[infoTrimEnd-1] == ' ' || infoRest[infoTrimEnd-1] == '\t') {
		infoTrimEnd--
	}
	infoTrimStart := 0
	for infoTrimStart < infoTrimEnd && (infoRest[infoTrimStart] == ' ' || infoRest[infoTrimStart] == '\t') {
		infoTrimStart++
	}

	b := p.openBlock(CodeKind)
	b.fenced = true
	b.fenceChar = char
	b.fenceLen = n
	b.fenceIndent = fenceIndent
	b.openFence = Span{Start: p.lineStart + p.i, End: p.lineStart + p.i + n}
	b.infoString = Span{Start: p.lineStart + infoStart + infoTrimStart, End: p.lineStart + infoStart + infoTrimEnd}
	info := bytes.TrimSpace(infoRest[:end])
	firstWord := info
	if i := bytes.IndexAny(info, " \t"); i >= 0 {
		firstWord = info[:i]
	}
	b.isMath = p.p.opts.EnableMath && string(firstWord) == "math"
	p.i = len(p.line) // consume whole opening-fence line
	return blockStartLineConsumed
}

// checkFencedCodeClose is called from addLineText, once an open fenced code
// block is the deepest container for the line, to see whether the current
// line is its closing fence; if so, it
// closes the block and reports that the line has been fully consumed.
func checkFencedCodeClose(p *lineParser, b *blockState) bool {
	indent := p.Indent()
	if indent >= 4 {
		return false
	}
	save := *p
	p.ConsumeIndent(indent)
	rest := p.BytesAfterIndent()
	n := 0
	for n < len(rest) && rest[n] == b.fenceChar {
		n++
	}
	if n < b.fenceLen {
		*p = save
		return false
	}
	afterFence := rest[n:]
	if !isBlankLine(afterFence) {
		*p = save
		return false
	}
	b.closeFence = Span{Start: p.lineStart + p.i, End: p.lineStart + p.i + n}
	closeBlock(b, nil, p.lineStart)
	p.container = nil
	return true
}

func startIndentedCode(p *lineParser) blockStartResult {
	if p.ContainerKind() == ParagraphKind {
		return blockStartNoMatch
	}
	if p.Indent() < 4 {
		return blockStartNoMatch
	}
	p.ConsumeIndent(4)
	b := p.openBlock(CodeKind)
	b.fenced = false
	return blockStartMatched
}

// onCloseCode trims the trailing blank lines from an indented code block
// (CommonMark 4.4, "final blank lines are not included").
func onCloseCode(parent, b *blockState, source []byte) {
	if b.fenced {
		return
	}
	for len(b.lineSpans) > 0 {
		last := b.lineSpans[len(b.lineSpans)-1]
		if !isBlankLine(last.Slice(source)) {
			break
		}
		b.lineSpans = b.lineSpans[:len(b.lineSpans)-1]
	}
}
