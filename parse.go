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
	"fmt"
	"io"
)

// tabStopSize is the multiple of columns that a tab advances to.
// https://spec.commonmark.org/0.30/#tabs
const tabStopSize = 4

// BlockParser reads a stream of bytes and emits top-level ("root") block
// subtrees one at a time, deferring inline parsing until a full block's
// extent is known (CommonMark's two-phase recommended parsing strategy).
// Use [NewBlockParser] to construct one, or call [Parse] for a one-shot API.
type BlockParser struct {
	buf      []byte
	offset   int64
	parsePos int
	lineno   int

	r   io.Reader
	err error

	opts Options

	// workingPath and fileName scope footnote and heading label keys to
	// the file being parsed (spec section 6), so that merging documents
	// parsed from different files never collides their labels.
	workingPath string
	fileName    string

	refs            ReferenceMap
	footnotes       map[string]*Node
	labeledHeadings map[string]*Node
}

// NewBlockParser returns a BlockParser that reads Markdown source from r.
// workingPath and fileName scope the labels of headings and footnotes this
// parser registers; callers that only ever parse a single, self-contained
// document may pass "" for both.
func NewBlockParser(r io.Reader, workingPath, fileName string, opts Options) *BlockParser {
	return &BlockParser{
		r:               r,
		opts:            opts,
		workingPath:     workingPath,
		fileName:        fileName,
		refs:            make(ReferenceMap),
		footnotes:       make(map[string]*Node),
		labeledHeadings: make(map[string]*Node),
	}
}

// NextBlock returns the next top-level block, or an error wrapping io.EOF
// once the stream is exhausted.
func (p *BlockParser) NextBlock() (*Node, error) {
	var line []byte
	for {
		line = p.readline()
		if len(line) == 0 {
			if p.err == io.EOF {
				return nil, io.EOF
			}
			return nil, p.err
		}
		if !isBlankLine(line) {
			break
		}
		p.offset += int64(p.parsePos)
		p.buf = p.buf[p.parsePos:]
		p.parsePos = 0
	}

	root := newBlockState(documentRootKind)
	root.startLine = p.lineno
	bp := newLineParser(p, root, line)
	hasText := openNewBlocks(bp, true)
	if !root.open {
		n := p.finishRoot(root)
		return n, nil
	}
	if hasText {
		addLineText(bp)
	}

	for {
		lineStart := p.parsePos
		bp.reset(lineStart, p.readline())

		allMatched := descendOpenBlocks(bp)
		hasText := openNewBlocks(bp, allMatched)
		if bp.container == nil {
			return p.finishRoot(root), nil
		}
		if hasText {
			addLineText(bp)
		}
	}
}

func (p *BlockParser) finishRoot(root *blockState) *Node {
	source := p.consume()
	closeBlock(root, source, len(source))
	ip := &InlineParser{
		References: p.refs, Footnotes: p.footnotes, Plugins: p.opts.Plugins, Options: p.opts,
		WorkingPath: p.workingPath, FileName: p.fileName,
	}
	n := buildNode(root, source, ip, p)
	return n
}

// readline reads the next line of input, growing p.buf as necessary. It
// returns a zero-length slice if and only if it has reached the end of
// input.
func (p *BlockParser) readline() []byte {
	const (
		chunkSize    = 8 * 1024
		maxBlockSize = 4 * 1024 * 1024
	)

	eolEnd := -1
	for {
		if i := bytes.IndexAny(p.buf[p.parsePos:], "\r\n"); i >= 0 {
			eolStart := p.parsePos + i
			if p.buf[eolStart] == '\n' {
				eolEnd = eolStart + 1
				break
			}
			if eolStart+1 < len(p.buf) {
				eolEnd = eolStart + 1
				if p.buf[eolEnd] == '\n' {
					eolEnd++
				}
				break
			}
			if p.err != nil {
				eolEnd = len(p.buf)
				break
			}
		}

		if p.err != nil {
			eolEnd = len(p.buf)
			break
		}

		if len(p.buf) >= maxBlockSize {
			p.lineno++
			p.buf = p.buf[:p.parsePos]
			p.err = fmt.Errorf("mdast: line %d: block too large", p.lineno)
			return nil
		}

		newSize := len(p.buf) + chunkSize
		if newSize > maxBlockSize {
			newSize = maxBlockSize
		}
		if cap(p.buf) < newSize {
			newbuf := make([]byte, len(p.buf), newSize)
			copy(newbuf, p.buf)
			p.buf = newbuf
		}
		var n int
		n, p.err = p.r.Read(p.buf[len(p.buf):newSize])
		p.buf = p.buf[:len(p.buf)+n]
	}

	line := p.buf[p.parsePos:eolEnd]
	p.parsePos = eolEnd
	p.lineno++
	return line
}

func (p *BlockParser) consume() []byte {
	out := p.buf[:p.parsePos:p.parsePos]
	p.offset += int64(p.parsePos)
	p.buf = p.buf[p.parsePos:]
	p.parsePos = 0
	return out
}

func columnWidth(start int, b []byte) int {
	end := start
	for _, bi := range b {
		switch {
		case bi == '\t':
			end = (end + tabStopSize) &^ (tabStopSize - 1)
		case bi&0x80 == 0:
			end++
		}
	}
	return end - start
}

func indentLength(line []byte) int {
	for i, b := range line {
		if b != ' ' && b != '\t' {
			return i
		}
	}
	return len(line)
}

func isBlankLine(line []byte) bool {
	for _, b := range line {
		if !(b == '\r' || b == '\n' || b == ' ' || b == '\t') {
			return false
		}
	}
	return true
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// isEndEscaped reports whether s ends with an odd number of backslashes.
func isEndEscaped(s []byte) bool {
	n := 0
	for ; n < len(s); n++ {
		if s[len(s)-n-1] != '\\' {
			break
		}
	}
	return n%2 == 1
}
