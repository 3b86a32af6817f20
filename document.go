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
	"fmt"
	"io"
)

// Document is the immutable result of parsing a Markdown source: the root
// [Node] of [DocumentKind] plus the label-keyed lookup tables built during
// block parsing. The lookup tables mirror the original md4qt parser's
// Document::footnotesMap/labeledLinks/labeledHeadings, adapted to Go maps
// keyed by the canonical label (see references.go).
type Document struct {
	Root   *Node
	Source []byte

	// References holds every [LinkReferenceDefinitionKind] block, keyed by
	// canonical label, first definition wins (CommonMark 4.7).
	References ReferenceMap

	// Footnotes holds every [FootnoteKind] block, keyed by its per-file-scoped
	// label (see footnoteLabelKey); use [Node.LabelText] to recover the bare
	// `[^id]` text.
	Footnotes map[string]*Node

	// LabeledHeadings holds every [HeadingKind] node, explicit or
	// synthesized, keyed by its per-file-scoped label (see
	// explicitHeadingLabelKey and synthesizedHeadingLabelKey).
	LabeledHeadings map[string]*Node
}

// Options configures [Parse].
type Options struct {
	// EnableFootnotes turns on Pandoc-style `[^id]` footnote references.
	// `[^id]: ...` footnote definitions are recognized whether or not it is
	// set.
	EnableFootnotes bool
	// EnableTables is not consulted by the parser: GFM pipe tables are
	// recognized whether or not it is set.
	EnableTables bool
	// EnableStrikethrough turns on GFM `~~text~~` strikethrough.
	EnableStrikethrough bool
	// EnableTaskLists turns on GFM `[ ]`/`[x]` list item checkboxes.
	EnableTaskLists bool
	// EnableMath turns on inline `$...$` and display `$$...$$` TeX math
	// spans, plus ```math fenced code blocks.
	EnableMath bool
	// EnableHeadingLabels turns on explicit `{#label}` heading labels.
	EnableHeadingLabels bool

	// Plugins extends inline parsing with additional delimiter scanners,
	// tried in order before the built-in inline grammar at each byte
	// position.
	Plugins []InlinePlugin
}

// DefaultOptions returns the [Options] with every GFM/Pandoc/math extension
// turned on, matching what a standalone Markdown renderer expects.
func DefaultOptions() Options {
	return Options{
		EnableFootnotes:     true,
		EnableTables:        true,
		EnableStrikethrough: true,
		EnableTaskLists:     true,
		EnableMath:          true,
		EnableHeadingLabels: true,
	}
}

// Parse parses source in full and returns the resulting [Document]. Parse
// never returns a non-nil error for malformed Markdown: CommonMark defines
// every byte sequence as valid input with some parse tree. A non-nil error
// can only originate from an [io.Reader]-backed caller; [Parse] itself only
// returns one for API symmetry with [NewBlockParser].
//
// workingPath and fileName identify the file being parsed and scope the
// keys of every heading and footnote label it registers (section 6): two
// documents parsed with different workingPath/fileName pairs never produce
// colliding labels, even if their headings or footnote ids read identically,
// which is what lets the multifile package merge them safely.
func Parse(source []byte, workingPath, fileName string, opts Options) (*Document, error) {
	bp := NewBlockParser(bytesReader(source), workingPath, fileName, opts)
	var roots []*Node
	for {
		n, err := bp.NextBlock()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("mdast: parse: %w", err)
		}
		roots = append(roots, n)
	}

	doc := newNodeBuilder(DocumentKind)
	for _, r := range roots {
		doc.addChild(r)
	}
	root := doc.setSpan(Span{Start: 0, End: len(source)}).finalize()

	d := &Document{
		Root:            root,
		Source:          source,
		References:      bp.refs,
		Footnotes:       bp.footnotes,
		LabeledHeadings: bp.labeledHeadings,
	}

	ip := &InlineParser{
		References:  d.References,
		Footnotes:   d.Footnotes,
		Plugins:     opts.Plugins,
		Options:     opts,
		WorkingPath: workingPath,
		FileName:    fileName,
	}
	ip.RewriteTree(root, source)

	return d, nil
}

func bytesReader(b []byte) io.Reader {
	return &onceReader{b: b}
}

// onceReader hands back its whole buffer on the first Read, matching the
// chunked-growth reader shape the teacher's Parser expects without pulling
// in bytes.Reader just to wrap a byte slice we already fully own.
type onceReader struct {
	b    []byte
	done bool
}

func (r *onceReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	if len(r.b) == 0 {
		r.done = true
	}
	return n, nil
}
