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

// Package multifile drives [mdast.Parse] across a set of linked Markdown
// files, the way a documentation site stitches chapters into a single
// tree: after parsing a file, every local Markdown link it contains is
// parsed in turn and appended to the same document, separated by a
// synthetic PageBreak node and preceded by an Anchor node labeled with
// the target's absolute path, so cross-file links still resolve.
package multifile

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdowntree/mdast"
)

// Walker parses a root Markdown file and every local Markdown file it
// links to, transitively, into a single [mdast.Document].
type Walker struct {
	// Options configures each file's parse. Plugins, if any, are shared
	// across every file in the walk.
	Options mdast.Options
	// Extensions lists the file extensions (without the leading dot,
	// lowercase) that are treated as Markdown link targets worth
	// following. A nil slice defaults to {"md", "markdown"}.
	Extensions []string
	// Logger, if non-nil, receives a line for every file visited and
	// every cycle/broken-link skip.
	Logger *log.Logger
}

func (w *Walker) extensions() []string {
	if w.Extensions != nil {
		return w.Extensions
	}
	return []string{"md", "markdown"}
}

func (w *Walker) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}

// Walk parses root and every local Markdown file reachable from it,
// returning the combined document. The returned Document's Root holds the
// top-level blocks of every visited file, in visitation order; once earlier
// files have contributed blocks, each further file's blocks are preceded by
// a PageBreakKind node and an AnchorKind node naming that file's path.
func (w *Walker) Walk(root string) (*mdast.Document, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("mdast/multifile: walk %s: %w", root, err)
	}

	visited := make(map[string]bool)
	refs := make(mdast.ReferenceMap)
	footnotes := make(map[string]*mdast.Node)
	labeledHeadings := make(map[string]*mdast.Node)

	var children []*mdast.Node
	queue := []string{absRoot}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if visited[path] {
			w.logf("multifile: skipping already-visited %s", path)
			continue
		}
		visited[path] = true

		source, err := os.ReadFile(path)
		if err != nil {
			w.logf("multifile: skipping unreadable %s: %v", path, err)
			continue
		}
		w.logf("multifile: parsing %s", path)

		if len(children) > 0 {
			children = append(children,
				pageBreakNode(),
				anchorNode(path),
			)
		}

		dir := filepath.Dir(path)
		doc, err := mdast.Parse(source, dir, filepath.Base(path), w.Options)
		if err != nil {
			return nil, fmt.Errorf("mdast/multifile: parse %s: %w", path, err)
		}
		children = append(children, doc.Root.Children()...)
		for k, v := range doc.References {
			if _, exists := refs[k]; !exists {
				refs[k] = v
			}
		}
		for k, v := range doc.Footnotes {
			if _, exists := footnotes[k]; !exists {
				footnotes[k] = v
			}
		}
		for k, v := range doc.LabeledHeadings {
			if _, exists := labeledHeadings[k]; !exists {
				labeledHeadings[k] = v
			}
		}

		for _, target := range w.localLinkTargets(doc) {
			resolved := target
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(dir, resolved)
			}
			if !visited[resolved] {
				queue = append(queue, resolved)
			}
		}
	}

	return &mdast.Document{
		Root:            mdast.NewDocumentNode(children),
		Source:          nil,
		References:      refs,
		Footnotes:       footnotes,
		LabeledHeadings: labeledHeadings,
	}, nil
}

// localLinkTargets returns every Link destination in doc that looks like a
// relative path ending in one of w's recognized extensions.
func (w *Walker) localLinkTargets(doc *mdast.Document) []string {
	var targets []string
	mdast.Walk(doc.Root, &mdast.WalkOptions{
		Pre: func(c *mdast.Cursor) bool {
			n := c.Node()
			if n.Kind() != mdast.LinkKind {
				return true
			}
			dest := n.Destination()
			if w.isLocalMarkdownLink(dest) {
				targets = append(targets, dest)
			}
			return true
		},
	})
	return targets
}

func (w *Walker) isLocalMarkdownLink(dest string) bool {
	if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "mailto:") {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(dest), ".")
	for _, e := range w.extensions() {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func pageBreakNode() *mdast.Node {
	return mdast.NewPageBreakNode()
}

func anchorNode(path string) *mdast.Node {
	return mdast.NewAnchorNode(path)
}
