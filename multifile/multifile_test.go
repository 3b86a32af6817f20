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

package multifile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/markdowntree/mdast"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func countKind(n *mdast.Node, kind mdast.Kind) int {
	count := 0
	mdast.Walk(n, &mdast.WalkOptions{
		Pre: func(c *mdast.Cursor) bool {
			if c.Node().Kind() == kind {
				count++
			}
			return true
		},
	})
	return count
}

func TestWalkFollowsLocalLinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# Page B\n\nEnd of chapter.\n")
	writeFile(t, dir, "a.md", "# Page A\n\nSee [next](b.md) for more.\n")

	w := &Walker{Options: mdast.DefaultOptions()}
	doc, err := w.Walk(filepath.Join(dir, "a.md"))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if got := countKind(doc.Root, mdast.PageBreakKind); got != 1 {
		t.Errorf("PageBreakKind count = %d, want 1", got)
	}
	if got := countKind(doc.Root, mdast.AnchorKind); got != 1 {
		t.Errorf("AnchorKind count = %d, want 1", got)
	}
	if got := countKind(doc.Root, mdast.HeadingKind); got != 2 {
		t.Errorf("HeadingKind count = %d, want 2", got)
	}
}

func TestWalkBreaksCycles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n\n[to b](b.md)\n")
	writeFile(t, dir, "b.md", "# B\n\n[to a](a.md)\n")

	w := &Walker{Options: mdast.DefaultOptions()}
	doc, err := w.Walk(filepath.Join(dir, "a.md"))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got := countKind(doc.Root, mdast.HeadingKind); got != 2 {
		t.Errorf("HeadingKind count = %d, want 2 (cycle should not revisit a.md)", got)
	}
}

func TestIsLocalMarkdownLink(t *testing.T) {
	w := &Walker{}
	cases := []struct {
		dest string
		want bool
	}{
		{"chapter2.md", true},
		{"chapter2.markdown", true},
		{"chapter2.MD", true},
		{"https://example.com/x.md", false},
		{"mailto:a@example.com", false},
		{"//example.com/x.md", false},
		{"image.png", false},
		{"", false},
	}
	for _, c := range cases {
		if got := w.isLocalMarkdownLink(c.dest); got != c.want {
			t.Errorf("isLocalMarkdownLink(%q) = %v, want %v", c.dest, got, c.want)
		}
	}
}

// TestWalkScopesIdenticalHeadings verifies that two files contributing a
// heading with the same text each keep their own entry in
// Document.LabeledHeadings instead of the second silently losing to a
// first-wins merge, now that every label key carries its working
// path/file name.
func TestWalkScopesIdenticalHeadings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "# Introduction\n\nFrom b.\n")
	writeFile(t, dir, "a.md", "# Introduction\n\nFrom a.[next](b.md)\n")

	w := &Walker{Options: mdast.DefaultOptions()}
	doc, err := w.Walk(filepath.Join(dir, "a.md"))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if got := countKind(doc.Root, mdast.HeadingKind); got != 2 {
		t.Fatalf("HeadingKind count = %d, want 2", got)
	}
	if got := len(doc.LabeledHeadings); got != 2 {
		t.Errorf("len(LabeledHeadings) = %d, want 2 (identical heading text across files must not collide)", got)
	}
}
