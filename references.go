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
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReferenceMatcher reports whether a normalized label has a known
// definition.
type ReferenceMatcher interface {
	MatchReference(normalizedLabel string) bool
}

// LinkDefinition is the data of a link reference definition.
// https://spec.commonmark.org/0.30/#link-reference-definition
type LinkDefinition struct {
	Destination  string
	Title        string
	TitlePresent bool
}

// ReferenceMap is a mapping of canonical labels to link definitions.
type ReferenceMap map[string]LinkDefinition

// MatchReference reports whether the normalized label appears in the map.
func (m ReferenceMap) MatchReference(normalizedLabel string) bool {
	_, ok := m[normalizedLabel]
	return ok
}

var labelFolder = cases.Fold()
var labelUpper = cases.Upper(language.Und)

// canonicalLabel implements the label-matching algorithm CommonMark 6.4
// describes (Unicode case fold, strip leading/trailing whitespace, collapse
// internal whitespace runs to a single space) so that `[Foo Bar]` and
// `[foo   bar]` resolve to the same key. It is also used, per the
// multi-file/footnote/heading-label extension, as the basis for the
// `#section`-keyed lookup tables the teacher's labeledLinks/labeledHeadings
// maps in the original md4qt implementation index by.
func canonicalLabel(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	label = labelFolder.String(label)
	return labelUpper.String(label)
}

func normalizeLabelSpacing(label string) string {
	return canonicalLabel(label)
}

// footnoteLabelKey builds the per-file-scoped key a footnote definition and
// its references are indexed under: "#^" + the folded id + the working
// path and file name that produced it, so two files defining `[^1]` never
// collide once merged by the multifile driver.
func footnoteLabelKey(id, workingPath, fileName string) string {
	return "#^" + canonicalLabel(id) + "/" + workingPath + "/" + fileName
}

// explicitHeadingLabelKey builds the scoped key for a heading carrying an
// explicit `{#label}` span.
func explicitHeadingLabelKey(label, workingPath, fileName string) string {
	return "#" + canonicalLabel(label) + "/" + workingPath + "/" + fileName
}

// synthesizedHeadingLabelKey builds the scoped key for a heading with no
// explicit label, slugifying its raw text instead of folding it through
// canonicalLabel: the slug is already lowercase, and the synthesized form
// is documented to stay lowercase rather than take on the uppercase
// convention explicit labels use.
func synthesizedHeadingLabelKey(text, workingPath, fileName string) string {
	return "#" + slugifyHeadingText(text) + "/" + workingPath + "/" + fileName
}

// slugifyHeadingText lowercases s and collapses every run of non-alphanumeric
// bytes into a single hyphen, trimming leading/trailing hyphens. It operates
// directly on the heading's raw (not yet inline-parsed) source text: since
// every non-alphanumeric rune, including markdown emphasis markers, is
// already treated as a separator, running it before inline parsing produces
// the same slug inline parsing would.
func slugifyHeadingText(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
			lastHyphen = false
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := b.String()
	return strings.TrimSuffix(out, "-")
}
