// Copyright 2023 Ross Light
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
	"html"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/atom"
)

// An HTMLRenderer converts a parsed [Document] into HTML.
//
// # Security considerations
//
// CommonMark permits the use of [raw HTML], which can introduce
// [Cross-Site Scripting (XSS)] vulnerabilities and [HTML parse errors] when
// used with untrusted inputs. There are a few options to mitigate this risk:
//
//   - The resulting HTML can be sent through an HTML sanitizer. This is
//     highly recommended.
//   - Set IgnoreRaw to prevent inclusion of raw HTML.
//   - FilterTag can be used to prevent some tags from being used while
//     still showing the source text. [FilterTagGFM] matches the default
//     GitHub Flavored Markdown [tagfilter extension].
//
// [Cross-Site Scripting (XSS)]: https://owasp.org/www-community/attacks/xss/
// [HTML parse errors]: https://html.spec.whatwg.org/multipage/parsing.html#parse-errors
// [raw HTML]: https://spec.commonmark.org/0.30/#raw-html
// [tagfilter extension]: https://github.github.com/gfm/#disallowed-raw-html-extension-
type HTMLRenderer struct {
	// SoftBreakBehavior determines how soft line breaks are rendered.
	SoftBreakBehavior SoftBreakBehavior
	// If IgnoreRaw is true, the renderer skips any HTML blocks or raw HTML.
	IgnoreRaw bool
	// FilterTag is a predicate function that reports whether an element
	// with the given lowercased tag name should have its leading angle
	// bracket escaped. If FilterTag is nil, [FilterTagGFM] is used.
	FilterTag func(tag []byte) bool
}

// RenderHTML renders doc's tree to w using the default [HTMLRenderer]
// options.
func RenderHTML(w io.Writer, doc *Document) error {
	return (&HTMLRenderer{}).Render(w, doc)
}

// Render writes doc's tree to w as HTML, returning the first error
// encountered, if any.
func (r *HTMLRenderer) Render(w io.Writer, doc *Document) error {
	dst := r.AppendDocument(nil, doc)
	if _, err := w.Write(dst); err != nil {
		return fmt.Errorf("mdast: render html: %w", err)
	}
	return nil
}

// AppendDocument appends the rendered HTML of doc to dst and returns the
// resulting byte slice.
func (r *HTMLRenderer) AppendDocument(dst []byte, doc *Document) []byte {
	state := &renderState{HTMLRenderer: r, dst: dst, footnoteNumbers: make(map[string]int)}
	var footnotes []*Node
	for _, c := range doc.Root.Children() {
		if c.Kind() == FootnoteKind {
			footnotes = append(footnotes, c)
			continue
		}
		state.block(c, false)
	}
	if len(footnotes) > 0 {
		state.footnoteSection(footnotes)
	}
	return state.dst
}

type renderState struct {
	*HTMLRenderer
	dst             []byte
	lowerBuf        []byte
	footnoteNumbers map[string]int
}

func (r *renderState) openTagAttr(name atom.Atom) {
	start := len(r.dst)
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
	if r.filterTag()(r.dst[start+1:]) {
		r.dst = r.dst[:start]
		r.dst = append(r.dst, "&lt;"...)
		r.dst = append(r.dst, name.String()...)
	}
}

func (r *renderState) openTag(name atom.Atom) {
	r.openTagAttr(name)
	r.dst = append(r.dst, '>')
}

func (r *renderState) closeTag(name atom.Atom) {
	start := len(r.dst)
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, name.String()...)
	if r.filterTag()(r.dst[start+2:]) {
		r.dst = r.dst[:start]
		r.dst = append(r.dst, "&lt;/"...)
		r.dst = append(r.dst, name.String()...)
	}
	r.dst = append(r.dst, '>')
}

func (r *renderState) filterTag() func([]byte) bool {
	if r.FilterTag != nil {
		return r.FilterTag
	}
	return FilterTagGFM
}

func headingTag(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	default:
		return atom.H6
	}
}

func (r *renderState) block(n *Node, tight bool) {
	switch n.Kind() {
	case ParagraphKind:
		if tight {
			r.childrenInline(n)
			return
		}
		if c := n.Children(); len(c) == 1 && c[0].Kind() == MathKind && !c[0].Inline() {
			// A paragraph holding only display math renders as the bare block.
			r.block(c[0], false)
			return
		}
		r.openTag(atom.P)
		r.childrenInline(n)
		r.closeTag(atom.P)
	case HeadingKind:
		tag := headingTag(n.HeadingLevel())
		r.openTagAttr(tag)
		if n.IsLabeled() {
			r.dst = append(r.dst, ` id="`...)
			r.dst = append(r.dst, html.EscapeString(canonicalLabel(n.LabelText()))...)
			r.dst = append(r.dst, `"`...)
		}
		r.dst = append(r.dst, '>')
		r.childrenInline(n)
		r.closeTag(tag)
	case HorizontalLineKind:
		r.openTagAttr(atom.Hr)
		r.dst = append(r.dst, '>')
	case CodeKind:
		r.openTag(atom.Pre)
		r.openTagAttr(atom.Code)
		if syntax := n.Syntax(); syntax != "" {
			r.dst = append(r.dst, ` class="language-`...)
			r.dst = append(r.dst, html.EscapeString(syntax)...)
			r.dst = append(r.dst, `"`...)
		}
		r.dst = append(r.dst, '>')
		r.dst = escapeHTML(r.dst, []byte(n.Literal()))
		r.dst = append(r.dst, '\n')
		r.closeTag(atom.Code)
		r.closeTag(atom.Pre)
	case MathKind:
		if n.Inline() {
			r.dst = append(r.dst, `<span class="math inline">\(`...)
		} else {
			r.dst = append(r.dst, `<div class="math display">\[`...)
		}
		r.dst = append(r.dst, html.EscapeString(n.Literal())...)
		if n.Inline() {
			r.dst = append(r.dst, `\)</span>`...)
		} else {
			r.dst = append(r.dst, `\]</div>`...)
		}
	case BlockquoteKind:
		r.openTag(atom.Blockquote)
		for _, c := range n.Children() {
			r.block(c, false)
		}
		r.closeTag(atom.Blockquote)
	case ListKind:
		var tag atom.Atom
		if n.IsOrderedList() {
			tag = atom.Ol
			r.openTagAttr(tag)
			if n.StartNumber() != 1 {
				r.dst = append(r.dst, ` start="`...)
				r.dst = strconv.AppendInt(r.dst, int64(n.StartNumber()), 10)
				r.dst = append(r.dst, `"`...)
			}
			r.dst = append(r.dst, '>')
		} else {
			tag = atom.Ul
			r.openTag(tag)
		}
		for _, c := range n.Children() {
			r.block(c, n.IsTight())
		}
		r.closeTag(tag)
	case ListItemKind:
		r.openTag(atom.Li)
		if n.IsTaskList() {
			r.dst = append(r.dst, `<input type="checkbox" disabled`...)
			if n.IsChecked() {
				r.dst = append(r.dst, ` checked`...)
			}
			r.dst = append(r.dst, `> `...)
		}
		for _, c := range n.Children() {
			r.block(c, tight)
		}
		r.closeTag(atom.Li)
	case HTMLKind:
		if !r.IgnoreRaw {
			r.filterRaw([]byte(n.Literal()))
			r.dst = append(r.dst, '\n')
		}
	case TableKind:
		r.table(n)
	case LinkReferenceDefinitionKind, FootnoteKind:
		// No visible output; already indexed on Document.
	default:
		for _, c := range n.Children() {
			r.block(c, false)
		}
	}
}

func (r *renderState) table(n *Node) {
	r.openTag(atom.Table)
	aligns := n.Alignments()
	rows := n.Children()
	if len(rows) > 0 {
		r.openTag(atom.Thead)
		r.tableRow(rows[0], atom.Th, aligns)
		r.closeTag(atom.Thead)
	}
	if len(rows) > 1 {
		r.openTag(atom.Tbody)
		for _, row := range rows[1:] {
			r.tableRow(row, atom.Td, aligns)
		}
		r.closeTag(atom.Tbody)
	}
	r.closeTag(atom.Table)
}

func (r *renderState) tableRow(row *Node, cellTag atom.Atom, aligns []Alignment) {
	r.openTag(atom.Tr)
	for i, cell := range row.Children() {
		var align Alignment
		if i < len(aligns) {
			align = aligns[i]
		}
		r.openTagAttr(cellTag)
		switch align {
		case AlignLeft:
			r.dst = append(r.dst, ` style="text-align:left"`...)
		case AlignCenter:
			r.dst = append(r.dst, ` style="text-align:center"`...)
		case AlignRight:
			r.dst = append(r.dst, ` style="text-align:right"`...)
		}
		r.dst = append(r.dst, '>')
		r.childrenInline(cell)
		r.closeTag(cellTag)
	}
	r.closeTag(atom.Tr)
}

func (r *renderState) childrenInline(n *Node) {
	for _, c := range n.Children() {
		r.inline(c)
	}
}

func (r *renderState) inline(n *Node) {
	const hardLineBreak = "<br>\n"
	switch n.Kind() {
	case TextKind:
		r.textWithStyle(n)
	case LineBreakKind:
		if n.HardBreak() {
			r.dst = append(r.dst, hardLineBreak...)
		} else {
			switch r.SoftBreakBehavior {
			case SoftBreakHarden:
				r.dst = append(r.dst, hardLineBreak...)
			case SoftBreakSpace:
				r.dst = append(r.dst, ' ')
			default:
				r.dst = append(r.dst, '\n')
			}
		}
	case CodeKind: // inline code span
		r.openTag(atom.Code)
		r.dst = escapeHTML(r.dst, []byte(n.Literal()))
		r.closeTag(atom.Code)
	case HTMLKind: // raw inline HTML tag
		if !r.IgnoreRaw {
			r.filterRaw([]byte(n.Literal()))
		}
	case MathKind:
		r.block(n, false)
	case LinkKind:
		r.openTagAttr(atom.A)
		r.dst = append(r.dst, ` href="`...)
		r.dst = append(r.dst, html.EscapeString(NormalizeURI(n.Destination()))...)
		r.dst = append(r.dst, `"`...)
		if n.Title() != "" {
			r.dst = append(r.dst, ` title="`...)
			r.dst = append(r.dst, html.EscapeString(n.Title())...)
			r.dst = append(r.dst, `"`...)
		}
		r.dst = append(r.dst, '>')
		r.childrenInline(n)
		r.closeTag(atom.A)
	case ImageKind:
		r.openTagAttr(atom.Img)
		r.dst = append(r.dst, ` src="`...)
		r.dst = append(r.dst, html.EscapeString(NormalizeURI(n.Destination()))...)
		r.dst = append(r.dst, `"`...)
		if n.Title() != "" {
			r.dst = append(r.dst, ` title="`...)
			r.dst = append(r.dst, html.EscapeString(n.Title())...)
			r.dst = append(r.dst, `"`...)
		}
		r.dst = appendAltText(r.dst, n)
		r.dst = append(r.dst, '>')
	case FootnoteRefKind:
		num := r.footnoteNumber(n.Label())
		r.dst = append(r.dst, `<sup id="fnref-`...)
		r.dst = append(r.dst, html.EscapeString(canonicalLabel(n.LabelText()))...)
		r.dst = append(r.dst, `"><a href="#fn-`...)
		r.dst = append(r.dst, html.EscapeString(canonicalLabel(n.LabelText()))...)
		r.dst = append(r.dst, `">`...)
		r.dst = strconv.AppendInt(r.dst, int64(num), 10)
		r.dst = append(r.dst, `</a></sup>`...)
	case AnchorKind:
		r.dst = append(r.dst, `<span id="`...)
		r.dst = append(r.dst, html.EscapeString(n.Label())...)
		r.dst = append(r.dst, `"></span>`...)
	}
}

func (r *renderState) footnoteNumber(label string) int {
	if num, ok := r.footnoteNumbers[label]; ok {
		return num
	}
	num := len(r.footnoteNumbers) + 1
	r.footnoteNumbers[label] = num
	return num
}

func (r *renderState) footnoteSection(footnotes []*Node) {
	byLabel := make(map[string]*Node, len(footnotes))
	for _, f := range footnotes {
		byLabel[f.Label()] = f
	}
	r.dst = append(r.dst, `<section class="footnotes" role="doc-endnotes"><ol>`...)
	// Emit in first-reference order so numbering matches the superscripts.
	numbered := make([]string, len(r.footnoteNumbers))
	for label, num := range r.footnoteNumbers {
		if num-1 < len(numbered) {
			numbered[num-1] = label
		}
	}
	for _, label := range numbered {
		f := byLabel[label]
		labelText := label
		if f != nil {
			labelText = canonicalLabel(f.LabelText())
		}
		r.dst = append(r.dst, `<li id="fn-`...)
		r.dst = append(r.dst, html.EscapeString(labelText)...)
		r.dst = append(r.dst, `">`...)
		if f != nil {
			r.childrenInline(f)
		}
		r.dst = append(r.dst, ` <a href="#fnref-`...)
		r.dst = append(r.dst, html.EscapeString(labelText)...)
		r.dst = append(r.dst, `">&#8617;</a></li>`...)
	}
	r.dst = append(r.dst, `</ol></section>`...)
}

// textWithStyle wraps n's escaped literal in <strong>/<em>/<del> per its
// composable [TextOption] flags, innermost-first: strikethrough, then
// bold, then italic, matching how the original md4qt parser layers its
// Text item style flags.
func (r *renderState) textWithStyle(n *Node) {
	opts := n.TextOptions()
	var tags []atom.Atom
	if opts.Has(ItalicText) {
		tags = append(tags, atom.Em)
	}
	if opts.Has(BoldText) {
		tags = append(tags, atom.Strong)
	}
	if opts.Has(StrikethroughText) {
		tags = append(tags, atom.Del)
	}
	for _, t := range tags {
		r.openTag(t)
	}
	r.dst = escapeHTML(r.dst, []byte(n.Literal()))
	for i := len(tags) - 1; i >= 0; i-- {
		r.closeTag(tags[i])
	}
}

// filterRaw performs the tag filtering described in
// https://github.github.com/gfm/#disallowed-raw-html-extension-. It does
// not special-case comments/processing instructions/CDATA sections (raw
// HTML spans are short inline fragments in practice), only bare tags.
func (r *renderState) filterRaw(rawHTML []byte) {
	copyStart := 0
	i := 0
	for i < len(rawHTML) {
		if rawHTML[i] != '<' {
			i++
			continue
		}
		tagNameStart := i + 1
		if tagNameStart < len(rawHTML) && rawHTML[tagNameStart] == '/' {
			tagNameStart++
		}
		tagEnd := len(rawHTML)
		if j := indexByte(rawHTML[tagNameStart:], '>'); j >= 0 {
			tagEnd = tagNameStart + j + 1
		}
		nameEnd := tagNameStart
		for nameEnd < tagEnd && isHTMLTagNameChar(rawHTML[nameEnd]) {
			nameEnd++
		}
		tagName := maybeLower(rawHTML[tagNameStart:nameEnd], &r.lowerBuf)
		if r.filterTag()(tagName) {
			r.dst = append(r.dst, rawHTML[copyStart:i]...)
			r.dst = append(r.dst, "&lt;"...)
			r.dst = append(r.dst, rawHTML[i+1:tagEnd]...)
			copyStart = tagEnd
		}
		i = tagEnd
	}
	r.dst = append(r.dst, rawHTML[copyStart:]...)
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func appendAltText(dst []byte, parent *Node) []byte {
	stack := []*Node{parent}
	hasAttr := false
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch curr.Kind() {
		case TextKind:
			if !hasAttr {
				dst = append(dst, ` alt="`...)
				hasAttr = true
			}
			dst = append(dst, html.EscapeString(curr.Literal())...)
		case LineBreakKind:
			if !hasAttr {
				dst = append(dst, ` alt="`...)
				hasAttr = true
			}
			dst = append(dst, ' ')
		default:
			children := curr.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
	if !hasAttr {
		dst = append(dst, ` alt="`...)
	}
	dst = append(dst, `"`...)
	return dst
}

// escapeHTML appends the HTML-escaped version of src to dst.
func escapeHTML(dst []byte, src []byte) []byte {
	verbatimStart := 0
	for i, b := range src {
		switch b {
		case '&':
			dst = append(dst, src[verbatimStart:i]...)
			dst = append(dst, "&amp;"...)
			verbatimStart = i + 1
		case '\'':
			dst = append(dst, src[verbatimStart:i]...)
			dst = append(dst, "&#39;"...)
			verbatimStart = i + 1
		case '<':
			dst = append(dst, src[verbatimStart:i]...)
			dst = append(dst, "&lt;"...)
			verbatimStart = i + 1
		case '>':
			dst = append(dst, src[verbatimStart:i]...)
			dst = append(dst, "&gt;"...)
			verbatimStart = i + 1
		case '"':
			dst = append(dst, src[verbatimStart:i]...)
			dst = append(dst, "&quot;"...)
			verbatimStart = i + 1
		}
	}
	if verbatimStart < len(src) {
		dst = append(dst, src[verbatimStart:]...)
	}
	return dst
}

func maybeLower(x []byte, buf *[]byte) []byte {
	hasUpper := false
	for _, b := range x {
		if 'A' <= b && b <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return x
	}
	*buf = (*buf)[:0]
	for _, b := range x {
		if 'A' <= b && b <= 'Z' {
			*buf = append(*buf, b-'A'+'a')
		} else {
			*buf = append(*buf, b)
		}
	}
	return *buf
}

// FilterTagGFM performs the same tag filtering as the GitHub Flavored
// Markdown [tagfilter extension]. It is suitable for use as FilterTag in
// [HTMLRenderer].
//
// [tagfilter extension]: https://github.github.com/gfm/#disallowed-raw-html-extension-
func FilterTagGFM(tag []byte) bool {
	tagAtom := atom.Lookup(tag)
	return tagAtom == atom.Title ||
		tagAtom == atom.Textarea ||
		tagAtom == atom.Style ||
		tagAtom == atom.Xmp ||
		tagAtom == atom.Iframe ||
		tagAtom == atom.Noembed ||
		tagAtom == atom.Noframes ||
		tagAtom == atom.Script ||
		tagAtom == atom.Plaintext
}

// SoftBreakBehavior is an enumeration of rendering styles for [soft line
// breaks].
//
// [soft line breaks]: https://spec.commonmark.org/0.30/#soft-line-breaks
type SoftBreakBehavior int

const (
	// SoftBreakPreserve renders a soft line break as a literal newline.
	SoftBreakPreserve SoftBreakBehavior = iota
	// SoftBreakSpace renders a soft line break as a space.
	SoftBreakSpace
	// SoftBreakHarden renders a soft line break as a hard line break.
	SoftBreakHarden
)

// NormalizeURI percent-encodes any characters in s that are not reserved
// or unreserved URI characters, suitable for use in an href or src
// attribute.
func NormalizeURI(s string) string {
	const safeSet = `;/?:@&=+$,-_.!~*'()#`

	sb := new(strings.Builder)
	sb.Grow(len(s))
	skip := 0
	var buf [utf8.UTFMax]byte
	for i, c := range s {
		if skip > 0 {
			skip--
			sb.WriteRune(c)
			continue
		}
		switch {
		case c == '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				skip = 2
				sb.WriteByte('%')
			} else {
				sb.WriteString("%25")
			}
		case (c < 0x80 && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c)))) || strings.ContainsRune(safeSet, c):
			sb.WriteRune(c)
		default:
			n := utf8.EncodeRune(buf[:], c)
			for _, b := range buf[:n] {
				sb.WriteByte('%')
				sb.WriteByte(urlHexDigit(b >> 4))
				sb.WriteByte(urlHexDigit(b & 0x0f))
			}
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

func urlHexDigit(x byte) byte {
	switch {
	case x < 0xa:
		return '0' + x
	case x < 0x10:
		return 'A' + x - 0xa
	default:
		panic("out of bounds")
	}
}
