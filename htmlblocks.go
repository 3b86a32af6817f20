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

	"golang.org/x/net/html/atom"
)

// htmlBlockCondition is one of the seven CommonMark 4.6 raw-HTML-block
// recognition rules.
type htmlBlockCondition struct {
	// start reports whether line opens a block under this rule.
	start func(line []byte) bool
	// end reports whether line closes a block opened under this rule
	// (rules 6 and 7 close on the next blank line instead).
	end func(line []byte) bool
	// closeOnBlank is true for rules 6 and 7, whose blocks end at the
	// first blank line rather than a content match.
	closeOnBlank bool
	// canInterruptParagraph is false only for rule 7.
	canInterruptParagraph bool
}

var htmlBlockStarters1 = [][]byte{[]byte("<pre"), []byte("<script"), []byte("<style"), []byte("<textarea")}
var htmlBlockEnders1 = [][]byte{[]byte("</pre>"), []byte("</script>"), []byte("</style>"), []byte("</textarea>")}

var htmlBlockTagSet6 = buildHTMLBlockTagSet6()

func buildHTMLBlockTagSet6() map[string]bool {
	names := []string{
		"address", "article", "aside", "base", "basefont", "blockquote", "body",
		"caption", "center", "col", "colgroup", "dd", "details", "dialog", "dir",
		"div", "dl", "dt", "fieldset", "figcaption", "figure", "footer", "form",
		"frame", "frameset", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header",
		"hr", "html", "iframe", "legend", "li", "link", "main", "menu", "menuitem",
		"nav", "noframes", "ol", "optgroup", "option", "p", "param", "section",
		"source", "summary", "table", "tbody", "td", "tfoot", "th", "thead", "title", "tr",
		"track", "ul",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if a := atom.Lookup([]byte(n)); a != 0 {
			set[a.String()] = true
		} else {
			set[n] = true
		}
	}
	return set
}

var htmlBlockConditions = []htmlBlockCondition{
	{ // rule 1: <pre>/<script>/<style>/<textarea>
		start: func(line []byte) bool {
			for i, starter := range htmlBlockStarters1 {
				if hasCaseInsensitiveBytePrefix(line, starter) {
					rest := line[len(starter):]
					if len(rest) == 0 || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '>' || rest[0] == '\n' || rest[0] == '\r' {
						_ = i
						return true
					}
				}
			}
			return false
		},
		end: func(line []byte) bool {
			for _, ender := range htmlBlockEnders1 {
				if caseInsensitiveContains(line, ender) {
					return true
				}
			}
			return false
		},
		canInterruptParagraph: true,
	},
	{ // rule 2: <!-- comment -->
		start:                  func(line []byte) bool { return hasCaseInsensitiveBytePrefix(line, []byte("<!--")) },
		end:                    func(line []byte) bool { return bytes.Contains(line, []byte("-->")) },
		canInterruptParagraph:  true,
	},
	{ // rule 3: <? processing instruction ?>
		start:                 func(line []byte) bool { return hasCaseInsensitiveBytePrefix(line, []byte("<?")) },
		end:                   func(line []byte) bool { return bytes.Contains(line, []byte("?>")) },
		canInterruptParagraph: true,
	},
	{ // rule 4: <!LETTER declaration>
		start: func(line []byte) bool {
			return len(line) > 2 && line[0] == '<' && line[1] == '!' && isASCIILetter(line[2])
		},
		end:                   func(line []byte) bool { return bytes.IndexByte(line, '>') >= 0 },
		canInterruptParagraph: true,
	},
	{ // rule 5: <![CDATA[
		start:                 func(line []byte) bool { return hasCaseInsensitiveBytePrefix(line, []byte("<![CDATA[")) },
		end:                   func(line []byte) bool { return bytes.Contains(line, []byte("]]>")) },
		canInterruptParagraph: true,
	},
	{ // rule 6: known block-level tag
		start: func(line []byte) bool {
			name, ok := peekHTMLTagName(line)
			return ok && htmlBlockTagSet6[toLowerASCIIString(name)]
		},
		closeOnBlank:           true,
		canInterruptParagraph:  true,
	},
	{ // rule 7: any other complete open/close tag, alone on its line
		start: func(line []byte) bool {
			if _, ok := peekHTMLTagName(line); !ok {
				return false
			}
			trimmed := bytes.TrimRight(line, " \t\r\n")
			end := bytes.IndexByte(trimmed, '>')
			return end == len(trimmed)-1 && bytes.IndexByte(trimmed[1:], '<') < 0
		},
		closeOnBlank: true,
	},
}

func matchHTMLBlock(p *lineParser) bool {
	b := p.container
	if b == nil {
		return false
	}
	cond := htmlBlockConditions[b.htmlCondition]
	if cond.closeOnBlank {
		return !p.IsRestBlank()
	}
	if cond.end(p.BytesAfterIndent()) {
		b.htmlClosePending = true
	}
	return true
}

func startHTMLBlock(p *lineParser) blockStartResult {
	if p.Indent() >= 4 {
		return blockStartNoMatch
	}
	save := *p
	p.ConsumeIndent(p.Indent())
	rest := p.BytesAfterIndent()
	if len(rest) == 0 || rest[0] != '<' {
		*p = save
		return blockStartNoMatch
	}
	for i, cond := range htmlBlockConditions {
		if !cond.start(rest) {
			continue
		}
		if p.ContainerKind() == ParagraphKind && !cond.canInterruptParagraph {
			continue
		}
		b := p.openBlock(HTMLKind)
		b.htmlCondition = i
		b.inline = false
		start := p.lineStart + p.i
		end := p.lineStart + len(p.line)
		b.lineSpans = append(b.lineSpans, Span{Start: start, End: end})
		if !cond.closeOnBlank && cond.end(rest) {
			closeBlock(b, nil, end)
			p.container = nil
		}
		p.i = len(p.line)
		return blockStartMatched
	}
	*p = save
	return blockStartNoMatch
}

func peekHTMLTagName(line []byte) (string, bool) {
	if len(line) < 2 || line[0] != '<' {
		return "", false
	}
	i := 1
	closing := false
	if line[i] == '/' {
		closing = true
		i++
	}
	start := i
	for i < len(line) && isHTMLTagNameChar(line[i]) {
		i++
	}
	if i == start {
		return "", false
	}
	name := line[start:i]
	_ = closing
	return string(name), true
}

func isHTMLTagNameChar(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c) || c == '-'
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func hasCaseInsensitiveBytePrefix(s, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}
	return bytes.EqualFold(s[:len(prefix)], prefix)
}

func caseInsensitiveContains(s, substr []byte) bool {
	return bytes.Contains(bytes.ToLower(s), bytes.ToLower(substr))
}

func toLowerASCIIString(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
