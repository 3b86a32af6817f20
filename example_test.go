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

package mdast_test

import (
	"os"

	"github.com/markdowntree/mdast"
)

func Example() {
	doc, err := mdast.Parse([]byte("Hello, **World**!\n"), "", "test.md", mdast.DefaultOptions())
	if err != nil {
		panic(err)
	}
	mdast.RenderHTML(os.Stdout, doc)
	// Output:
	// <p>Hello, <strong>World</strong>!</p>
}

func ExampleParse_footnotes() {
	doc, err := mdast.Parse([]byte(
		"Pandoc-style notes.[^1]\n\n[^1]: Like this one.\n",
	), "", "test.md", mdast.DefaultOptions())
	if err != nil {
		panic(err)
	}
	mdast.RenderHTML(os.Stdout, doc)
	// Output:
	// <p>Pandoc-style notes.<sup id="fnref-1"><a href="#fn-1">1</a></sup></p><section class="footnotes" role="doc-endnotes"><ol><li id="fn-1">Like this one. <a href="#fnref-1">&#8617;</a></li></ol></section>
}
