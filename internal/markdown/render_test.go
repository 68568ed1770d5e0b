package markdown_test

import (
	"reflect"
	"testing"

	"steno/internal/markdown"
)

func TestListThenParagraph(t *testing.T) {
	got := markdown.Blocks("- a\n- b\n\npara")
	want := []string{"<ul><li>a</li><li>b</li></ul>", "<p>para</p>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Blocks = %q, want %q", got, want)
	}
}

func TestFencedCodeSkipsInlineFormatting(t *testing.T) {
	got := markdown.Render("```\n*not bold*\n```")
	want := "<pre><code>*not bold*</code></pre>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestCodeBlockKeepsBlankLinesAndIndentation(t *testing.T) {
	got := markdown.Render("```go\n  x := 1\n\n- y\n```")
	want := "<pre><code>  x := 1\n\n- y</code></pre>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestOpeningFenceFlushesPendingList(t *testing.T) {
	got := markdown.Blocks("- item\n```\ncode\n```")
	want := []string{"<ul><li>item</li></ul>", "<pre><code>code</code></pre>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Blocks = %q, want %q", got, want)
	}
}

func TestUnterminatedFenceFlushesAtEnd(t *testing.T) {
	got := markdown.Blocks("intro\n```\nline one\nline two")
	want := []string{"<p>intro</p>", "<pre><code>line one\nline two</code></pre>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Blocks = %q, want %q", got, want)
	}
}

func TestEmptyFenceEmitsNothing(t *testing.T) {
	if got := markdown.Render("```\n```"); got != "" {
		t.Fatalf("expected no output for empty fence, got %q", got)
	}
}

func TestHeadingsAndParagraphFlushList(t *testing.T) {
	src := "# Title\n## Section\n### Sub\n* one\n* two\nafter\n#nospace"
	got := markdown.Blocks(src)
	want := []string{
		"<h1>Title</h1>",
		"<h2>Section</h2>",
		"<h3>Sub</h3>",
		"<ul><li>one</li><li>two</li></ul>",
		"<p>after</p>",
		"<p>#nospace</p>",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Blocks = %q, want %q", got, want)
	}
}

func TestEscapesBeforeMarkup(t *testing.T) {
	got := markdown.Render("<script>alert('x')</script> & **<b>**")
	want := "<p>&lt;script&gt;alert('x')&lt;/script&gt; &amp; <strong>&lt;b&gt;</strong></p>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestCRLFAndTrailingWhitespace(t *testing.T) {
	got := markdown.Blocks("- a  \r\n- b\r\n\r\n  text  ")
	want := []string{"<ul><li>a</li><li>b</li></ul>", "<p>text</p>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Blocks = %q, want %q", got, want)
	}
}

func TestListMarkerNeedsWhitespace(t *testing.T) {
	got := markdown.Blocks("-\n-x\n*emphasis*")
	want := []string{"<p>-</p>", "<p>-x</p>", "<p><em>emphasis</em></p>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Blocks = %q, want %q", got, want)
	}
}

func TestInlineOrder(t *testing.T) {
	cases := map[string]string{
		"`code` and **bold** and *it*": "<code>code</code> and <strong>bold</strong> and <em>it</em>",
		"**a** **b**":                  "<strong>a</strong> <strong>b</strong>",
		"``":                           "``",
		"** not closed":                "** not closed",
		"a * b * c":                    "a <em> b </em> c",
		"***x***":                      "<em><strong>x</strong></em>",
		"héllo *wörld*":                "héllo <em>wörld</em>",
		"`*a*`":                        "<code>*a*</code>",
		"`**b**` then *c*":             "<code>**b**</code> then <em>c</em>",
		"*x `y` z*":                    "*x <code>y</code> z*",
	}
	for input, want := range cases {
		if got := markdown.Inline(input); got != want {
			t.Fatalf("Inline(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	if got := markdown.Blocks(""); len(got) != 0 {
		t.Fatalf("expected no blocks, got %q", got)
	}
}

func TestEscapeAttr(t *testing.T) {
	if got := markdown.EscapeAttr(`"Bob" & 'Al'`); got != "&quot;Bob&quot; &amp; &#39;Al&#39;" {
		t.Fatalf("EscapeAttr = %q", got)
	}
}
