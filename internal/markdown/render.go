package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lineKind int

const (
	lineText lineKind = iota
	lineBlank
	lineFence
	lineListItem
	lineHeading1
	lineHeading2
	lineHeading3
)

// classified is one input line after escaping and classification. body is
// the text left once the block marker has been stripped.
type classified struct {
	kind lineKind
	raw  string
	body string
}

// renderer accumulates emitted blocks while walking the input.
type renderer struct {
	blocks []string
	inCode bool
	code   []string
	items  []string
}

// Render converts src into concatenated HTML block fragments.
func Render(src string) string {
	return strings.Join(Blocks(src), "")
}

// Blocks converts src into HTML block fragments in document order.
func Blocks(src string) []string {
	r := &renderer{}
	escaped := strings.ReplaceAll(EscapeHTML(src), "\r\n", "\n")
	for _, line := range strings.Split(escaped, "\n") {
		r.feed(classify(line))
	}
	r.finish()
	return r.blocks
}

func classify(rawLine string) classified {
	line := strings.TrimRightFunc(rawLine, unicode.IsSpace)
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "```"):
		return classified{kind: lineFence, raw: line}
	case trimmed == "":
		return classified{kind: lineBlank, raw: line}
	}
	if body, ok := listItemBody(trimmed); ok {
		return classified{kind: lineListItem, raw: line, body: body}
	}
	switch {
	case strings.HasPrefix(trimmed, "### "):
		return classified{kind: lineHeading3, raw: line, body: trimmed[4:]}
	case strings.HasPrefix(trimmed, "## "):
		return classified{kind: lineHeading2, raw: line, body: trimmed[3:]}
	case strings.HasPrefix(trimmed, "# "):
		return classified{kind: lineHeading1, raw: line, body: trimmed[2:]}
	default:
		return classified{kind: lineText, raw: line, body: trimmed}
	}
}

// listItemBody matches a leading "-" or "*", at least one whitespace rune,
// then non-empty content.
func listItemBody(trimmed string) (string, bool) {
	if trimmed == "" || (trimmed[0] != '-' && trimmed[0] != '*') {
		return "", false
	}
	rest := trimmed[1:]
	body := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(body) == len(rest) || body == "" {
		return "", false
	}
	return body, true
}

func (r *renderer) feed(line classified) {
	if line.kind == lineFence {
		if r.inCode {
			r.inCode = false
			r.flushCode()
		} else {
			r.flushList()
			r.inCode = true
		}
		return
	}
	if r.inCode {
		r.code = append(r.code, line.raw)
		return
	}

	switch line.kind {
	case lineBlank:
		r.flushList()
	case lineListItem:
		r.items = append(r.items, "<li>"+Inline(line.body)+"</li>")
	case lineHeading1:
		r.flushList()
		r.emit("<h1>" + Inline(line.body) + "</h1>")
	case lineHeading2:
		r.flushList()
		r.emit("<h2>" + Inline(line.body) + "</h2>")
	case lineHeading3:
		r.flushList()
		r.emit("<h3>" + Inline(line.body) + "</h3>")
	case lineText:
		r.flushList()
		r.emit("<p>" + Inline(line.body) + "</p>")
	case lineFence:
	}
}

func (r *renderer) finish() {
	r.flushList()
	if r.inCode {
		r.flushCode()
	}
}

func (r *renderer) emit(block string) {
	r.blocks = append(r.blocks, block)
}

func (r *renderer) flushList() {
	if len(r.items) == 0 {
		return
	}
	r.emit("<ul>" + strings.Join(r.items, "") + "</ul>")
	r.items = nil
}

func (r *renderer) flushCode() {
	if len(r.code) == 0 {
		return
	}
	r.emit("<pre><code>" + strings.Join(r.code, "\n") + "</code></pre>")
	r.code = nil
}

// Inline applies code, bold, and italic span substitution, in that order,
// to already-escaped text. Bold and italic only touch text outside the code
// spans produced by the first pass.
func Inline(text string) string {
	text = replaceSpans(text, "`", "<code>", "</code>")

	var out strings.Builder
	out.Grow(len(text) + 16)
	for {
		start := strings.Index(text, "<code>")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], "</code>")
		if end < 0 {
			break
		}
		end += start + len("</code>")
		out.WriteString(emphasis(text[:start]))
		out.WriteString(text[start:end])
		text = text[end:]
	}
	out.WriteString(emphasis(text))
	return out.String()
}

func emphasis(text string) string {
	text = replaceSpans(text, "**", "<strong>", "</strong>")
	return replaceSpans(text, "*", "<em>", "</em>")
}

// replaceSpans wraps every delim-enclosed run in open/close tags. A span's
// content is one or more characters that do not contain the delimiter
// character, and matches never overlap: scanning resumes after each close.
func replaceSpans(text, delim, open, closeTag string) string {
	marker := delim[0]
	if strings.IndexByte(text, marker) < 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text) + 16)
	i := 0
	for i < len(text) {
		if !strings.HasPrefix(text[i:], delim) {
			_, size := utf8.DecodeRuneInString(text[i:])
			out.WriteString(text[i : i+size])
			i += size
			continue
		}
		start := i + len(delim)
		end := strings.IndexByte(text[start:], marker)
		if end <= 0 || !strings.HasPrefix(text[start+end:], delim) {
			out.WriteByte(text[i])
			i++
			continue
		}
		out.WriteString(open)
		out.WriteString(text[start : start+end])
		out.WriteString(closeTag)
		i = start + end + len(delim)
	}
	return out.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters that could open a tag or an entity.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// EscapeAttr escapes s for use inside a quoted attribute value.
func EscapeAttr(s string) string {
	return strings.NewReplacer(`"`, "&quot;", "'", "&#39;").Replace(EscapeHTML(s))
}
