// Package markdown renders the restricted markdown dialect used for job
// summaries into HTML fragments that are safe to insert into a page.
//
// Supported blocks are fenced code (triple backtick), bullet lists ("- " or
// "* "), three heading levels, and paragraphs. Inline code, bold, and italic
// spans are recognised outside code blocks. Everything else is literal text.
// All input is HTML-escaped before any markup is introduced, so user content
// can never become a live tag.
package markdown
