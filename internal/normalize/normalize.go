// Package normalize strips HTML-like and Markdown-like markup down to plain
// text suitable for chunking.
package normalize

import (
	"regexp"
	"strings"
)

// Pre-compiled expressions, applied in order by Text.
var (
	scriptBlocks = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlocks  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	fencedCode   = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`[^`]+`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockTags    = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|ul|ol|tr|td|th|table|blockquote|pre|section|article|header|footer)[^>]*>`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// entities decodes the fixed set of common HTML entities. Anything outside
// this set passes through unchanged.
var entities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// Text converts raw markup to plain text: script/style blocks and tags are
// removed, Markdown syntax is stripped (link labels are kept, image alt text
// is not), the common entities are decoded, and whitespace runs collapse to
// single spaces. It is a pure function; empty input yields an empty string.
func Text(raw string) string {
	s := scriptBlocks.ReplaceAllString(raw, " ")
	s = styleBlocks.ReplaceAllString(s, " ")
	s = fencedCode.ReplaceAllString(s, " ")
	s = inlineCode.ReplaceAllString(s, " ")
	s = images.ReplaceAllString(s, " ")
	s = links.ReplaceAllString(s, "$1")
	s = headings.ReplaceAllString(s, "")
	s = blockTags.ReplaceAllString(s, "\n")
	s = allTags.ReplaceAllString(s, "")
	s = entities.Replace(s)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "_", " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
