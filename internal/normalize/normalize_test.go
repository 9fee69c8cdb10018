package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_StripsHTML(t *testing.T) {
	raw := `<html><head><style>body { color: red; }</style></head>
<body><script>alert("hi");</script><h1>Welcome</h1><p>Hello <b>world</b>.</p></body></html>`

	got := Text(raw)
	assert.Equal(t, "Welcome Hello world.", got)
}

func TestText_DecodesEntities(t *testing.T) {
	got := Text("Fish&nbsp;&amp;&nbsp;Chips &lt;fresh&gt; &quot;daily&quot;")
	assert.Equal(t, `Fish & Chips <fresh> "daily"`, got)
}

func TestText_StripsMarkdown(t *testing.T) {
	raw := "# Heading\n\nSome **bold** and *italic* text with [a link](https://example.com) " +
		"and ![an image](pic.png).\n\n```go\nfunc main() {}\n```\n\nInline `code` too."

	got := Text(raw)
	assert.Equal(t, "Heading Some bold and italic text with a link and . Inline too.", got)
}

func TestText_KeepsLinkLabelDropsImageAlt(t *testing.T) {
	got := Text("See [the docs](/docs) and ![diagram of the system](diagram.svg)")
	assert.Contains(t, got, "the docs")
	assert.NotContains(t, got, "diagram of the system")
	assert.NotContains(t, got, "diagram.svg")
}

func TestText_CollapsesWhitespace(t *testing.T) {
	got := Text("  a\n\n\tb \r\n  c  ")
	assert.Equal(t, "a b c", got)
}

func TestText_Empty(t *testing.T) {
	assert.Equal(t, "", Text(""))
	assert.Equal(t, "", Text("  \n\t "))
}
