package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBlocksBecomeLines(t *testing.T) {
	html := `<html><body><p>Hello</p><p>World &amp; friends</p></body></html>`

	text, err := NewRenderer().Render(html)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld & friends", text)
}

func TestRenderStripsScriptAndStyle(t *testing.T) {
	html := `<html><head><style>p{color:red}</style></head>` +
		`<body><script>alert(1)</script><p>visible</p></body></html>`

	text, err := NewRenderer().Render(html)
	require.NoError(t, err)
	assert.Equal(t, "visible", text)
}

func TestRenderCollapsesWhitespace(t *testing.T) {
	html := "<div>too     many\tspaces</div>"

	text, err := NewRenderer().Render(html)
	require.NoError(t, err)
	assert.Equal(t, "too many spaces", text)
}

func TestRenderEmptyInput(t *testing.T) {
	text, err := NewRenderer().Render("")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestRenderStripsInvisibleRunes(t *testing.T) {
	html := "<p>un\u200bsubscribe</p>"

	text, err := NewRenderer().Render(html)
	require.NoError(t, err)
	assert.Equal(t, "unsubscribe", text)
}
