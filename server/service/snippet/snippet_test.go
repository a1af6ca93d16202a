package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractShortContentUnchanged(t *testing.T) {
	e := NewExtractor()
	require.Equal(t, "short text", e.Extract("short text", "anything"))
	require.Equal(t, "", e.Extract("", "query"))
}

func TestExtractCentersOnMatch(t *testing.T) {
	e := NewExtractor()
	content := strings.Repeat("filler words here ", 30) + "the wifi password is hunter2 " + strings.Repeat("and more trailing text ", 10)

	got := e.Extract(content, "wifi password")
	require.Contains(t, got, "wifi password")
	require.LessOrEqual(t, len([]rune(got)), maxSnippetChars+6) // window plus ellipses
	require.True(t, strings.HasPrefix(got, "..."))
}

func TestExtractNoMatchTakesPrefix(t *testing.T) {
	e := NewExtractor()
	content := "beginning of a very long document " + strings.Repeat("padding ", 50)

	got := e.Extract(content, "zebra")
	require.True(t, strings.HasPrefix(got, "beginning of a very long document"))
	require.True(t, strings.HasSuffix(got, "..."))
}

func TestExtractWordBoundaries(t *testing.T) {
	e := NewExtractor()
	content := strings.Repeat("alpha beta gamma delta ", 20)

	got := e.Extract(content, "gamma")
	trimmed := strings.Trim(got, ".")
	for _, word := range strings.Fields(trimmed) {
		require.Contains(t, []string{"alpha", "beta", "gamma", "delta"}, word, "snippet broke a word: %q", word)
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	e := NewExtractor()
	content := strings.Repeat("x ", 150) + "IMPORTANT detail" + strings.Repeat(" y", 150)

	got := e.Extract(content, "important")
	require.Contains(t, got, "IMPORTANT")
}
