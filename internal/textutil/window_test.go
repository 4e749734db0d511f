package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	text := strings.Repeat("a", 60) + "BRAND" + strings.Repeat("b", 60)
	start := 60
	end := start + len("BRAND")

	got := Window(text, start, end, 50)
	assert.Equal(t, strings.Repeat("a", 50)+"BRAND"+strings.Repeat("b", 50), got)
}

func TestWindow_Multibyte(t *testing.T) {
	text := "éééé X éééé"
	start := strings.Index(text, "X")

	assert.Equal(t, "éé X éé", Window(text, start, start+1, 3))
}

func TestWindow_Edges(t *testing.T) {
	assert.Equal(t, "abc", Window("  abc  ", 2, 5, 10))
	assert.Equal(t, "", Window("abc", 3, 1, 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "éé", Truncate("ééé", 2))
	assert.Equal(t, "ab", Truncate("ab", 5))
}
