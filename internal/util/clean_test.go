package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace runs",
			input:    "A  title \n\t with   gaps",
			expected: "A title with gaps",
		},
		{
			name:     "trims leading and trailing space",
			input:    "  padded  ",
			expected: "padded",
		},
		{
			name:     "replaces smart quotes",
			input:    "“Hello” ‘world’",
			expected: "\"Hello\" 'world'",
		},
		{
			name:     "replaces non-breaking space",
			input:    "one two",
			expected: "one two",
		},
		{
			name:     "drops control characters",
			input:    "ab\x00\x07cd",
			expected: "ab cd",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanText(tc.input))
		})
	}
}

func TestCleanFileContent(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<html></html>")...)
	out, err := CleanFileContent(withBOM, "bookmarks.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", out)

	invalid := []byte{'o', 'k', 0xFF, 0xFE, 'x'}
	out, err = CleanFileContent(invalid, "weird.html")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "x")
}
