package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{"line\nbreak", "line break"},
		{"tabs\t\tand  spaces", "tabs and spaces"},
		{"nbsp\u00a0here", "nbsp here"},
		{"\r\n mixed \r\n", "mixed"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWhitespace(tt.in))
		})
	}
}

func TestBuildNormalizedIndex_MapsBack(t *testing.T) {
	raw := []rune("  one \n\n two  three ")
	idx := buildNormalizedIndex(raw)

	require.Equal(t, "one two three", idx.text)
	require.Len(t, idx.toRaw, len([]rune(idx.text)))

	for i, r := range []rune(idx.text) {
		if r == ' ' {
			assert.Equal(t, ' ', raw[idx.toRaw[i]], "collapsed run maps to its first whitespace")
			continue
		}
		assert.Equal(t, r, raw[idx.toRaw[i]])
	}
	assert.Equal(t, 2, idx.toRaw[0])
	assert.Equal(t, 5, idx.toRaw[3])
}
