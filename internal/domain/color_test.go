package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColor_FallsBackToYellow(t *testing.T) {
	tests := []struct {
		input string
		want  Color
	}{
		{"green", ColorGreen},
		{"gray", ColorGray},
		{"", ColorYellow},
		{"Green", ColorYellow}, // palette names are exact
		{"#ff0", ColorYellow},
		{"teal", ColorYellow},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveColor(tt.input))
		})
	}
}

func TestPalette_HasEightDistinctSwatches(t *testing.T) {
	colors := Palette()
	assert.Len(t, colors, 8)
	assert.Equal(t, ColorYellow, colors[0])

	seen := make(map[Swatch]bool)
	for _, c := range colors {
		sw := c.Swatch()
		assert.NotEmpty(t, sw.Background)
		assert.NotEmpty(t, sw.Foreground)
		assert.False(t, seen[sw], "duplicate swatch for %s", c)
		seen[sw] = true
	}
}

func TestColor_SwatchUnknown(t *testing.T) {
	assert.Equal(t, ColorYellow.Swatch(), Color("legacy-lime").Swatch())
}
