package domain

// Color is a highlight color from the fixed reader palette.
type Color string

// Palette colors. The set is closed and shared with the reader UI.
const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
	ColorGray   Color = "gray"
)

// DefaultColor is used for new highlights without a color and for unknown stored colors.
const DefaultColor = ColorYellow

// Swatch is the background/foreground pair a marker is painted with.
type Swatch struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

var paletteOrder = []Color{
	ColorYellow, ColorGreen, ColorBlue, ColorPink,
	ColorPurple, ColorOrange, ColorRed, ColorGray,
}

var palette = map[Color]Swatch{
	ColorYellow: {Background: "#fef08a", Foreground: "#713f12"},
	ColorGreen:  {Background: "#bbf7d0", Foreground: "#14532d"},
	ColorBlue:   {Background: "#bfdbfe", Foreground: "#1e3a8a"},
	ColorPink:   {Background: "#fbcfe8", Foreground: "#831843"},
	ColorPurple: {Background: "#e9d5ff", Foreground: "#581c87"},
	ColorOrange: {Background: "#fed7aa", Foreground: "#7c2d12"},
	ColorRed:    {Background: "#fecaca", Foreground: "#7f1d1d"},
	ColorGray:   {Background: "#e5e7eb", Foreground: "#1f2937"},
}

// IsPaletteColor reports whether s names a palette color exactly.
func IsPaletteColor(s string) bool {
	_, ok := palette[Color(s)]
	return ok
}

// PaletteNames returns the palette color names in display order.
func PaletteNames() []string {
	colors := Palette()
	names := make([]string, len(colors))
	for i, c := range colors {
		names[i] = string(c)
	}
	return names
}

// Palette returns the palette colors in display order.
func Palette() []Color {
	out := make([]Color, len(paletteOrder))
	copy(out, paletteOrder)
	return out
}

// ResolveColor maps any stored or requested color onto the palette.
// Unknown and legacy values fall back to DefaultColor.
func ResolveColor(s string) Color {
	if IsPaletteColor(s) {
		return Color(s)
	}
	return DefaultColor
}

// Swatch returns the paint for c, falling back to the default color's paint.
func (c Color) Swatch() Swatch {
	if sw, ok := palette[c]; ok {
		return sw
	}
	return palette[DefaultColor]
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return string(c)
}
