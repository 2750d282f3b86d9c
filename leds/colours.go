package leds

import "math/rand"

// Named colours used directly by the firmware. RGBW; the white channel is
// left at zero so the palette renders the same on RGB-only strips.
var (
	Black       = Colour{0, 0, 0, 0}
	White       = Colour{255, 255, 255, 0}
	Red         = Colour{255, 0, 0, 0}
	Green       = Colour{0, 255, 0, 0}
	Blue        = Colour{0, 0, 255, 0}
	Yellow      = Colour{255, 255, 0, 0}
	Aqua        = Colour{0, 255, 255, 0}
	DarkBlue    = Colour{0, 0, 139, 0}
	DarkMagenta = Colour{139, 0, 139, 0}
	LimeGreen   = Colour{50, 205, 50, 0}

	DefaultForeground = White
	DefaultBackground = Black
)

// NamedColour pairs a palette entry with its X11-style name.
type NamedColour struct {
	Name string
	C    Colour
}

// Palette is the read-only named-colour table. It is kept as one flat
// constant slice so the linker can place it in flash on MCU targets.
var Palette = []NamedColour{
	{"AliceBlue", Colour{240, 248, 255, 0}},
	{"AntiqueWhite", Colour{250, 235, 215, 0}},
	{"Aqua", Colour{0, 255, 255, 0}},
	{"Aquamarine", Colour{127, 255, 212, 0}},
	{"Azure", Colour{240, 255, 255, 0}},
	{"Beige", Colour{245, 245, 220, 0}},
	{"Bisque", Colour{255, 228, 196, 0}},
	{"Black", Colour{0, 0, 0, 0}},
	{"BlanchedAlmond", Colour{255, 235, 205, 0}},
	{"Blue", Colour{0, 0, 255, 0}},
	{"BlueViolet", Colour{138, 43, 226, 0}},
	{"Brown", Colour{165, 42, 42, 0}},
	{"Burlywood", Colour{222, 184, 135, 0}},
	{"CadetBlue", Colour{95, 158, 160, 0}},
	{"Chartreuse", Colour{127, 255, 0, 0}},
	{"Chocolate", Colour{210, 105, 30, 0}},
	{"Coral", Colour{255, 127, 80, 0}},
	{"CornflowerBlue", Colour{100, 149, 237, 0}},
	{"Cornsilk", Colour{255, 248, 220, 0}},
	{"Crimson", Colour{220, 20, 60, 0}},
	{"Cyan", Colour{0, 255, 255, 0}},
	{"DarkBlue", Colour{0, 0, 139, 0}},
	{"DarkCyan", Colour{0, 139, 139, 0}},
	{"DarkGoldenrod", Colour{184, 134, 11, 0}},
	{"DarkGreen", Colour{0, 100, 0, 0}},
	{"DarkGrey", Colour{169, 169, 169, 0}},
	{"DarkKhaki", Colour{189, 183, 107, 0}},
	{"DarkMagenta", Colour{139, 0, 139, 0}},
	{"DarkOliveGreen", Colour{85, 107, 47, 0}},
	{"DarkOrange", Colour{255, 140, 0, 0}},
	{"DarkOrchid", Colour{153, 50, 204, 0}},
	{"DarkRed", Colour{139, 0, 0, 0}},
	{"DarkSalmon", Colour{233, 150, 122, 0}},
	{"DarkSeaGreen", Colour{143, 188, 143, 0}},
	{"DarkSlateBlue", Colour{72, 61, 139, 0}},
	{"DarkSlateGrey", Colour{47, 79, 79, 0}},
	{"DarkTurquoise", Colour{0, 206, 209, 0}},
	{"DarkViolet", Colour{148, 0, 211, 0}},
	{"DeepPink", Colour{255, 20, 147, 0}},
	{"DeepSkyBlue", Colour{0, 191, 255, 0}},
	{"DodgerBlue", Colour{30, 144, 255, 0}},
	{"Firebrick", Colour{178, 34, 34, 0}},
	{"FloralWhite", Colour{255, 250, 240, 0}},
	{"ForestGreen", Colour{34, 139, 34, 0}},
	{"Fuchsia", Colour{255, 0, 255, 0}},
	{"Gainsboro", Colour{220, 220, 220, 0}},
	{"GhostWhite", Colour{248, 248, 255, 0}},
	{"Gold", Colour{255, 215, 0, 0}},
	{"Goldenrod", Colour{218, 165, 32, 0}},
	{"Green", Colour{0, 255, 0, 0}},
	{"GreenYellow", Colour{173, 255, 47, 0}},
	{"Grey", Colour{128, 128, 128, 0}},
	{"Honeydew", Colour{240, 255, 240, 0}},
	{"HotPink", Colour{255, 105, 180, 0}},
	{"IndianRed", Colour{205, 92, 92, 0}},
	{"Indigo", Colour{75, 0, 130, 0}},
	{"Ivory", Colour{255, 255, 240, 0}},
	{"Khaki", Colour{240, 230, 140, 0}},
	{"Lavender", Colour{230, 230, 250, 0}},
	{"LavenderBlush", Colour{255, 240, 245, 0}},
	{"LawnGreen", Colour{124, 252, 0, 0}},
	{"LemonChiffon", Colour{255, 250, 205, 0}},
	{"LightBlue", Colour{173, 216, 230, 0}},
	{"LightCoral", Colour{240, 128, 128, 0}},
	{"LightCyan", Colour{224, 255, 255, 0}},
	{"LightGoldenrod", Colour{238, 221, 130, 0}},
	{"LightGreen", Colour{144, 238, 144, 0}},
	{"LightGrey", Colour{211, 211, 211, 0}},
	{"LightPink", Colour{255, 182, 193, 0}},
	{"LightSalmon", Colour{255, 160, 122, 0}},
	{"LightSeaGreen", Colour{32, 178, 170, 0}},
	{"LightSkyBlue", Colour{135, 206, 250, 0}},
	{"LightSlateGrey", Colour{119, 136, 153, 0}},
	{"LightSteelBlue", Colour{176, 196, 222, 0}},
	{"LightYellow", Colour{255, 255, 224, 0}},
	{"Lime", Colour{0, 255, 0, 0}},
	{"LimeGreen", Colour{50, 205, 50, 0}},
	{"Linen", Colour{250, 240, 230, 0}},
	{"Magenta", Colour{255, 0, 255, 0}},
	{"Maroon", Colour{128, 0, 0, 0}},
	{"MediumAquamarine", Colour{102, 205, 170, 0}},
	{"MediumBlue", Colour{0, 0, 205, 0}},
	{"MediumOrchid", Colour{186, 85, 211, 0}},
	{"MediumPurple", Colour{147, 112, 219, 0}},
	{"MediumSeaGreen", Colour{60, 179, 113, 0}},
	{"MediumSlateBlue", Colour{123, 104, 238, 0}},
	{"MediumSpringGreen", Colour{0, 250, 154, 0}},
	{"MediumTurquoise", Colour{72, 209, 204, 0}},
	{"MediumVioletRed", Colour{199, 21, 133, 0}},
	{"MidnightBlue", Colour{25, 25, 112, 0}},
	{"MintCream", Colour{245, 255, 250, 0}},
	{"MistyRose", Colour{255, 228, 225, 0}},
	{"Moccasin", Colour{255, 228, 181, 0}},
	{"NavajoWhite", Colour{255, 222, 173, 0}},
	{"NavyBlue", Colour{0, 0, 128, 0}},
	{"OldLace", Colour{253, 245, 230, 0}},
	{"Olive", Colour{128, 128, 0, 0}},
	{"OliveDrab", Colour{107, 142, 35, 0}},
	{"Orange", Colour{255, 165, 0, 0}},
	{"OrangeRed", Colour{255, 69, 0, 0}},
	{"Orchid", Colour{218, 112, 214, 0}},
	{"PaleGoldenrod", Colour{238, 232, 170, 0}},
	{"PaleGreen", Colour{152, 251, 152, 0}},
	{"PaleTurquoise", Colour{175, 238, 238, 0}},
	{"PaleVioletRed", Colour{219, 112, 147, 0}},
	{"PapayaWhip", Colour{255, 239, 213, 0}},
	{"PeachPuff", Colour{255, 218, 185, 0}},
	{"Peru", Colour{205, 133, 63, 0}},
	{"Pink", Colour{255, 192, 203, 0}},
	{"Plum", Colour{221, 160, 221, 0}},
	{"PowderBlue", Colour{176, 224, 230, 0}},
	{"Purple", Colour{128, 0, 128, 0}},
	{"Red", Colour{255, 0, 0, 0}},
	{"RosyBrown", Colour{188, 143, 143, 0}},
	{"RoyalBlue", Colour{65, 105, 225, 0}},
	{"SaddleBrown", Colour{139, 69, 19, 0}},
	{"Salmon", Colour{250, 128, 114, 0}},
	{"SandyBrown", Colour{244, 164, 96, 0}},
	{"SeaGreen", Colour{46, 139, 87, 0}},
	{"Seashell", Colour{255, 245, 238, 0}},
	{"Sienna", Colour{160, 82, 45, 0}},
	{"Silver", Colour{192, 192, 192, 0}},
	{"SkyBlue", Colour{135, 206, 235, 0}},
	{"SlateBlue", Colour{106, 90, 205, 0}},
	{"SlateGray", Colour{112, 128, 144, 0}},
	{"Snow", Colour{255, 250, 250, 0}},
	{"SpringGreen", Colour{0, 255, 127, 0}},
	{"SteelBlue", Colour{70, 130, 180, 0}},
	{"Tan", Colour{210, 180, 140, 0}},
	{"Teal", Colour{0, 128, 128, 0}},
	{"Thistle", Colour{216, 191, 216, 0}},
	{"Tomato", Colour{255, 99, 71, 0}},
	{"Turquoise", Colour{64, 224, 208, 0}},
	{"Violet", Colour{238, 130, 238, 0}},
	{"VioletRed", Colour{208, 32, 144, 0}},
	{"Wheat", Colour{245, 222, 179, 0}},
	{"WhiteSmoke", Colour{245, 245, 245, 0}},
	{"Yellow", Colour{255, 255, 0, 0}},
	{"YellowGreen", Colour{154, 205, 50, 0}},
}

// PaletteSize is the number of entries in the palette table.
func PaletteSize() int { return len(Palette) }

// ColourAt copies the palette entry at index out of the table. A negative
// index picks a random entry; an index past the end falls back to entry 0.
func ColourAt(index int) Colour {
	if index < 0 {
		index = rand.Intn(len(Palette))
	}
	if index >= len(Palette) {
		index = 0
	}
	return Palette[index].C
}

// ColourByName looks a colour up by its palette name.
func ColourByName(name string) (Colour, bool) {
	for i := range Palette {
		if Palette[i].Name == name {
			return Palette[i].C, true
		}
	}
	return Colour{}, false
}
