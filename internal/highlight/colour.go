// Package highlight renders a source file with syntax-highlight colours as
// ANSI escape sequences, without reimplementing Vim's highlighting rules
// natively (the spec's core constraint: colouring decisions must come from
// Vim itself). Two strategies produce the same ANSI stream: HTMLCapture
// puppets Vim's :TOhtml and decodes the result, and VT drives an in-memory
// ANSI terminal emulator. Both are grounded on libclink/src/colour.c and
// vim_highlight.c, ported from C to Go rather than reimplemented from a
// generic palette.
package highlight

// ansiColour is one entry of the 8-colour ANSI palette, holding the RGB
// triple Vim itself uses for that slot in a default terminal colour scheme.
type ansiColour struct {
	red, green, blue uint8
}

// palette mirrors libclink/src/colour.c's static ANSI[] table exactly: Vim's
// assumed RGB value for each of the 8 standard terminal colours.
var palette = [8]ansiColour{
	{0x00, 0x00, 0x00}, // black
	{0xff, 0x60, 0x60}, // red
	{0x00, 0xff, 0x00}, // green
	{0xff, 0xff, 0x00}, // yellow
	{0x80, 0x80, 0xff}, // blue
	{0xff, 0x40, 0xff}, // magenta
	{0x00, 0xff, 0xff}, // cyan
	{0xff, 0xff, 0xff}, // white
}

// hexToInt converts a single hex digit character to its value, or -1 if c is
// not a hex digit.
func hexToInt(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// HTMLColourToANSI parses a 6-hex-digit HTML colour (no leading '#') and
// returns the index (0-7) of the palette entry closest to it by L1 distance
// over the RGB channels, matching html_colour_to_ansi in colour.c.
func HTMLColourToANSI(hex string) int {
	var rgb [3]uint8
	for i := 0; i < 3 && i*2+1 < len(hex); i++ {
		hi := hexToInt(hex[i*2])
		lo := hexToInt(hex[i*2+1])
		if hi < 0 || lo < 0 {
			continue
		}
		rgb[i] = uint8(hi<<4 | lo)
	}

	best := 0
	bestDist := -1
	for i, c := range palette {
		d := diff(rgb[0], c.red) + diff(rgb[1], c.green) + diff(rgb[2], c.blue)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
