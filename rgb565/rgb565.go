package rgb565

import "image/color"

// RGB565 is a 16-bit color: 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// Pack converts a 24-bit 0xRRGGBB value to RGB565 by dropping the low bits
// of each channel. Bits above the low 24 are ignored.
func Pack(rgb uint32) RGB565 {
	r := (rgb >> 16) & 0xFF
	g := (rgb >> 8) & 0xFF
	b := rgb & 0xFF
	return RGB565((r>>3)<<11 | (g>>2)<<5 | b>>3)
}

// Channels returns the 5-bit red, 6-bit green and 5-bit blue components.
func (c RGB565) Channels() (r, g, b uint8) {
	return uint8(c>>11) & 0x1F, uint8(c>>5) & 0x3F, uint8(c) & 0x1F
}

// RGB888 expands c back to 0xRRGGBB. Low bits are filled by replicating the
// high bits so that full intensity maps to 0xFF.
func (c RGB565) RGB888() uint32 {
	r5, g6, b5 := c.Channels()
	r := uint32(r5<<3 | r5>>2)
	g := uint32(g6<<2 | g6>>4)
	b := uint32(b5<<3 | b5>>2)
	return r<<16 | g<<8 | b
}

// Bytes returns the value high byte first, as it is sent on the wire.
func (c RGB565) Bytes() (hi, lo byte) {
	return byte(c >> 8), byte(c)
}

// RGBA implements color.Color. RGB565 is always opaque.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	rgb := c.RGB888()
	// Scale 8-bit channels to 16-bit: 0xFF * 0x101 = 0xFFFF
	r = (rgb >> 16 & 0xFF) * 0x101
	g = (rgb >> 8 & 0xFF) * 0x101
	b = (rgb & 0xFF) * 0x101
	return r, g, b, 0xFFFF
}

// toRGB565 converts any color.Color to RGB565.
func toRGB565(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns 16-bit channels; keep the top 8 bits of each
	return Pack((r>>8)<<16 | (g>>8)<<8 | b>>8)
}

// Model converts colors to RGB565.
var Model = color.ModelFunc(toRGB565)
