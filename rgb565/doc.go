// Package rgb565 provides the 16-bit RGB565 color format used by the legacy
// display firmware.
//
// RGB565 packs a color into two bytes: 5 bits of red, 6 bits of green and
// 5 bits of blue, most significant bits first.
//
//	Bits:  15..11  10..5  4..0
//	       RRRRR   GGGGGG BBBBB
//
// Example conversions from 24-bit 0xRRGGBB values:
//
//	rgb565.Pack(0xFF0000) // 0xF800 (red)
//	rgb565.Pack(0x00FF00) // 0x07E0 (green)
//	rgb565.Pack(0x0000FF) // 0x001F (blue)
//	rgb565.Pack(0xFFFFFF) // 0xFFFF (white)
//
// This package provides:
//
// - RGB565: a color.Color implementation holding the packed value
// - Model: a color.Model converting standard Go colors to RGB565
// - Pack and RGB565.RGB888 to move between 24-bit and 16-bit values
//
// Example usage:
//
//	c := rgb565.Model.Convert(color.RGBA{R: 0xFF, A: 0xFF}).(rgb565.RGB565)
//	hi, lo := c.Bytes()
package rgb565
