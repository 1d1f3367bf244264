package tftlcd

import (
	"math"
	"strconv"
	"strings"

	"github.com/flavioheleno/tftlcd/rgb565"
)

func newParams() *params {
	return &params{}
}

// SetBacklight turns the backlight on or off.
func (d *Dev) SetBacklight(on bool) error {
	return d.send(OpSetBacklight, newParams().flag(on))
}

// ClearScreen fills the screen with the background color.
func (d *Dev) ClearScreen() error {
	if err := d.send(OpClearScreen, newParams().u8(0)); err != nil {
		return err
	}
	d.settle()
	return nil
}

// SetBackgroundColor sets the color used by ClearScreen and text background.
// rgb is 0xRRGGBB.
func (d *Dev) SetBackgroundColor(rgb uint32) error {
	return d.send(OpSetBackgroundColor, d.color(newParams(), "background", rgb))
}

// SetPenColor sets the color used for text and shapes. rgb is 0xRRGGBB.
func (d *Dev) SetPenColor(rgb uint32) error {
	return d.send(OpSetPenColor, d.color(newParams(), "pen", rgb))
}

// color appends rgb in the encoding of the device's protocol.
func (d *Dev) color(p *params, name string, rgb uint32) *params {
	if rgb > maxColor {
		p.err = outOfRange(name, int(rgb), 0, maxColor)
		return p
	}
	if d.protocol == ProtocolV1 {
		hi, lo := rgb565.Pack(rgb).Bytes()
		return p.u8(hi).u8(lo)
	}
	return rgb888(p, rgb)
}

func rgb888(p *params, rgb uint32) *params {
	return p.u8(byte(rgb >> 16)).u8(byte(rgb >> 8)).u8(byte(rgb))
}

// ShowString writes text at the cursor.
func (d *Dev) ShowString(s string) error {
	if d.protocol == ProtocolV1 {
		// The legacy firmware takes one character per frame.
		for _, c := range textBytes(s) {
			if err := d.send(OpDrawString, newParams().u8(c)); err != nil {
				return err
			}
		}
		return d.send(OpDrawString, newParams().u8(0))
	}
	return d.send(OpDrawString, newParams().cstring(s))
}

// ShowNumber writes the decimal representation of n at the cursor.
func (d *Dev) ShowNumber(n float64) error {
	return d.ShowString(FormatNumber(n))
}

// FormatNumber renders n the way ShowNumber sends it, following JavaScript
// number-to-string rules: integers without a fractional part, other values
// with the shortest exact representation, exponent form outside
// [1e-6, 1e21), "0" for negative zero, and "NaN", "Infinity" or "-Infinity"
// for the special values.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	if a := math.Abs(n); a >= 1e21 || a < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		// Go pads the exponent to two digits, JavaScript does not.
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// NewLine moves the cursor to the start of the next line.
func (d *Dev) NewLine() error {
	return d.send(OpChangeLine, newParams().u8(0))
}

// SelectLine moves the cursor to the start of line (1-8).
func (d *Dev) SelectLine(line int) error {
	return d.send(OpChangeLine, newParams().small("line", line, MinLine, MaxLine))
}

// WriteLine selects line (1-8) and writes s on it.
func (d *Dev) WriteLine(line int, s string) error {
	if err := d.SelectLine(line); err != nil {
		return err
	}
	return d.ShowString(s)
}

// WriteLineNumber selects line (1-8) and writes n on it.
func (d *Dev) WriteLineNumber(line int, n float64) error {
	return d.WriteLine(line, FormatNumber(n))
}

// ClearLine erases line (1-8).
func (d *Dev) ClearLine(line int) error {
	return d.send(OpClearLine, newParams().small("line", line, MinLine, MaxLine))
}

// DrawLine draws a line from (x0, y0) to (x1, y1) with the pen color.
func (d *Dev) DrawLine(x0, y0, x1, y1 int) error {
	p := newParams().u16("x0", x0).u16("y0", y0).u16("x1", x1).u16("y1", y1)
	return d.send(OpDrawLine, p)
}

// DrawRect draws the rectangle with corners (x0, y0) and (x1, y1), filled
// with the pen color when fill is set.
func (d *Dev) DrawRect(x0, y0, x1, y1 int, fill bool) error {
	p := newParams()
	if d.protocol == ProtocolV1 {
		p.flag(fill)
	}
	p.u16("x0", x0).u16("y0", y0).u16("x1", x1).u16("y1", y1)
	if d.protocol == ProtocolV2 {
		p.flag(fill)
	}
	return d.send(OpDrawRect, p)
}

// DrawCircle draws a circle of radius r centered on (x, y), filled with the
// pen color when fill is set.
func (d *Dev) DrawCircle(x, y, r int, fill bool) error {
	p := newParams()
	if d.protocol == ProtocolV1 {
		p.flag(fill)
	}
	p.u16("x", x).u16("y", y).u16("r", r)
	if d.protocol == ProtocolV2 {
		p.flag(fill)
	}
	return d.send(OpDrawCircle, p)
}

// DrawCircularLoader shows the spinning loader in the given 0xRRGGBB color.
// The loader always takes a 24-bit color, whatever the protocol.
func (d *Dev) DrawCircularLoader(rgb uint32) error {
	p := newParams()
	if rgb > maxColor {
		p.err = outOfRange("loader", int(rgb), 0, maxColor)
	}
	return d.send(OpDrawCircularLoader, rgb888(p, rgb))
}

// ShowLoadingBar shows a progress bar filled to percent (0-100).
func (d *Dev) ShowLoadingBar(percent int) error {
	return d.send(OpDrawProgress, newParams().small("percent", percent, 0, MaxPercent))
}
