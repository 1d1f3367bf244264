// Package tftlcd drives a TFT display module that accepts drawing commands
// over I2C.
//
// The module has its own controller that renders text, shapes and charts.
// This driver only encodes requests into command frames and writes them to
// the bus; there is no acknowledgment, so a frame the display rejects looks
// the same as one it accepted.
//
// # Wire Format
//
// Every command is a single frame:
//
//	Byte 0     0xFF       preamble
//	Byte 1     0xF9       preamble
//	Byte 2     opcode
//	Byte 3     N          parameter length
//	Byte 4..   parameters (N bytes)
//
// Multi-byte integers are sent high byte first. Text is sent as single-byte
// Latin-1 codes followed by a zero byte.
//
// # Hardware Connection
//
// Connect the display module to your system via I2C:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SDA         → I2C Data (SDA)
//	SCL         → I2C Clock (SCL)
//
// The module answers at address 0x11 (DefaultAddress). Some batches use
// 0x3D (AltAddress); set Opts.Addr accordingly.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"github.com/flavioheleno/tftlcd"
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Open I2C bus
//		bus, _ := i2creg.Open("")
//		defer bus.Close()
//
//		// Create device
//		dev, _ := tftlcd.NewI2C(bus, nil)
//		defer dev.Halt()
//
//		dev.SetBacklight(true)
//		dev.ClearScreen()
//		dev.SetPenColor(0xFFFFFF)
//		dev.WriteLine(1, "Hello")
//		dev.DrawRect(10, 40, 110, 90, true)
//	}
//
// # Firmware Versions
//
// Two firmware dialects exist and they are not compatible:
//
//	                     ProtocolV2 (default)   ProtocolV1 (legacy)
//	Colors               3 bytes RGB888         2 bytes RGB565
//	Rect/circle fill     after coordinates      before coordinates
//	Text                 one frame per string   one frame per character
//	Boot delay           none                   500ms
//	Pause after frames   none                   10ms, 100ms after redraws
//
// Use DefaultOpts(ProtocolV1) to talk to the legacy firmware.
//
// # Boot Delay
//
// The legacy firmware ignores commands while it starts. NewI2C and NewConn
// block until Opts.BootDelay has elapsed since Opts.PowerOn (the process start
// time when unset). The check happens once, when the device is created.
//
// # Charts
//
// A chart is set up with DrawChart and then filled column by column:
//
//	dev.DrawChart(tftlcd.Histogram, 0, 100, 3, 2)
//	dev.DrawChartData(1, "Mon", 20, 35)
//	dev.DrawChartData(2, "Tue", 40, 10)
//	dev.DrawChartData(3, "Wed", 75, 60)
//
// Pie charts take up to ten parts:
//
//	dev.DrawPieChart(
//		&tftlcd.Part{Value: 30, Label: "rent"},
//		&tftlcd.Part{Value: 20, Label: "groceries"}, // sent as "gro..."
//	)
//
// # Argument Ranges
//
// Coordinates and chart values must fit in 16 bits (-32768 to 65535).
// Lines are 1-8, percentages 0-100, chart columns 1-10 and groups 1-5.
// Out of range arguments return an error wrapping ErrOutOfRange and nothing
// is sent.
//
// # Concurrency
//
// A Dev is not safe for concurrent use. Frames from different goroutines
// would interleave on the bus, so callers sharing a Dev must serialize access.
package tftlcd
