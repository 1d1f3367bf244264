package tftlcd

import "fmt"

// Opcode identifies the operation carried by a frame.
type Opcode byte

// Command opcodes understood by the display firmware.
const (
	OpDrawLine           Opcode = 0x10
	OpDrawString         Opcode = 0x30
	OpChangeLine         Opcode = 0x31
	OpSetBacklight       Opcode = 0x40
	OpDrawRect           Opcode = 0x50
	OpDrawCircle         Opcode = 0x60
	OpClearScreen        Opcode = 0x70
	OpClearLine          Opcode = 0x71
	OpSetBackgroundColor Opcode = 0x80
	OpSetPenColor        Opcode = 0x90
	OpDrawProgress       Opcode = 0xA0
	OpDrawCircularLoader Opcode = 0xA1
	OpIsBusy             Opcode = 0xB0 // Reserved by the firmware, never sent
	OpDrawHistogram      Opcode = 0xC0
	OpDrawHistogramData  Opcode = 0xC1
	OpDrawPieChart       Opcode = 0xC2
)

var opcodeNames = map[Opcode]string{
	OpDrawLine:           "DrawLine",
	OpDrawString:         "DrawString",
	OpChangeLine:         "ChangeLine",
	OpSetBacklight:       "SetBacklight",
	OpDrawRect:           "DrawRect",
	OpDrawCircle:         "DrawCircle",
	OpClearScreen:        "ClearScreen",
	OpClearLine:          "ClearLine",
	OpSetBackgroundColor: "SetBackgroundColor",
	OpSetPenColor:        "SetPenColor",
	OpDrawProgress:       "DrawProgress",
	OpDrawCircularLoader: "DrawCircularLoader",
	OpIsBusy:             "IsBusy",
	OpDrawHistogram:      "DrawHistogram",
	OpDrawHistogramData:  "DrawHistogramData",
	OpDrawPieChart:       "DrawPieChart",
}

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(o))
}

// Known reports whether o is part of the firmware command set.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// ChartKind selects how DrawChart renders its data.
type ChartKind byte

const (
	Histogram ChartKind = 0
	LineChart ChartKind = 1
)

func (k ChartKind) String() string {
	switch k {
	case Histogram:
		return "histogram"
	case LineChart:
		return "linechart"
	}
	return fmt.Sprintf("ChartKind(%d)", byte(k))
}

// Protocol selects the firmware dialect frames are encoded for.
type Protocol int

const (
	// ProtocolV2 is the current firmware: RGB888 colors, fill flag after
	// the coordinates, and whole strings sent in a single frame.
	ProtocolV2 Protocol = iota
	// ProtocolV1 is the legacy firmware: RGB565 colors, fill flag before
	// the coordinates, one frame per character, and a boot delay.
	ProtocolV1
)

func (p Protocol) String() string {
	switch p {
	case ProtocolV2:
		return "v2"
	case ProtocolV1:
		return "v1"
	}
	return fmt.Sprintf("Protocol(%d)", int(p))
}

// ParseProtocol parses the names returned by Protocol.String.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "v2", "":
		return ProtocolV2, nil
	case "v1":
		return ProtocolV1, nil
	}
	return 0, fmt.Errorf("tftlcd: unknown protocol %q", s)
}

// Value ranges accepted by the drawing operations.
const (
	MinLine    = 1
	MaxLine    = 8
	MaxPercent = 100
	MaxColumns = 10
	MaxGroups  = 5
	MaxValues  = 5
	MaxParts   = 10

	minInt16  = -32768
	maxUint16 = 65535
	maxColor  = 0xFFFFFF

	// Labels longer than this are shortened to labelKeep characters plus "...".
	labelLimit = 6
	labelKeep  = 3
)
