package tftlcd

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Frame preamble bytes.
const (
	Preamble0 = 0xFF
	Preamble1 = 0xF9

	headerLen    = 4
	maxParamsLen = 0xFF
)

var (
	// ErrOutOfRange is returned when an argument does not fit the wire format
	// or the documented range of the operation. Nothing is sent in that case.
	ErrOutOfRange = errors.New("tftlcd: value out of range")
	// ErrFrameTooLong is returned when the parameters exceed 255 bytes.
	ErrFrameTooLong = errors.New("tftlcd: frame parameters exceed 255 bytes")
	// ErrBadFrame is returned by ParseFrame for malformed input.
	ErrBadFrame = errors.New("tftlcd: malformed frame")
)

// Frame is one encoded command: preamble, opcode, parameter length and
// parameters.
type Frame []byte

// NewFrame encodes a command frame.
func NewFrame(op Opcode, params []byte) (Frame, error) {
	if len(params) > maxParamsLen {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrFrameTooLong, op, len(params))
	}
	f := make(Frame, headerLen+len(params))
	f[0] = Preamble0
	f[1] = Preamble1
	f[2] = byte(op)
	f[3] = byte(len(params))
	copy(f[headerLen:], params)
	return f, nil
}

// ParseFrame checks the header of b and returns it as a Frame.
// The length field must match the number of trailing bytes exactly.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(b))
	}
	if b[0] != Preamble0 || b[1] != Preamble1 {
		return nil, fmt.Errorf("%w: preamble % X", ErrBadFrame, b[:2])
	}
	if int(b[3]) != len(b)-headerLen {
		return nil, fmt.Errorf("%w: length field %d, have %d parameter bytes", ErrBadFrame, b[3], len(b)-headerLen)
	}
	return Frame(b), nil
}

// Opcode returns the opcode byte of the frame, or 0 when f is shorter than a
// frame header.
func (f Frame) Opcode() Opcode {
	if len(f) < headerLen {
		return 0
	}
	return Opcode(f[2])
}

// Params returns the parameter bytes of the frame, or nil when f is shorter
// than a frame header.
func (f Frame) Params() []byte {
	if len(f) < headerLen {
		return nil
	}
	return f[headerLen:]
}

func (f Frame) String() string {
	if len(f) < headerLen {
		return fmt.Sprintf("Frame(% X)", []byte(f))
	}
	return fmt.Sprintf("%s[% X]", f.Opcode(), f.Params())
}

// params accumulates the parameter bytes of a frame and remembers the first
// range violation so encoders can stay linear.
type params struct {
	b   []byte
	err error
}

func (p *params) u8(v byte) *params {
	p.b = append(p.b, v)
	return p
}

func (p *params) flag(v bool) *params {
	if v {
		return p.u8(0x01)
	}
	return p.u8(0x00)
}

// u16 appends v high byte first. Signed and unsigned 16-bit values are both
// accepted, so v & 0xFFFF is what reaches the device.
func (p *params) u16(name string, v int) *params {
	if p.err == nil && (v < minInt16 || v > maxUint16) {
		p.err = outOfRange(name, v, minInt16, maxUint16)
	}
	p.b = append(p.b, byte(v>>8), byte(v))
	return p
}

// small appends a single byte after checking v is within [lo, hi].
func (p *params) small(name string, v, lo, hi int) *params {
	if p.err == nil && (v < lo || v > hi) {
		p.err = outOfRange(name, v, lo, hi)
	}
	return p.u8(byte(v))
}

// cstring appends the Latin-1 encoding of s followed by a zero byte.
func (p *params) cstring(s string) *params {
	p.b = append(p.b, textBytes(s)...)
	return p.u8(0)
}

func outOfRange(name string, v, lo, hi int) error {
	return fmt.Errorf("%w: %s=%d not in [%d, %d]", ErrOutOfRange, name, v, lo, hi)
}

// textBytes converts s to the single-byte character codes the firmware
// renders. Characters outside Latin-1 are replaced with 0x1A.
func textBytes(s string) []byte {
	// Encoders keep state, so each call gets its own.
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		// ReplaceUnsupported should make this unreachable.
		return []byte(s)
	}
	return b
}

// pieLabel shortens labels longer than labelLimit characters to their first
// labelKeep characters followed by "...".
func pieLabel(s string) string {
	r := []rune(s)
	if len(r) > labelLimit {
		return string(r[:labelKeep]) + "..."
	}
	return s
}
