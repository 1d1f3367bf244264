package tftlcd

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the 7-bit I2C address of the display module.
	DefaultAddress uint16 = 0x11
	// AltAddress is the address used by some production batches.
	AltAddress uint16 = 0x3D
)

// ErrHalted is returned by every operation after Halt.
var ErrHalted = errors.New("tftlcd: halted")

// processStart approximates the moment the display was powered on when the
// caller does not know better.
var processStart = time.Now()

// Opts is the configuration for the display.
type Opts struct {
	// I2C address, ignored by NewConn (default: DefaultAddress)
	Addr uint16

	// Firmware dialect (default: ProtocolV2)
	Protocol Protocol

	// Timing
	BootDelay    time.Duration // Minimum time since PowerOn before the first frame
	CommandDelay time.Duration // Pause after every frame
	SettleDelay  time.Duration // Extra pause after full-screen redraws

	// When the display was powered on (default: process start)
	PowerOn time.Time

	// Time source for the boot gate and pauses (default: real clock)
	Clock clockwork.Clock
}

// DefaultOpts returns the options matching the given firmware dialect.
func DefaultOpts(p Protocol) *Opts {
	o := &Opts{Addr: DefaultAddress, Protocol: p}
	if p == ProtocolV1 {
		o.BootDelay = 500 * time.Millisecond
		o.CommandDelay = 10 * time.Millisecond
		o.SettleDelay = 100 * time.Millisecond
	}
	return o
}

// Dev is the device handle for the display.
type Dev struct {
	c     conn.Conn
	clock clockwork.Clock

	protocol     Protocol
	commandDelay time.Duration
	settleDelay  time.Duration

	halted bool
}

// NewI2C creates a display connected to an I2C bus at opts.Addr.
//
// opts can be nil to use defaults (ProtocolV2 at DefaultAddress).
// It blocks until opts.BootDelay has elapsed since opts.PowerOn.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = DefaultOpts(ProtocolV2)
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	if addr > 0x7F {
		return nil, fmt.Errorf("tftlcd: I2C address 0x%X is not a 7-bit address", addr)
	}
	return NewConn(&i2c.Dev{Bus: b, Addr: addr}, opts)
}

// NewConn creates a display on an already addressed connection, such as an
// i2c.Dev or a serial bridge.
//
// opts can be nil to use defaults. It blocks until opts.BootDelay has
// elapsed since opts.PowerOn.
func NewConn(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = DefaultOpts(ProtocolV2)
	}
	if c == nil {
		return nil, errors.New("tftlcd: nil connection")
	}
	if opts.Protocol != ProtocolV2 && opts.Protocol != ProtocolV1 {
		return nil, fmt.Errorf("tftlcd: unknown protocol %d", int(opts.Protocol))
	}
	if opts.BootDelay < 0 || opts.CommandDelay < 0 || opts.SettleDelay < 0 {
		return nil, errors.New("tftlcd: delays must not be negative")
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	d := &Dev{
		c:            c,
		clock:        clock,
		protocol:     opts.Protocol,
		commandDelay: opts.CommandDelay,
		settleDelay:  opts.SettleDelay,
	}

	powerOn := opts.PowerOn
	if powerOn.IsZero() {
		powerOn = processStart
	}
	d.waitBoot(powerOn, opts.BootDelay)

	return d, nil
}

// waitBoot blocks until the display firmware had bootDelay to start up.
func (d *Dev) waitBoot(powerOn time.Time, bootDelay time.Duration) {
	if bootDelay <= 0 {
		return
	}
	if remaining := bootDelay - d.clock.Since(powerOn); remaining > 0 {
		log.Debug().Dur("remaining", remaining).Msg("tftlcd: waiting for display boot")
		d.clock.Sleep(remaining)
	}
}

// Protocol returns the firmware dialect frames are encoded for.
func (d *Dev) Protocol() Protocol {
	return d.protocol
}

// send writes a single frame and applies the per-command pause.
func (d *Dev) send(op Opcode, p *params) error {
	if d.halted {
		return ErrHalted
	}
	if p.err != nil {
		return p.err
	}
	f, err := NewFrame(op, p.b)
	if err != nil {
		return err
	}
	return d.tx(f)
}

func (d *Dev) tx(f Frame) error {
	log.Trace().Stringer("op", f.Opcode()).Hex("frame", f).Msg("tftlcd: tx")
	if err := d.c.Tx(f, nil); err != nil {
		return fmt.Errorf("tftlcd: %s: %w", f.Opcode(), err)
	}
	d.pause(d.commandDelay)
	return nil
}

func (d *Dev) pause(delay time.Duration) {
	if delay > 0 {
		d.clock.Sleep(delay)
	}
}

// settle waits for redraws that take the firmware longer than a command.
func (d *Dev) settle() {
	d.pause(d.settleDelay)
}

// Halt switches the backlight off.
// After calling Halt, every operation returns ErrHalted.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	err := d.SetBacklight(false)
	d.halted = true
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("tftlcd.Dev{%s, %s}", d.c, d.protocol)
}

// RGB converts any color to the 0xRRGGBB form the color operations take.
func RGB(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}

var _ conn.Resource = &Dev{}
