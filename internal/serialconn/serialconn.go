// Package serialconn drives the display through a USB-serial bridge that
// forwards every write as one frame.
package serialconn

import (
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
	"periph.io/x/conn/v3"
)

// Conn is a write-only conn.Conn over a serial port.
type Conn struct {
	name string
	w    io.WriteCloser
}

// Open opens port at baud, 8N1.
func Open(port string, baud int) (*Conn, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("serialconn: opening %s: %w", port, err)
	}
	return New(port, p), nil
}

// New wraps an already open writer, such as a serial.Port.
func New(name string, w io.WriteCloser) *Conn {
	return &Conn{name: name, w: w}
}

func (c *Conn) String() string {
	return "serial(" + c.name + ")"
}

// Tx writes w. The bridge never answers, so r must be empty.
func (c *Conn) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("serialconn: reads are not supported")
	}
	n, err := c.w.Write(w)
	if err != nil {
		return fmt.Errorf("serialconn: %w", err)
	}
	if n != len(w) {
		return fmt.Errorf("serialconn: %w", io.ErrShortWrite)
	}
	return nil
}

// Duplex implements conn.Conn.
func (c *Conn) Duplex() conn.Duplex {
	return conn.Half
}

// Close closes the underlying port.
func (c *Conn) Close() error {
	return c.w.Close()
}

var _ conn.Conn = &Conn{}
