package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flavioheleno/tftlcd/internal/script"
)

const usage = `  backlight on|off                      Switch the backlight
  clear                                 Fill the screen with the background color
  bg <color>                            Set the background color
  pen <color>                           Set the pen color
  text <message>                        Write text at the cursor
  number <n>                            Write a number at the cursor
  newline                               Move to the next line
  line <1-8> [message]                  Select a line, optionally writing on it
  clearline <1-8>                       Erase a line
  drawline <x0> <y0> <x1> <y1>          Draw a line
  rect <x0> <y0> <x1> <y1> [fill]       Draw a rectangle
  circle <x> <y> <r> [fill]             Draw a circle
  loader <color>                        Show the circular loader
  progress <0-100>                      Show the loading bar
  chart <kind> <ymin> <ymax> <cols> <groups>
                                        Set up a histogram or linechart
  chartdata <col> <label> <v1> [v2..v5] Fill a chart column
  pie <value:label>...                  Draw a pie chart
  play <script.yaml|script.toml>        Play a script
  serve                                 Accept commands over HTTP and WebSocket
`

// parseCommand turns the command-line arguments of a drawing command into
// the command it runs.
func parseCommand(args []string) ([]script.Command, error) {
	name, rest := args[0], args[1:]
	a := &argParser{name: name, args: rest}

	var c script.Command
	switch name {
	case "backlight":
		on, err := a.onOff(0)
		if err != nil {
			return nil, err
		}
		c = script.Command{Op: script.OpBacklight, On: &on}
	case "clear":
		c = script.Command{Op: script.OpClear}
	case "bg":
		c = script.Command{Op: script.OpBackground, Color: a.color(0)}
	case "pen":
		c = script.Command{Op: script.OpPen, Color: a.color(0)}
	case "text":
		if len(rest) == 0 {
			return nil, a.usage("<message>")
		}
		c = script.Command{Op: script.OpText, Text: strings.Join(rest, " ")}
	case "number":
		c = script.Command{Op: script.OpNumber, Number: a.number(0)}
	case "newline":
		c = script.Command{Op: script.OpNewLine}
	case "line":
		c = script.Command{Op: script.OpLine, Line: a.integer(0)}
		if len(rest) > 1 {
			c.Op = script.OpText
			c.Text = strings.Join(rest[1:], " ")
		}
	case "clearline":
		c = script.Command{Op: script.OpClearLine, Line: a.integer(0)}
	case "drawline":
		c = script.Command{Op: script.OpDrawLine, X0: a.integer(0), Y0: a.integer(1), X1: a.integer(2), Y1: a.integer(3)}
	case "rect":
		c = script.Command{Op: script.OpRect, X0: a.integer(0), Y0: a.integer(1), X1: a.integer(2), Y1: a.integer(3), Fill: a.fill(4)}
	case "circle":
		c = script.Command{Op: script.OpCircle, X: a.integer(0), Y: a.integer(1), R: a.integer(2), Fill: a.fill(3)}
	case "loader":
		c = script.Command{Op: script.OpLoader, Color: a.color(0)}
	case "progress":
		c = script.Command{Op: script.OpProgress, Percent: a.integer(0)}
	case "chart":
		c = script.Command{
			Op:      script.OpChart,
			Kind:    a.word(0),
			YMin:    a.integer(1),
			YMax:    a.integer(2),
			Columns: a.integer(3),
			Groups:  a.integer(4),
		}
	case "chartdata":
		c = script.Command{Op: script.OpChartData, Column: a.integer(0), Label: a.word(1)}
		for i := 2; i < len(rest); i++ {
			c.Values = append(c.Values, a.integer(i))
		}
	case "pie":
		c = script.Command{Op: script.OpPie}
		for _, arg := range rest {
			value, label, ok := strings.Cut(arg, ":")
			v, err := strconv.Atoi(value)
			if !ok || err != nil {
				return nil, fmt.Errorf("pie: %q is not value:label", arg)
			}
			c.Parts = append(c.Parts, script.Part{Value: v, Label: label})
		}
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}

	if a.err != nil {
		return nil, a.err
	}
	cmds := []script.Command{c}
	if err := script.ValidateAll(cmds); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cmds, nil
}

// argParser reads positional arguments, remembering the first bad one.
type argParser struct {
	name string
	args []string
	err  error
}

func (a *argParser) usage(want string) error {
	return fmt.Errorf("usage: %s %s", a.name, want)
}

func (a *argParser) arg(i int) (string, bool) {
	if i >= len(a.args) {
		if a.err == nil {
			a.err = fmt.Errorf("%s: missing argument %d", a.name, i+1)
		}
		return "", false
	}
	return a.args[i], true
}

func (a *argParser) word(i int) string {
	s, _ := a.arg(i)
	return s
}

func (a *argParser) integer(i int) int {
	s, ok := a.arg(i)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%s: %q is not an integer", a.name, s)
	}
	return n
}

func (a *argParser) number(i int) float64 {
	s, ok := a.arg(i)
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%s: %q is not a number", a.name, s)
	}
	return n
}

func (a *argParser) color(i int) uint32 {
	s, ok := a.arg(i)
	if !ok {
		return 0
	}
	c, err := parseColor(s)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%s: %w", a.name, err)
	}
	return c
}

// fill reads an optional trailing "fill" keyword.
func (a *argParser) fill(i int) bool {
	if i >= len(a.args) {
		return false
	}
	if a.args[i] != "fill" && a.err == nil {
		a.err = a.usage("... [fill]")
	}
	return true
}

func (a *argParser) onOff(i int) (bool, error) {
	switch s, _ := a.arg(i); s {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, a.usage("on|off")
}

var errColor = errors.New("color must be 0xRRGGBB, #RRGGBB or decimal")

// parseColor reads 0xRRGGBB, #RRGGBB or a decimal number.
func parseColor(s string) (uint32, error) {
	var (
		n   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "#"):
		n, err = strconv.ParseUint(s[1:], 16, 32)
	default:
		n, err = strconv.ParseUint(s, 0, 32)
	}
	if err != nil || n > 0xFFFFFF {
		return 0, fmt.Errorf("%w: %q", errColor, s)
	}
	return uint32(n), nil
}
