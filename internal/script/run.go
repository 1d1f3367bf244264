package script

import (
	"context"
	"fmt"
	"time"

	"github.com/flavioheleno/tftlcd"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Display is the part of *tftlcd.Dev that commands drive.
type Display interface {
	SetBacklight(on bool) error
	ClearScreen() error
	SetBackgroundColor(rgb uint32) error
	SetPenColor(rgb uint32) error
	ShowString(s string) error
	ShowNumber(n float64) error
	NewLine() error
	SelectLine(line int) error
	WriteLine(line int, s string) error
	WriteLineNumber(line int, n float64) error
	ClearLine(line int) error
	DrawLine(x0, y0, x1, y1 int) error
	DrawRect(x0, y0, x1, y1 int, fill bool) error
	DrawCircle(x, y, r int, fill bool) error
	DrawCircularLoader(rgb uint32) error
	ShowLoadingBar(percent int) error
	DrawChart(kind tftlcd.ChartKind, yMin, yMax, columns, groups int) error
	DrawChartData(column int, label string, values ...int) error
	DrawPieChart(parts ...*tftlcd.Part) error
}

var _ Display = (*tftlcd.Dev)(nil)

// Runner plays commands on a display.
type Runner struct {
	Display Display
	// Clock times wait commands (default: real clock).
	Clock clockwork.Clock
}

// Run plays cmds on disp with the real clock.
func Run(ctx context.Context, disp Display, cmds []Command) error {
	r := &Runner{Display: disp}
	return r.Run(ctx, cmds)
}

// Run validates every command, then plays them in order. It stops at the
// first error or when ctx is done.
func (r *Runner) Run(ctx context.Context, cmds []Command) error {
	if err := ValidateAll(cmds); err != nil {
		return err
	}
	for i := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.exec(ctx, &cmds[i]); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmds[i].Op, err)
		}
	}
	return nil
}

// Exec validates and plays a single command.
func (r *Runner) Exec(ctx context.Context, cmd *Command) error {
	if err := Validate(cmd); err != nil {
		return err
	}
	return r.exec(ctx, cmd)
}

func (r *Runner) exec(ctx context.Context, c *Command) error {
	log.Debug().Str("op", c.Op).Msg("script: exec")

	d := r.Display
	switch c.Op {
	case OpBacklight:
		return d.SetBacklight(*c.On)
	case OpClear:
		return d.ClearScreen()
	case OpBackground:
		return d.SetBackgroundColor(c.Color)
	case OpPen:
		return d.SetPenColor(c.Color)
	case OpText:
		if c.Line > 0 {
			return d.WriteLine(c.Line, c.Text)
		}
		return d.ShowString(c.Text)
	case OpNumber:
		if c.Line > 0 {
			return d.WriteLineNumber(c.Line, c.Number)
		}
		return d.ShowNumber(c.Number)
	case OpNewLine:
		return d.NewLine()
	case OpLine:
		return d.SelectLine(c.Line)
	case OpClearLine:
		return d.ClearLine(c.Line)
	case OpDrawLine:
		return d.DrawLine(c.X0, c.Y0, c.X1, c.Y1)
	case OpRect:
		return d.DrawRect(c.X0, c.Y0, c.X1, c.Y1, c.Fill)
	case OpCircle:
		return d.DrawCircle(c.X, c.Y, c.R, c.Fill)
	case OpLoader:
		return d.DrawCircularLoader(c.Color)
	case OpProgress:
		return d.ShowLoadingBar(c.Percent)
	case OpChart:
		kind := tftlcd.Histogram
		if c.Kind == tftlcd.LineChart.String() {
			kind = tftlcd.LineChart
		}
		return d.DrawChart(kind, c.YMin, c.YMax, c.Columns, c.Groups)
	case OpChartData:
		return d.DrawChartData(c.Column, c.Label, c.Values...)
	case OpPie:
		parts := make([]*tftlcd.Part, len(c.Parts))
		for i, p := range c.Parts {
			parts[i] = &tftlcd.Part{Value: p.Value, Label: p.Label}
		}
		return d.DrawPieChart(parts...)
	case OpWait:
		return r.wait(ctx, time.Duration(c.MS)*time.Millisecond)
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalid, c.Op)
}

func (r *Runner) wait(ctx context.Context, d time.Duration) error {
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	t := clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
