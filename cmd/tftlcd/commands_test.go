package main

import (
	"testing"

	"github.com/flavioheleno/tftlcd/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	on := true
	tests := []struct {
		args []string
		want script.Command
	}{
		{[]string{"backlight", "on"}, script.Command{Op: script.OpBacklight, On: &on}},
		{[]string{"clear"}, script.Command{Op: script.OpClear}},
		{[]string{"bg", "#102030"}, script.Command{Op: script.OpBackground, Color: 0x102030}},
		{[]string{"pen", "0xFF0000"}, script.Command{Op: script.OpPen, Color: 0xFF0000}},
		{[]string{"loader", "65280"}, script.Command{Op: script.OpLoader, Color: 0x00FF00}},
		{[]string{"text", "hello", "world"}, script.Command{Op: script.OpText, Text: "hello world"}},
		{[]string{"number", "-2.5"}, script.Command{Op: script.OpNumber, Number: -2.5}},
		{[]string{"newline"}, script.Command{Op: script.OpNewLine}},
		{[]string{"line", "3"}, script.Command{Op: script.OpLine, Line: 3}},
		{[]string{"line", "3", "hi", "there"}, script.Command{Op: script.OpText, Line: 3, Text: "hi there"}},
		{[]string{"clearline", "8"}, script.Command{Op: script.OpClearLine, Line: 8}},
		{[]string{"drawline", "0", "0", "319", "-1"}, script.Command{Op: script.OpDrawLine, X1: 319, Y1: -1}},
		{[]string{"rect", "1", "2", "3", "4", "fill"}, script.Command{Op: script.OpRect, X0: 1, Y0: 2, X1: 3, Y1: 4, Fill: true}},
		{[]string{"circle", "100", "50", "20"}, script.Command{Op: script.OpCircle, X: 100, Y: 50, R: 20}},
		{[]string{"progress", "40"}, script.Command{Op: script.OpProgress, Percent: 40}},
		{[]string{"chart", "linechart", "-10", "100", "3", "2"},
			script.Command{Op: script.OpChart, Kind: "linechart", YMin: -10, YMax: 100, Columns: 3, Groups: 2}},
		{[]string{"chartdata", "1", "Mon", "20", "35"},
			script.Command{Op: script.OpChartData, Column: 1, Label: "Mon", Values: []int{20, 35}}},
		{[]string{"pie", "30:rent", "20:groceries"},
			script.Command{Op: script.OpPie, Parts: []script.Part{{Value: 30, Label: "rent"}, {Value: 20, Label: "groceries"}}}},
	}

	for _, tt := range tests {
		got, err := parseCommand(tt.args)
		require.NoError(t, err, "%v", tt.args)
		require.Len(t, got, 1)
		assert.Equal(t, tt.want, got[0], "%v", tt.args)
	}
}

func TestParseCommandErrors(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"blink"},
		{"backlight", "maybe"},
		{"backlight"},
		{"bg", "red"},
		{"pen", "0x1000000"},
		{"text"},
		{"line"},
		{"line", "9"},
		{"drawline", "1", "2", "3"},
		{"rect", "1", "2", "3", "4", "solid"},
		{"progress", "half"},
		{"chart", "pie", "0", "10", "1", "1"},
		{"chartdata", "1", "Mon"},
		{"pie", "30-rent"},
	}

	for _, args := range tests {
		_, err := parseCommand(args)
		require.Error(t, err, "%v", args)
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]uint32{
		"0x123456": 0x123456,
		"#ABCDEF":  0xABCDEF,
		"0":        0,
		"16777215": 0xFFFFFF,
	} {
		got, err := parseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "#", "#GGGGGG", "0x1000000", "-1"} {
		_, err := parseColor(in)
		require.ErrorIs(t, err, errColor, in)
	}
}
