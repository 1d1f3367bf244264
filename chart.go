package tftlcd

import "fmt"

// Part is one slice of a pie chart.
type Part struct {
	Value int
	Label string
}

// DrawChart sets up the chart area: the Y axis spans yMin to yMax, with
// columns (1-10) groups of bars, each group holding groups (1-5) values.
func (d *Dev) DrawChart(kind ChartKind, yMin, yMax, columns, groups int) error {
	p := newParams().
		u16("yMin", yMin).
		u16("yMax", yMax).
		small("columns", columns, 1, MaxColumns).
		small("groups", groups, 1, MaxGroups).
		small("kind", int(kind), int(Histogram), int(LineChart))
	if err := d.send(OpDrawHistogram, p); err != nil {
		return err
	}
	d.settle()
	return nil
}

// DrawChartData fills column (1-10) of the chart with up to five values and
// names it label. Missing values are sent as zero.
func (d *Dev) DrawChartData(column int, label string, values ...int) error {
	p := newParams().small("column", column, 1, MaxColumns)
	if p.err == nil && (len(values) == 0 || len(values) > MaxValues) {
		p.err = outOfRange("values", len(values), 1, MaxValues)
	}
	for i := 0; i < MaxValues; i++ {
		v := 0
		if i < len(values) {
			v = values[i]
		}
		p.u16(fmt.Sprintf("values[%d]", i), v)
	}
	p.cstring(label)
	return d.send(OpDrawHistogramData, p)
}

// DrawPieChart draws a pie chart of up to ten parts. A nil part ends the
// list; parts after it are ignored. Labels longer than six characters are
// shortened to three characters followed by "...".
func (d *Dev) DrawPieChart(parts ...*Part) error {
	n := 0
	for n < len(parts) && parts[n] != nil {
		n++
	}

	p := newParams().small("parts", n, 0, MaxParts)
	for i, part := range parts[:n] {
		p.u16(fmt.Sprintf("parts[%d]", i), part.Value)
		p.cstring(pieLabel(part.Label))
	}
	if err := d.send(OpDrawPieChart, p); err != nil {
		return err
	}
	d.settle()
	return nil
}
