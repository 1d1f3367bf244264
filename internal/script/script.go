// Package script describes display commands as data, so they can be played
// from YAML or TOML files and received over the network.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Ops accepted in Command.Op.
const (
	OpBacklight  = "backlight"
	OpClear      = "clear"
	OpBackground = "background"
	OpPen        = "pen"
	OpText       = "text"
	OpNumber     = "number"
	OpNewLine    = "newline"
	OpLine       = "line"
	OpClearLine  = "clearline"
	OpDrawLine   = "drawline"
	OpRect       = "rect"
	OpCircle     = "circle"
	OpLoader     = "loader"
	OpProgress   = "progress"
	OpChart      = "chart"
	OpChartData  = "chartdata"
	OpPie        = "pie"
	OpWait       = "wait"
)

// MaxWaitMS bounds a single wait command, since the display is held for
// its whole length.
const MaxWaitMS = 60000

// ErrInvalid is wrapped by every decoding and validation error.
var ErrInvalid = errors.New("script: invalid command")

// Command is one display operation. Only the fields of its Op are used.
type Command struct {
	Op string `yaml:"op" toml:"op" json:"op" validate:"required,oneof=backlight clear background pen text number newline line clearline drawline rect circle loader progress chart chartdata pie wait"`

	On    *bool  `yaml:"on,omitempty" toml:"on,omitempty" json:"on,omitempty"`
	Color uint32 `yaml:"color,omitempty" toml:"color,omitempty" json:"color,omitempty" validate:"lte=16777215"`

	// Text and number output; Line selects a line first when set.
	Text   string  `yaml:"text,omitempty" toml:"text,omitempty" json:"text,omitempty"`
	Number float64 `yaml:"number,omitempty" toml:"number,omitempty" json:"number,omitempty"`
	Line   int     `yaml:"line,omitempty" toml:"line,omitempty" json:"line,omitempty" validate:"gte=0,lte=8"`

	// Shapes.
	X0   int  `yaml:"x0,omitempty" toml:"x0,omitempty" json:"x0,omitempty" validate:"gte=-32768,lte=65535"`
	Y0   int  `yaml:"y0,omitempty" toml:"y0,omitempty" json:"y0,omitempty" validate:"gte=-32768,lte=65535"`
	X1   int  `yaml:"x1,omitempty" toml:"x1,omitempty" json:"x1,omitempty" validate:"gte=-32768,lte=65535"`
	Y1   int  `yaml:"y1,omitempty" toml:"y1,omitempty" json:"y1,omitempty" validate:"gte=-32768,lte=65535"`
	X    int  `yaml:"x,omitempty" toml:"x,omitempty" json:"x,omitempty" validate:"gte=-32768,lte=65535"`
	Y    int  `yaml:"y,omitempty" toml:"y,omitempty" json:"y,omitempty" validate:"gte=-32768,lte=65535"`
	R    int  `yaml:"r,omitempty" toml:"r,omitempty" json:"r,omitempty" validate:"gte=-32768,lte=65535"`
	Fill bool `yaml:"fill,omitempty" toml:"fill,omitempty" json:"fill,omitempty"`

	Percent int `yaml:"percent,omitempty" toml:"percent,omitempty" json:"percent,omitempty" validate:"gte=0,lte=100"`

	// Charts.
	Kind    string `yaml:"kind,omitempty" toml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=histogram linechart"`
	YMin    int    `yaml:"ymin,omitempty" toml:"ymin,omitempty" json:"ymin,omitempty" validate:"gte=-32768,lte=65535"`
	YMax    int    `yaml:"ymax,omitempty" toml:"ymax,omitempty" json:"ymax,omitempty" validate:"gte=-32768,lte=65535"`
	Columns int    `yaml:"columns,omitempty" toml:"columns,omitempty" json:"columns,omitempty" validate:"gte=0,lte=10"`
	Groups  int    `yaml:"groups,omitempty" toml:"groups,omitempty" json:"groups,omitempty" validate:"gte=0,lte=5"`
	Column  int    `yaml:"column,omitempty" toml:"column,omitempty" json:"column,omitempty" validate:"gte=0,lte=10"`
	Label   string `yaml:"label,omitempty" toml:"label,omitempty" json:"label,omitempty"`
	Values  []int  `yaml:"values,omitempty" toml:"values,omitempty" json:"values,omitempty" validate:"max=5,dive,gte=-32768,lte=65535"`
	Parts   []Part `yaml:"parts,omitempty" toml:"parts,omitempty" json:"parts,omitempty" validate:"max=10,dive"`

	// Pause length of a wait, at most MaxWaitMS.
	MS int `yaml:"ms,omitempty" toml:"ms,omitempty" json:"ms,omitempty" validate:"gte=0,lte=60000"`
}

// Part is one pie chart slice.
type Part struct {
	Value int    `yaml:"value" toml:"value" json:"value" validate:"gte=-32768,lte=65535"`
	Label string `yaml:"label" toml:"label" json:"label"`
}

// Script is the document layout of a script file.
type Script struct {
	Commands []Command `yaml:"commands" toml:"commands" json:"commands" validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateCommand, Command{})
	return v
}

// validateCommand checks the fields an op cannot do without.
func validateCommand(sl validator.StructLevel) {
	c, ok := sl.Current().Interface().(Command)
	if !ok {
		return
	}
	switch c.Op {
	case OpBacklight:
		if c.On == nil {
			sl.ReportError(c.On, "On", "on", "required", "")
		}
	case OpLine, OpClearLine:
		if c.Line == 0 {
			sl.ReportError(c.Line, "Line", "line", "required", "")
		}
	case OpChart:
		if c.Columns == 0 {
			sl.ReportError(c.Columns, "Columns", "columns", "required", "")
		}
		if c.Groups == 0 {
			sl.ReportError(c.Groups, "Groups", "groups", "required", "")
		}
	case OpChartData:
		if c.Column == 0 {
			sl.ReportError(c.Column, "Column", "column", "required", "")
		}
		if len(c.Values) == 0 {
			sl.ReportError(c.Values, "Values", "values", "required", "")
		}
	case OpWait:
		if c.MS == 0 {
			sl.ReportError(c.MS, "MS", "ms", "required", "")
		}
	}
}

// Validate checks cmd without sending anything.
func Validate(cmd *Command) error {
	return wrapValidation(validate.Struct(cmd))
}

// ValidateAll checks every command, naming the first bad one.
func ValidateAll(cmds []Command) error {
	for i := range cmds {
		if err := Validate(&cmds[i]); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs[i] = field + " is required"
		case "oneof":
			msgs[i] = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		case "gte", "min":
			msgs[i] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "lte", "max":
			msgs[i] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s failed %s validation", field, fe.Tag())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Decode reads a script in the format named by the extension of name:
// .yaml, .yml or .toml. Unknown fields are rejected.
func Decode(name string, r io.Reader) ([]Command, error) {
	var doc Script
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
		}
	case ".toml":
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unsupported script format %q", ErrInvalid, name, ext)
	}
	if err := ValidateAll(doc.Commands); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc.Commands, nil
}

// Load reads and validates the script at path.
func Load(fsys afero.Fs, path string) ([]Command, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return Decode(path, bytes.NewReader(data))
}
