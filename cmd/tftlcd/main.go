// tftlcd is a command-line tool for the I2C TFT display module.
//
// Usage:
//
//	tftlcd [options] <command> [arguments]
//
// Commands:
//
//	backlight on|off                      Switch the backlight
//	clear                                 Fill the screen with the background color
//	bg <color>                            Set the background color
//	pen <color>                           Set the pen color
//	text <message>                        Write text at the cursor
//	number <n>                            Write a number at the cursor
//	newline                               Move to the next line
//	line <1-8> [message]                  Select a line, optionally writing on it
//	clearline <1-8>                       Erase a line
//	drawline <x0> <y0> <x1> <y1>          Draw a line
//	rect <x0> <y0> <x1> <y1> [fill]       Draw a rectangle
//	circle <x> <y> <r> [fill]             Draw a circle
//	loader <color>                        Show the circular loader
//	progress <0-100>                      Show the loading bar
//	chart <kind> <ymin> <ymax> <cols> <groups>
//	chartdata <col> <label> <v1> [v2..v5]
//	pie <value:label>...                  Draw a pie chart
//	play <script.yaml|script.toml>        Play a script
//	serve                                 Accept commands over HTTP and WebSocket
//
// Colors are written 0xRRGGBB, #RRGGBB or in decimal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/flavioheleno/tftlcd"
	"github.com/flavioheleno/tftlcd/internal/config"
	"github.com/flavioheleno/tftlcd/internal/logging"
	"github.com/flavioheleno/tftlcd/internal/script"
	"github.com/flavioheleno/tftlcd/internal/serialconn"
	"github.com/flavioheleno/tftlcd/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	configPath = flag.String("config", config.DefaultPath, "Configuration file")
	busName    = flag.String("bus", "", "I2C bus name (empty for the first one)")
	address    = flag.String("addr", "", "I2C address, e.g. 0x11 or 0x3D")
	protocol   = flag.String("protocol", "", "Firmware protocol: v1 or v2")
	serialPort = flag.String("serial", "", "Serial port of a USB bridge, instead of I2C")
	baud       = flag.Int("baud", 0, "Serial baud rate")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [arguments]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprint(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "tftlcd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(afero.NewOsFs(), *configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.File, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	// Parse before opening the device so typos do not wait for the boot delay.
	var cmds []script.Command
	switch args[0] {
	case "play":
		if len(args) != 2 {
			return errors.New("usage: play <script>")
		}
		cmds, err = script.Load(afero.NewOsFs(), args[1])
	case "serve":
	default:
		cmds, err = parseCommand(args)
	}
	if err != nil {
		return err
	}

	dev, closeDev, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer closeDev()
	log.Debug().Stringer("dev", dev).Msg("display ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args[0] == "serve" {
		srv := server.New(dev, &server.Options{CORSOrigins: cfg.Server.CORSOrigins})
		return srv.ListenAndServe(ctx, cfg.Server.Listen)
	}
	return script.Run(ctx, dev, cmds)
}

// applyFlags lets command-line options win over the configuration file.
func applyFlags(cfg *config.Config) error {
	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Device.Bus = *busName
		case "addr":
			n, perr := strconv.ParseUint(*address, 0, 16)
			if perr != nil {
				err = fmt.Errorf("-addr: %w", perr)
				return
			}
			cfg.Device.Address = uint16(n)
		case "protocol":
			cfg.Device.Protocol = *protocol
		case "serial":
			cfg.Serial.Port = *serialPort
		case "baud":
			cfg.Serial.Baud = *baud
		case "v":
			if *verbose {
				cfg.Logging.Level = "debug"
			}
		}
	})
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// openDisplay connects to the display through the serial bridge when one is
// configured, or the I2C bus otherwise. The returned function releases the
// transport.
func openDisplay(cfg *config.Config) (*tftlcd.Dev, func() error, error) {
	opts, err := cfg.Opts()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Serial.Port != "" {
		c, err := serialconn.Open(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return nil, nil, err
		}
		dev, err := tftlcd.NewConn(c, opts)
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		return dev, c.Close, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing host: %w", err)
	}
	b, err := i2creg.Open(cfg.Device.Bus)
	if err != nil {
		return nil, nil, fmt.Errorf("opening I2C bus: %w", err)
	}
	if f := cfg.BusSpeed(); f != 0 {
		if err := b.SetSpeed(f); err != nil {
			b.Close()
			return nil, nil, fmt.Errorf("setting I2C speed: %w", err)
		}
	}
	dev, err := tftlcd.NewI2C(b, opts)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return dev, b.Close, nil
}
