// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command fliplot inspects Value Change Dump files.
//
// It loads VCD files into a signal database and queries it: values at a given
// time, edge search, bit slices, virtual buses and full dumps. It can also
// serve a loaded trace over HTTP, reload a file as it is rewritten by a
// simulator, and generate synthetic test traces.
//
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/internal/config"
	"github.com/raczben/fliplot-sub000/internal/logging"
	"github.com/raczben/fliplot-sub000/radix"
	"github.com/raczben/fliplot-sub000/vcd"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

// app holds the state shared by all subcommands.
type app struct {
	cfgPath   string
	level     string
	colorMode string

	cfg *config.Config
	log *slog.Logger
	out io.Writer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), log: slog.Default(), out: os.Stdout}
	root := &cobra.Command{
		Use:   "fliplot",
		Short: "Value Change Dump inspector",
		Long: `fliplot loads VCD files produced by HDL simulators and queries them:
signal values, transitions, bit slices and virtual buses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "configuration file (.yaml or .toml)")
	pf.StringVar(&a.level, "log-level", "", "log level: trace, debug, info, warn or error")
	pf.StringVar(&a.colorMode, "color", "", "colorize output: auto, always or never")

	root.AddCommand(
		newInfoCmd(a),
		newSignalsCmd(a),
		newValueCmd(a),
		newTransitionCmd(a),
		newSliceCmd(a),
		newBusCmd(a),
		newDumpCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newGenCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.level != "" {
		if !logging.ValidLevel(a.level) {
			return errors.Errorf("invalid log level %q", a.level)
		}
		cfg.Logging.Level = a.level
	}
	if a.colorMode != "" {
		cfg.Display.Color = a.colorMode
	}
	switch cfg.Display.Color {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "", "auto":
	default:
		return errors.Errorf("invalid color mode %q", cfg.Display.Color)
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.log = logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return nil
}

func (a *app) parser() *vcd.Parser {
	return &vcd.Parser{KeepDuplicates: a.cfg.Parser.KeepDuplicates, Logger: a.log}
}

func (a *app) build(t *vcd.Trace) (*fl.SimDB, error) {
	db, err := fl.Load(t, fl.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	if a.cfg.Parser.PadInitial {
		db.PadInitialValue()
	}
	return db, nil
}

// load parses the named VCD file into a new database.
func (a *app) load(name string) (*fl.SimDB, error) {
	t, err := a.parser().ParseFile(name)
	if err != nil {
		return nil, err
	}
	db, err := a.build(t)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	a.log.Debug("trace loaded", "file", name, "signals", len(db.AllSignals()), "now", db.Now)
	return db, nil
}

// radix resolves a radix name or alias, falling back to the configured
// default.
func (a *app) radix(name string) (radix.Radix, string, error) {
	if name == "" {
		return a.cfg.Radix()
	}
	n, prefix := radix.Alias(name)
	r, err := radix.ParseRadix(n)
	return r, prefix, err
}

func lookup(db *fl.SimDB, path string) (*fl.Object, error) {
	o := db.Lookup(path)
	if o == nil {
		return nil, errors.Errorf("signal %s not found", path)
	}
	if !o.IsSignal() {
		return nil, errors.Wrapf(fl.ErrNotSignal, "%s", path)
	}
	return o, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "fliplot version %s\n", color.New(color.FgGreen, color.Bold).Sprint(version))
		},
	}
}
