// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"io"
	"os"

	"fortio.org/safecast"
	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/vcdgen"
	"github.com/spf13/cobra"
)

type genFlags struct {
	output string
	period int64
	width  int
}

func (g *genFlags) run(a *app, f func(w io.Writer) error) (err error) {
	if g.output == "" || g.output == "-" {
		return f(a.out)
	}
	out, err := os.Create(g.output)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if err = f(out); err == nil {
		a.log.Info("trace generated", "file", g.output)
	}
	return err
}

func newGenCmd(a *app) *cobra.Command {
	g := new(genFlags)
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate synthetic VCD traces",
	}
	cmd.PersistentFlags().StringVarP(&g.output, "output", "o", "", "output file (default stdout)")
	cmd.PersistentFlags().Int64Var(&g.period, "period", 10, "period in ns")
	cmd.PersistentFlags().IntVar(&g.width, "width", 16, "counter width in bits")

	var cycles int
	clock := &cobra.Command{
		Use:   "clock",
		Short: "Generate a clock signal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(a, func(w io.Writer) error { return vcdgen.Clock(w, g.period, cycles) })
		},
	}
	clock.Flags().IntVar(&cycles, "cycles", 50000, "number of clock cycles")

	var from, to int64
	counter := &cobra.Command{
		Use:   "counter",
		Short: "Generate a counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := safecast.Conv[uint64](from)
			if err != nil {
				return errors.Wrap(err, "--from")
			}
			t, err := safecast.Conv[uint64](to)
			if err != nil {
				return errors.Wrap(err, "--to")
			}
			return g.run(a, func(w io.Writer) error { return vcdgen.Counter(w, g.width, g.period, f, t) })
		},
	}
	counter.Flags().Int64Var(&from, "from", 0, "first value")
	counter.Flags().Int64Var(&to, "to", 10000, "last value")

	var bursts int
	zcmp := &cobra.Command{
		Use:   "zcmp",
		Short: "Generate bursts of counts exercising zoom compression",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(a, func(w io.Writer) error { return vcdgen.ZoomCompression(w, g.width, g.period, bursts) })
		},
	}
	zcmp.Flags().IntVar(&bursts, "bursts", 99, "number of bursts")

	cmd.AddCommand(clock, counter, zcmp)
	return cmd
}
