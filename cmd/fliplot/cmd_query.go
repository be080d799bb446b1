// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/internal/ref"
	"github.com/raczben/fliplot-sub000/radix"
	"github.com/spf13/cobra"
)

func parseTime(s string) (int64, error) {
	t, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid time %q", s)
	}
	return t, nil
}

func newSignalsCmd(a *app) *cobra.Command {
	var modules bool
	cmd := &cobra.Command{
		Use:   "signals FILE",
		Short: "List the signals of a VCD file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.load(args[0])
			if err != nil {
				return err
			}
			if modules {
				for _, m := range db.Modules() {
					fmt.Fprintf(a.out, "%s\tmodule\n", pathColor.Sprint(m.Path()))
				}
			}
			for _, o := range db.AllSignals() {
				fmt.Fprintf(a.out, "%s\t%s\t%d\n", pathColor.Sprint(o.Path()), o.Signal.Type, o.Width())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&modules, "modules", "m", false, "also list modules")
	return cmd
}

func newValueCmd(a *app) *cobra.Command {
	var rdx string
	cmd := &cobra.Command{
		Use:   "value FILE SIGNAL TIME...",
		Short: "Print the value of a signal at the given times",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, prefix, err := a.radix(rdx)
			if err != nil {
				return err
			}
			db, err := a.load(args[0])
			if err != nil {
				return err
			}
			o, err := lookup(db, args[1])
			if err != nil {
				return err
			}
			for _, s := range args[2:] {
				t, err := parseTime(s)
				if err != nil {
					return err
				}
				v, err := o.ValueAt(t, r)
				if err != nil {
					fmt.Fprintf(a.out, "%s@%d = -\n", o.Path(), t)
					continue
				}
				fmt.Fprintf(a.out, "%s@%d = %s\n", o.Path(), t, formatValue(v, prefix))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&rdx, "radix", "r", "", "value radix (bin, hex, u0, s0, float, double, ...)")
	return cmd
}

func newTransitionCmd(a *app) *cobra.Command {
	var (
		edge  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "transition FILE SIGNAL TIME",
		Short: "Find the time of a transition relative to a given time",
		Long: `Find the time of the count-th transition after TIME, or before it if
count is negative. With --edge, only rising or falling edges are considered.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var find func(int64, int, int64) (int64, error)
			db, err := a.load(args[0])
			if err != nil {
				return err
			}
			o, err := lookup(db, args[1])
			if err != nil {
				return err
			}
			switch edge {
			case "any":
				find = o.AnyTime
			case "rising":
				find = o.RisingTime
			case "falling":
				find = o.FallingTime
			default:
				return errors.Errorf("invalid edge %q (valid: any, rising, falling)", edge)
			}
			t, err := parseTime(args[2])
			if err != nil {
				return err
			}
			at, err := find(t, count, db.Now)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d\n", at)
			return nil
		},
	}
	cmd.Flags().StringVarP(&edge, "edge", "e", "any", "transition kind: any, rising or falling")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "transition count, negative to search backward")
	return cmd
}

// signalRange resolves a signal reference with an optional part-select. The
// range flag overrides any range given in the reference.
func signalRange(db *fl.SimDB, reference, rangeFlag string) (*fl.Object, *ref.Range, error) {
	var rng *ref.Range
	name := reference
	if db.Lookup(reference) == nil {
		r, err := ref.Parse(reference)
		if err != nil {
			return nil, nil, err
		}
		name, rng = r.Name(), r.Range
	}
	o, err := lookup(db, name)
	if err != nil {
		return nil, nil, err
	}
	if rangeFlag != "" {
		if rng, err = ref.ParseRange(rangeFlag); err != nil {
			return nil, nil, err
		}
	}
	return o, rng, nil
}

func newSliceCmd(a *app) *cobra.Command {
	var rangeFlag, rdx string
	cmd := &cobra.Command{
		Use:   "slice FILE SIGNAL[RANGE]",
		Short: "Print the timeline of a bit range of a signal",
		Long: `Print the timeline of a bit or a part-select of a bus. The range is given
either in the reference, like top.data[7:4], or with --range.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, prefix, err := a.radix(rdx)
			if err != nil {
				return err
			}
			db, err := a.load(args[0])
			if err != nil {
				return err
			}
			o, rng, err := signalRange(db, args[1], rangeFlag)
			if err != nil {
				return err
			}
			if rng == nil {
				return errors.New("missing bit range")
			}
			c, err := o.CloneRange(rng.MSB, rng.LSB)
			if err != nil {
				return err
			}
			if c.Width() == 1 {
				r, prefix = radix.BinRadix, ""
			}
			return printTimeline(a.out, c, r, prefix)
		},
	}
	cmd.Flags().StringVar(&rangeFlag, "range", "", "bit range, like 7:0 or [3]")
	cmd.Flags().StringVarP(&rdx, "radix", "r", "", "value radix")
	return cmd
}

func newBusCmd(a *app) *cobra.Command {
	var rdx string
	cmd := &cobra.Command{
		Use:   "bus FILE NAME BIT...",
		Short: "Synthesize a virtual bus from single bit signals",
		Long:  `Combine single bit signals into a bus, the first one being bit 0, and print its timeline.`,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, prefix, err := a.radix(rdx)
			if err != nil {
				return err
			}
			db, err := a.load(args[0])
			if err != nil {
				return err
			}
			bits := make([]*fl.Object, 0, len(args)-2)
			for _, p := range args[2:] {
				o, err := lookup(db, p)
				if err != nil {
					return err
				}
				bits = append(bits, o)
			}
			bus, err := db.SynthesizeVirtualBus(bits, args[1])
			if err != nil {
				return err
			}
			return printTimeline(a.out, bus, r, prefix)
		},
	}
	cmd.Flags().StringVarP(&rdx, "radix", "r", "", "value radix")
	return cmd
}
