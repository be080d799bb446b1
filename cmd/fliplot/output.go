// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
)

var (
	unknownColor = color.New(color.FgRed, color.Bold)
	highZColor   = color.New(color.FgYellow)
	pathColor    = color.New(color.FgCyan)
)

// colorValue highlights values holding unknown or high impedance bits.
func colorValue(s string) string {
	switch {
	case strings.ContainsAny(s, "xXuU"):
		return unknownColor.Sprint(s)
	case strings.ContainsAny(s, "zZ"):
		return highZColor.Sprint(s)
	}
	return s
}

func formatValue(v radix.Value, prefix string) string {
	if v.IsNumber() {
		return prefix + v.String()
	}
	return prefix + colorValue(v.String())
}

// printTimeline writes one "time value" line per change of o.
func printTimeline(w io.Writer, o *fl.Object, r radix.Radix, prefix string) error {
	fmt.Fprintf(w, "%s (%d bits)\n", pathColor.Sprint(o.Path()), o.Width())
	for i, c := range o.Signal.Changes {
		v, err := o.ValueAtIndex(i, r)
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(w, "%d\t%s\n", c.Time, formatValue(v, prefix)); err != nil {
			return err
		}
	}
	return nil
}
