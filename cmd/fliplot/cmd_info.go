// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// summary describes a loaded trace.
type summary struct {
	Path      string `json:"path"`
	Timescale string `json:"timescale"`
	Now       int64  `json:"now"`
	Signals   int    `json:"signals"`
	Modules   int    `json:"modules"`
	Changes   int    `json:"changes"`
}

func (s summary) String() string {
	return fmt.Sprintf("%s: timescale %s, end time %d, %d signals, %d modules, %d changes",
		s.Path, s.Timescale, s.Now, s.Signals, s.Modules, s.Changes)
}

func (a *app) summarize(name string) (summary, error) {
	db, err := a.load(name)
	if err != nil {
		return summary{}, err
	}
	s := summary{Path: name, Timescale: db.Timescale, Now: db.Now, Modules: len(db.Modules())}
	sigs := db.AllSignals()
	s.Signals = len(sigs)
	for _, o := range sigs {
		s.Changes += o.Signal.Len()
	}
	return s, nil
}

func newInfoCmd(a *app) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "info FILE...",
		Short: "Summarize VCD files",
		Long:  `Parse one or more VCD files in parallel and print a summary of each.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs <= 0 {
				jobs = runtime.GOMAXPROCS(0)
			}
			// each goroutine writes its own slot
			results := make([]summary, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(min(jobs, len(args)))
			for i, name := range args {
				i, name := i, name
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					s, err := a.summarize(name)
					if err != nil {
						return err
					}
					results[i] = s
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, s := range results {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of files parsed concurrently (default GOMAXPROCS)")
	return cmd
}
