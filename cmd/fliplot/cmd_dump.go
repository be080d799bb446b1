// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

type dumpSignal struct {
	Path    string           `json:"path" yaml:"path" msgpack:"path"`
	ID      string           `json:"id" yaml:"id" msgpack:"id"`
	Type    string           `json:"type" yaml:"type" msgpack:"type"`
	Width   int              `json:"width" yaml:"width" msgpack:"width"`
	Changes []fl.ValueChange `json:"changes" yaml:"changes" msgpack:"changes"`
}

type dumpDoc struct {
	Timescale string       `json:"timescale" yaml:"timescale" msgpack:"timescale"`
	Now       int64        `json:"now" yaml:"now" msgpack:"now"`
	Modules   []string     `json:"modules" yaml:"modules" msgpack:"modules"`
	Signals   []dumpSignal `json:"signals" yaml:"signals" msgpack:"signals"`
}

func newDump(db *fl.SimDB) *dumpDoc {
	d := &dumpDoc{Timescale: db.Timescale, Now: db.Now}
	for _, m := range db.Modules() {
		d.Modules = append(d.Modules, m.Path())
	}
	for _, o := range db.AllSignals() {
		s := o.Signal
		d.Signals = append(d.Signals, dumpSignal{Path: o.Path(), ID: s.ID, Type: s.Type, Width: s.Width, Changes: s.Changes})
	}
	return d
}

func encodeDump(w io.Writer, d *dumpDoc, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(d), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return errors.Wrap(enc.Close(), "encode yaml")
	case "msgpack":
		return errors.Wrap(msgpack.NewEncoder(w).Encode(d), "encode msgpack")
	}
	return errors.Errorf("unknown format %q (valid: json, yaml, msgpack)", format)
}

func newDumpCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Dump the signal database as JSON, YAML or MessagePack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			db, err := a.load(args[0])
			if err != nil {
				return err
			}
			w := a.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "create output file")
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return encodeDump(w, newDump(db), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or msgpack")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
