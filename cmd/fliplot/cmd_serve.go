// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr      string
		watchFile bool
	)
	cmd := &cobra.Command{
		Use:   "serve [FILE]",
		Short: "Serve a trace over HTTP",
		Long: `Serve a trace over HTTP. FILE, if given, is loaded at startup, and with
--watch reloaded each time it is written. A new trace can be uploaded with
POST /parse-vcd. Clients of the /events websocket are notified of every reload.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if a.cfg.Server.Debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			if watchFile && len(args) == 0 {
				return errors.New("--watch needs a FILE")
			}
			s := newServer(a)
			if len(args) > 0 && !watchFile {
				db, err := a.load(args[0])
				if err != nil {
					return err
				}
				if err = s.set(args[0], db); err != nil {
					return err
				}
			}
			srv := &http.Server{Addr: addr, Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)
			if watchFile {
				name := args[0]
				g.Go(func() error {
					return a.watchTrace(ctx, s, name)
				})
			}
			g.Go(func() error {
				a.log.Info("listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "serve")
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				a.log.Info("shutting down")
				defer s.close()
				return errors.Wrap(srv.Shutdown(sctx), "shutdown")
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration)")
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "reload FILE each time it is written")
	return cmd
}

// watchTrace serves the named file, reloading it each time it is written.
func (a *app) watchTrace(ctx context.Context, s *server, name string) error {
	return watch(ctx, name, a.cfg.Watch.Debounce, func() {
		db, err := a.load(name)
		if err == nil {
			err = s.set(name, db)
		}
		if err != nil {
			a.log.Warn("reload failed", "file", name, "err", err)
			return
		}
		a.log.Info("trace reloaded", "file", name, "now", db.Now)
	})
}
