package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/stopoverdispatch/internal/api"
	"github.com/local/stopoverdispatch/internal/metrics"
	"github.com/local/stopoverdispatch/internal/pdfdoc"
	"github.com/local/stopoverdispatch/internal/statuscheck"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API used by the desktop UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT or 8080)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	c, err := a.buildService(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	opts := statuscheck.Options{Outbox: c.outbox, PDFEngine: pdfdoc.EngineVersion()}
	if c.redis != nil {
		rdb := c.redis.Client()
		opts.Redis = statuscheck.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	if c.archive != nil {
		opts.Bucket = c.archive
	}
	metrics.Init()

	srv := api.New(api.Options{
		Service:        c.svc,
		Config:         a.state,
		Status:         statuscheck.New(opts),
		UploadDir:      a.cfg.Paths.UploadDir,
		MaxUploadMB:    a.cfg.Server.MaxUploadMB,
		RequestTimeout: a.cfg.Server.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Str("config", a.state.Path()).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}
