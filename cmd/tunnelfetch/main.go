// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command tunnelfetch fetches a URL with the retriable tunneled request
// protocol and prints every result until the terminal one.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"code.hybscloud.com/store"
	"code.hybscloud.com/store/internal/config"
	"code.hybscloud.com/store/internal/logging"
	"code.hybscloud.com/store/internal/metrics"
	"code.hybscloud.com/store/tunnelhttp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tunnelfetch:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("tunnelfetch", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	setupLog := logger.WithName("setup")
	setupLog.Info("Config loaded", "config", cfg)

	if cfg.Metrics.Addr != "" {
		serveMetrics(cfg.Metrics.Addr, setupLog)
	}

	req, err := tunnelhttp.NewRequest(cfg.Request.Method, cfg.Request.URL, nil, nil)
	if err != nil {
		return err
	}
	req.Timeout = cfg.Request.Timeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := store.NewQueueDispatcher(store.WithName("main"), store.WithLogger(logger))
	defer d.Close()

	env := fetchEnv{
		client: tunnelhttp.NewClient(http.DefaultClient,
			tunnelhttp.WithClientLogger(logger.WithName("client"))),
		request: tunnelhttp.NewRetriableRequest(req, tunnelhttp.Raw(),
			tunnelhttp.WithRetryCount(cfg.Request.RetryCount),
			tunnelhttp.WithRetryInterval(cfg.Request.RetryInterval),
			tunnelhttp.WithIgnoreTunnelChecks(cfg.Tunnel.IgnoreChecks),
			tunnelhttp.WithLogger(logger.WithName("request"))),
		tunnel: newLocalTunnel(),
	}

	s := store.New(
		store.NewSerialEffectState[fetchState, fetchAction](fetchState{}),
		store.SerialEffect(fetchReducer, store.WithLogger(logger)),
		d,
		func(*store.Store[store.SerialEffectState[fetchState, fetchAction], store.SerialEffectAction[fetchAction]]) fetchEnv {
			return env
		},
		store.WithName("tunnelfetch"),
		store.WithLogger(logger.WithName("store")),
	)
	defer s.Close()

	done := make(chan fetchState, 1)
	printed := 0
	cancel := s.Subscribe(func(st store.SerialEffectState[fetchState, fetchAction]) {
		for ; printed < len(st.Value.Results); printed++ {
			fmt.Println(st.Value.Results[printed])
		}
		if st.Value.Terminal != nil {
			select {
			case done <- st.Value:
			default:
			}
		}
	})
	defer cancel()

	s.Send(store.SerialAction(fetchAction{start: true}))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case st := <-done:
		if !st.Succeeded() {
			return errors.New("request did not succeed")
		}
		return nil
	}
}

func serveMetrics(addr string, logger logr.Logger) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics server stopped")
		}
	}()
}
