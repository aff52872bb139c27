package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"

	"go.ntppool.org/common/health"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/metricsserver"

	"github.com/solareyes/solareyes/client/config"
)

type syncCmd struct {
	Interval    time.Duration `help:"Keep running, starting a pass every interval. Runs once and exits when unset."`
	Workers     int           `default:"2" help:"Concurrent ThousandEyes mutations"`
	MetricsPort int           `default:"9000" help:"Prometheus metrics port (interval mode only)"`
}

func (cmd *syncCmd) Run(ctx context.Context, cli *ClientCmd) error {
	log := logger.Setup()
	ctx = logger.NewContext(ctx, log)

	cfg, err := cli.settings()
	if err != nil {
		return err
	}

	if cmd.Interval <= 0 {
		return cmd.runOnce(ctx, cli, cfg)
	}
	return cmd.runForever(ctx, cli, cfg)
}

func (cmd *syncCmd) runOnce(ctx context.Context, cli *ClientCmd, cfg *config.Settings) error {
	s, _, err := cli.buildSyncer(cfg, cmd.Workers, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%d of %d actions failed",
			res.Failed, res.Failed+res.Created+res.Deleted)
	}
	return nil
}

func (cmd *syncCmd) runForever(ctx context.Context, cli *ClientCmd, cfg *config.Settings) error {
	log := logger.FromContext(ctx)

	metricssrv := metricsserver.New()
	go func() {
		if err := metricssrv.ListenAndServe(ctx, cmd.MetricsPort); err != nil {
			log.Error("metrics server", "err", err)
		}
	}()
	go health.HealthCheckListener(ctx, 8080, log)

	s, mon, err := cli.buildSyncer(cfg, cmd.Workers, metricssrv.Registry())
	if err != nil {
		return err
	}

	expback := backoff.NewExponentialBackOff()
	expback.InitialInterval = 5 * time.Second
	expback.MaxInterval = cmd.Interval

	for {
		res, err := s.Run(ctx)

		wait := cmd.Interval
		switch {
		case err != nil:
			log.Error("pass failed", "err", err)
			wait = expback.NextBackOff()
			if wait == backoff.Stop || wait > cmd.Interval {
				wait = cmd.Interval
			}
		case !res.OK():
			log.Warn("pass finished with failed actions", "failed", res.Failed)
			expback.Reset()
		default:
			expback.Reset()
		}

		mon.forgetAgents()

		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-time.After(wait):
		}
	}
}
