package cmd

import (
	"context"
	"errors"
	"time"

	"go.ntppool.org/common/logger"

	"github.com/solareyes/solareyes/client/httpclient"
	"github.com/solareyes/solareyes/solarwinds"
	"github.com/solareyes/solareyes/thousandeyes"
)

type apiCmd struct {
	Ok apiOkCmd `cmd:"" help:"Check that both APIs are reachable with the configured credentials"`
}

type apiOkCmd struct{}

func (cmd *apiOkCmd) Run(ctx context.Context, cli *ClientCmd) error {
	log := logger.Setup()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cfg, err := cli.settings()
	if err != nil {
		return err
	}

	sw, err := solarwinds.New(
		cfg.SolarWinds.Host, cfg.SolarWinds.Username, cfg.SolarWinds.Password,
		httpclient.New(httpclient.Options{InsecureTLS: cfg.SolarWinds.InsecureTLS}),
	)
	if err != nil {
		return err
	}

	te, err := thousandeyes.New(
		cfg.ThousandEyes.URL, cfg.ThousandEyes.Email, cfg.ThousandEyes.Token,
		httpclient.New(httpclient.Options{}),
	)
	if err != nil {
		return err
	}

	failed := false

	if err := sw.Status(ctx); err != nil {
		log.Error("solarwinds", "err", err)
		failed = true
	} else {
		log.Info("solarwinds ok", "host", cfg.SolarWinds.Host)
	}

	if err := te.Status(ctx); err != nil {
		log.Error("thousandeyes", "err", err)
		failed = true
	} else {
		log.Info("thousandeyes ok", "url", cfg.ThousandEyes.URL)
	}

	if failed {
		return errors.New("API check failed")
	}
	return nil
}
