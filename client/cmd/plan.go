package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"go.ntppool.org/common/logger"

	"github.com/solareyes/solareyes/syncer"
)

type planCmd struct{}

func (cmd *planCmd) Run(ctx context.Context, cli *ClientCmd) error {
	log := logger.Setup()
	ctx = logger.NewContext(ctx, log)

	cfg, err := cli.settings()
	if err != nil {
		return err
	}

	s, _, err := cli.buildSyncer(cfg, 1, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	plan, err := s.Plan(ctx)
	if err != nil {
		return err
	}

	if plan.Empty() {
		fmt.Println("in sync, no actions")
		return nil
	}

	for _, a := range plan.Actions() {
		switch a.Op {
		case syncer.OpDelete:
			fmt.Printf("delete %s (test %d)\n", a.Name, a.Test.ID)
		case syncer.OpCreate:
			fmt.Printf("create %s -> %s\n", a.Name, a.Target)
		}
	}
	return nil
}
