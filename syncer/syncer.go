// Package syncer reconciles nodes flagged for monitoring in the
// inventory system with the synthetic tests in the monitoring system.
// The inventory always wins: flagged nodes get a test, everything else
// carrying the configured name prefix gets deleted. Both systems are
// only reached through the Inventory and Monitor interfaces; all state
// is re-derived from scratch on every pass.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/ulid"
)

// Inventory lists the nodes flagged for monitoring.
type Inventory interface {
	FlaggedNodes(ctx context.Context) ([]Node, error)
}

type Config struct {
	// Prefix scopes which monitor tests this syncer owns. Only tests
	// whose name starts with Prefix are ever deleted.
	Prefix string

	// Workers bounds concurrent monitor mutations. Zero means one.
	Workers int
}

type Syncer struct {
	log     *slog.Logger
	inv     Inventory
	mon     Monitor
	filter  *AddressFilter
	exec    *Executor
	prefix  string
	metrics *instruments
}

func New(log *slog.Logger, inv Inventory, mon Monitor, cfg Config, promreg prometheus.Registerer) (*Syncer, error) {
	if cfg.Prefix == "" {
		// an empty prefix would make every test in the account deletable
		return nil, errors.New("test name prefix required")
	}
	if inv == nil || mon == nil {
		return nil, errors.New("inventory and monitor required")
	}

	filter, err := NewAddressFilter()
	if err != nil {
		return nil, err
	}

	metrics := newInstruments(promreg)

	return &Syncer{
		log:     log,
		inv:     inv,
		mon:     mon,
		filter:  filter,
		exec:    NewExecutor(mon, cfg.Workers, metrics),
		prefix:  cfg.Prefix,
		metrics: metrics,
	}, nil
}

// RunResult summarizes one pass.
type RunResult struct {
	RunID   string
	Created int
	Deleted int
	Failed  int
	Skipped int // flagged nodes without an eligible address
	Errors  []error
}

// OK reports whether every planned action succeeded.
func (r *RunResult) OK() bool {
	return r != nil && r.Failed == 0
}

// Plan computes the action plan without applying it.
func (s *Syncer) Plan(ctx context.Context) (Plan, error) {
	plan, _, err := s.plan(ctx)
	return plan, err
}

func (s *Syncer) plan(ctx context.Context) (Plan, []Node, error) {
	nodes, err := s.inv.FlaggedNodes(ctx)
	if err != nil {
		return Plan{}, nil, fmt.Errorf("inventory: %w", err)
	}

	tests, err := s.mon.Tests(ctx, s.prefix)
	if err != nil {
		return Plan{}, nil, fmt.Errorf("monitor: %w", err)
	}

	desired, skipped := Desired(nodes, s.filter)

	s.metrics.desired.Set(float64(len(desired)))
	s.metrics.existing.Set(float64(len(tests)))
	s.metrics.skipped.Set(float64(len(skipped)))

	return BuildPlan(s.prefix, desired, tests), skipped, nil
}

// Run performs one reconciliation pass. An error return means neither
// snapshot could be taken and no mutation was attempted; per-action
// failures don't error, they are counted in the RunResult and the plan
// is simply recomputed on the next pass.
func (s *Syncer) Run(ctx context.Context) (*RunResult, error) {
	runID, err := ulid.MakeULID(time.Now())
	if err != nil {
		return nil, err
	}

	log := s.log.With("run", runID.String())
	ctx = logger.NewContext(ctx, log)

	s.metrics.lastRun.SetToCurrentTime()

	plan, skipped, err := s.plan(ctx)
	if err != nil {
		s.metrics.lastOK.Set(0)
		return nil, err
	}

	for _, n := range skipped {
		log.WarnContext(ctx, "node has no eligible address", "node", n.Name, "addresses", n.Addresses)
	}

	res := &RunResult{RunID: runID.String(), Skipped: len(skipped)}

	if plan.Empty() {
		log.InfoContext(ctx, "in sync, nothing to do", "skipped", res.Skipped)
		s.metrics.lastOK.Set(1)
		return res, nil
	}

	log.InfoContext(ctx, "applying plan", "deletes", len(plan.Delete), "creates", len(plan.Create))

	for _, o := range s.exec.Apply(ctx, plan) {
		switch {
		case o.Err != nil:
			res.Failed++
			res.Errors = append(res.Errors, o.Err)
		case o.Action.Op == OpCreate:
			res.Created++
		case o.Action.Op == OpDelete:
			res.Deleted++
		}
	}

	if res.OK() {
		s.metrics.lastOK.Set(1)
	} else {
		s.metrics.lastOK.Set(0)
	}

	log.InfoContext(ctx, "pass complete",
		"created", res.Created, "deleted", res.Deleted,
		"failed", res.Failed, "skipped", res.Skipped)

	return res, nil
}
