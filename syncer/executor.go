package syncer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"go.ntppool.org/common/logger"
)

// Monitor is the surface of the monitoring system the syncer needs.
// Tests only returns tests whose name starts with prefix.
type Monitor interface {
	Tests(ctx context.Context, prefix string) ([]Test, error)
	CreateTest(ctx context.Context, name, target string) error
	DeleteTest(ctx context.Context, test Test) error
}

// Outcome records the result of one applied action.
type Outcome struct {
	Action Action
	Err    error
}

// Executor applies a plan one action at a time. It never retries; a
// failed action is recorded and the rest of the plan still runs.
type Executor struct {
	mon     Monitor
	workers int
	metrics *instruments
}

func NewExecutor(mon Monitor, workers int, metrics *instruments) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{mon: mon, workers: workers, metrics: metrics}
}

// Apply runs every action in the plan and returns one outcome per
// action. All deletes finish before the first create starts.
func (e *Executor) Apply(ctx context.Context, plan Plan) []Outcome {
	outcomes := make([]Outcome, 0, plan.Len())
	outcomes = append(outcomes, e.applyGroup(ctx, plan.Delete)...)
	outcomes = append(outcomes, e.applyGroup(ctx, plan.Create)...)
	return outcomes
}

func (e *Executor) applyGroup(ctx context.Context, actions []Action) []Outcome {
	outcomes := make([]Outcome, len(actions))

	g := new(errgroup.Group)
	g.SetLimit(e.workers)

	for i, a := range actions {
		g.Go(func() error {
			outcomes[i] = Outcome{Action: a, Err: e.apply(ctx, a)}
			return nil
		})
	}
	// group funcs record failures in outcomes and return nil
	_ = g.Wait()

	return outcomes
}

func (e *Executor) apply(ctx context.Context, a Action) error {
	log := logger.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s %s: %w", a.Op, a.Name, err)
	}

	var err error
	switch a.Op {
	case OpDelete:
		err = e.mon.DeleteTest(ctx, a.Test)
	case OpCreate:
		err = e.mon.CreateTest(ctx, a.Name, a.Target)
	default:
		err = fmt.Errorf("unknown op %d", a.Op)
	}

	if err != nil {
		e.metrics.failures.WithLabelValues(a.Op.String()).Inc()
		log.ErrorContext(ctx, "action failed", "op", a.Op.String(), "test", a.Name, "err", err)
		return fmt.Errorf("%s %s: %w", a.Op, a.Name, err)
	}

	switch a.Op {
	case OpDelete:
		e.metrics.deleted.Inc()
		log.InfoContext(ctx, "test deleted", "test", a.Name)
	case OpCreate:
		e.metrics.created.Inc()
		log.InfoContext(ctx, "test created", "test", a.Name, "target", a.Target)
	}

	return nil
}
