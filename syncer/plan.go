package syncer

import (
	"sort"
	"strings"
)

// Node is a monitored network entity from the inventory system. The
// inventory owns it; the syncer only reads it.
type Node struct {
	ID        int
	Name      string
	Addresses []string
}

// Test is a synthetic test in the monitoring system.
type Test struct {
	ID   int64
	Name string
}

// Target is a node that should have a test, together with the address
// the test should point at.
type Target struct {
	Node    Node
	Address string
}

type Op uint8

const (
	OpDelete Op = iota
	OpCreate
)

func (op Op) String() string {
	switch op {
	case OpDelete:
		return "delete"
	case OpCreate:
		return "create"
	}
	return "unknown"
}

// Action is a single mutation against the monitoring system.
type Action struct {
	Op     Op
	Name   string // test name the action affects
	Target string // address to monitor, creates only
	Node   Node   // creates only
	Test   Test   // deletes only
}

// Plan holds the mutations for one pass. Deletes run before creates so
// a test being recreated under a respelled name can't collide with
// itself; each group is sorted by name.
type Plan struct {
	Delete []Action
	Create []Action
}

// Actions returns the plan in application order.
func (p Plan) Actions() []Action {
	actions := make([]Action, 0, p.Len())
	actions = append(actions, p.Delete...)
	actions = append(actions, p.Create...)
	return actions
}

func (p Plan) Len() int { return len(p.Delete) + len(p.Create) }

func (p Plan) Empty() bool { return p.Len() == 0 }

// TestName derives the monitoring test name for a node. Same node,
// same name, every run. The prefix carries its own separator.
func TestName(prefix, nodeName string) string {
	return prefix + nodeName
}

// Desired filters nodes down to the ones that should have a test. A
// node without any eligible address is skipped entirely; it will show
// up in skipped so the operator can see why nothing was created.
func Desired(nodes []Node, filter *AddressFilter) (targets []Target, skipped []Node) {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, n := range sorted {
		addr, ok := filter.FirstEligible(n.Addresses)
		if !ok {
			skipped = append(skipped, n)
			continue
		}
		targets = append(targets, Target{Node: n, Address: addr})
	}
	return targets, skipped
}

// BuildPlan computes the symmetric difference between the desired
// targets and the existing tests, keyed by derived test name. Existing
// tests without the prefix are not ours and are never touched, no
// matter what the desired set looks like. If two nodes derive the same
// test name the first (by node name, then id) wins.
func BuildPlan(prefix string, desired []Target, existing []Test) Plan {
	desiredNames := make(map[string]Target, len(desired))
	order := make([]string, 0, len(desired))
	for _, tgt := range desired {
		name := TestName(prefix, tgt.Node.Name)
		if _, ok := desiredNames[name]; ok {
			continue
		}
		desiredNames[name] = tgt
		order = append(order, name)
	}

	var plan Plan

	existingNames := make(map[string]bool, len(existing))
	for _, t := range existing {
		if !strings.HasPrefix(t.Name, prefix) {
			continue
		}
		existingNames[t.Name] = true
		if _, ok := desiredNames[t.Name]; !ok {
			plan.Delete = append(plan.Delete, Action{Op: OpDelete, Name: t.Name, Test: t})
		}
	}

	for _, name := range order {
		if existingNames[name] {
			continue
		}
		tgt := desiredNames[name]
		plan.Create = append(plan.Create, Action{
			Op:     OpCreate,
			Name:   name,
			Target: tgt.Address,
			Node:   tgt.Node,
		})
	}

	sort.Slice(plan.Delete, func(i, j int) bool { return plan.Delete[i].Name < plan.Delete[j].Name })
	sort.Slice(plan.Create, func(i, j int) bool { return plan.Create[i].Name < plan.Create[j].Name })

	return plan
}
