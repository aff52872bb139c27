package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.ntppool.org/common/logger"

	"github.com/solareyes/solareyes/client/config"
	"github.com/solareyes/solareyes/client/httpclient"
	"github.com/solareyes/solareyes/solarwinds"
	"github.com/solareyes/solareyes/syncer"
	"github.com/solareyes/solareyes/thousandeyes"
)

// inventory adapts the SolarWinds client to syncer.Inventory.
type inventory struct {
	sw       *solarwinds.Client
	property string
}

func (inv *inventory) FlaggedNodes(ctx context.Context) ([]syncer.Node, error) {
	swNodes, err := inv.sw.FlaggedNodes(ctx, inv.property)
	if err != nil {
		return nil, err
	}

	nodes := make([]syncer.Node, 0, len(swNodes))
	for _, n := range swNodes {
		node := syncer.Node{ID: n.ID, Name: n.Caption}
		if n.IPAddress != "" {
			node.Addresses = []string{n.IPAddress}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// monitor adapts the ThousandEyes client to syncer.Monitor. Created
// tests get the configured defaults and every Enterprise agent in the
// account.
type monitor struct {
	te  *thousandeyes.Client
	cfg *config.Settings

	mu     sync.Mutex
	agents []thousandeyes.AgentRef
}

func (m *monitor) Tests(ctx context.Context, prefix string) ([]syncer.Test, error) {
	all, err := m.te.NetworkTests(ctx)
	if err != nil {
		return nil, err
	}

	tests := make([]syncer.Test, 0, len(all))
	for _, t := range all {
		if !strings.HasPrefix(t.Name, prefix) {
			continue
		}
		tests = append(tests, syncer.Test{ID: t.ID, Name: t.Name})
	}
	return tests, nil
}

func (m *monitor) CreateTest(ctx context.Context, name, target string) error {
	agents, err := m.enterpriseAgents(ctx)
	if err != nil {
		return err
	}

	test := thousandeyes.NetworkTest{
		Name:                name,
		Server:              target,
		Protocol:            m.cfg.Test.Protocol,
		Interval:            m.cfg.Test.Interval,
		AlertsEnabled:       thousandeyes.IntBool(m.cfg.Test.Alerts),
		MTUMeasurements:     true,
		NetworkMeasurements: true,
		BGPMeasurements:     true,
		Agents:              agents,
	}
	if test.Protocol == "TCP" {
		test.Port = m.cfg.Test.Port
	}

	return m.te.CreateNetworkTest(ctx, test)
}

func (m *monitor) DeleteTest(ctx context.Context, t syncer.Test) error {
	return m.te.DeleteNetworkTest(ctx, t.ID)
}

// enterpriseAgents resolves the agent list on first use and caches it
// until forgetAgents. Creating a test without agents is an API error,
// so an account with no Enterprise agents fails here, once, instead of
// once per create.
func (m *monitor) enterpriseAgents(ctx context.Context) ([]thousandeyes.AgentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.agents != nil {
		return m.agents, nil
	}

	agents, err := m.te.Agents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}

	refs := []thousandeyes.AgentRef{}
	for _, a := range agents {
		if a.Type == thousandeyes.AgentTypeEnterprise {
			refs = append(refs, thousandeyes.AgentRef{AgentID: a.ID})
		}
	}
	if len(refs) == 0 {
		return nil, errors.New("no Enterprise agents in the account")
	}

	m.agents = refs
	return refs, nil
}

// forgetAgents drops the cached agent list so the next pass sees
// agents added or retired while the daemon was running.
func (m *monitor) forgetAgents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = nil
}

func (cli *ClientCmd) buildSyncer(cfg *config.Settings, workers int, promreg prometheus.Registerer) (*syncer.Syncer, *monitor, error) {
	sw, err := solarwinds.New(
		cfg.SolarWinds.Host, cfg.SolarWinds.Username, cfg.SolarWinds.Password,
		httpclient.New(httpclient.Options{InsecureTLS: cfg.SolarWinds.InsecureTLS}),
	)
	if err != nil {
		return nil, nil, err
	}

	te, err := thousandeyes.New(
		cfg.ThousandEyes.URL, cfg.ThousandEyes.Email, cfg.ThousandEyes.Token,
		httpclient.New(httpclient.Options{}),
	)
	if err != nil {
		return nil, nil, err
	}

	mon := &monitor{te: te, cfg: cfg}

	s, err := syncer.New(
		logger.Setup(),
		&inventory{sw: sw, property: cfg.SolarWinds.CustomProperty},
		mon,
		syncer.Config{Prefix: cfg.Test.Prefix, Workers: workers},
		promreg,
	)
	if err != nil {
		return nil, nil, err
	}

	return s, mon, nil
}
