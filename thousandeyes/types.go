package thousandeyes

import (
	"fmt"
	"net"
	"strings"
)

// IntBool is a boolean the v6 API encodes as 0 or 1.
type IntBool bool

func (b IntBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *IntBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "1", "true":
		*b = true
	case "0", "false", "null":
		*b = false
	default:
		return fmt.Errorf("thousandeyes: cannot parse %s as boolean", data)
	}
	return nil
}

const AgentTypeEnterprise = "Enterprise"

// Agent is a measurement agent in the account.
type Agent struct {
	ID      int64   `json:"agentId"`
	Name    string  `json:"agentName"`
	Type    string  `json:"agentType"`
	Enabled IntBool `json:"enabled"`
}

// AgentRef attaches an agent to a test.
type AgentRef struct {
	AgentID int64 `json:"agentId"`
}

// NetworkTest is an agent-to-server network test. The API returns the
// server field as "host:port" on reads.
type NetworkTest struct {
	ID                    int64      `json:"testId,omitempty"`
	Name                  string     `json:"testName"`
	Server                string     `json:"server,omitempty"`
	Protocol              string     `json:"protocol,omitempty"`
	Port                  int        `json:"port,omitempty"`
	Interval              int        `json:"interval,omitempty"`
	Enabled               IntBool    `json:"enabled,omitempty"`
	AlertsEnabled         IntBool    `json:"alertsEnabled"`
	BandwidthMeasurements IntBool    `json:"bandwidthMeasurements"`
	MTUMeasurements       IntBool    `json:"mtuMeasurements"`
	NetworkMeasurements   IntBool    `json:"networkMeasurements"`
	BGPMeasurements       IntBool    `json:"bgpMeasurements"`
	Agents                []AgentRef `json:"agents,omitempty"`
}

// ServerHost returns the server without the port the API appends.
func (t NetworkTest) ServerHost() string {
	if host, _, err := net.SplitHostPort(t.Server); err == nil {
		return host
	}
	return t.Server
}
