package solarwinds

import (
	"context"
	"fmt"
	"regexp"
)

// Node is an Orion node row. Caption is the display name and the
// stable identity the synchroniser keys on.
type Node struct {
	ID        int    `json:"NodeID"`
	Caption   string `json:"Caption"`
	IPAddress string `json:"IPAddress"`
}

// The custom property name is spliced into the query text (SWQL has no
// bind parameters for identifiers), so it is restricted to a plain
// identifier.
var propertyNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const flaggedNodesQuery = "SELECT n.NodeID, n.Caption, n.IPAddress " +
	"FROM Orion.Nodes n WHERE n.CustomProperties.%s = TRUE " +
	"ORDER BY n.Caption, n.NodeID"

// FlaggedNodes returns the nodes whose custom boolean property is set.
func (c *Client) FlaggedNodes(ctx context.Context, property string) ([]Node, error) {
	if !propertyNameRe.MatchString(property) {
		return nil, fmt.Errorf("solarwinds: invalid custom property name %q", property)
	}

	var nodes []Node
	if err := c.Query(ctx, fmt.Sprintf(flaggedNodesQuery, property), nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}
