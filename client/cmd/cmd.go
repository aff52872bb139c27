// Package cmd implements the solareyes command line interface.
package cmd

import (
	"fmt"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/version"

	"github.com/solareyes/solareyes/client/config"
)

func init() {
	logger.ConfigPrefix = "SOLAREYES"
}

type ClientCmd struct {
	ConfigFile string `name:"config" env:"SOLAREYES_CONFIG" default:"solareyes.yaml" help:"Settings file (yaml or .env)"`

	Sync    syncCmd    `cmd:"" help:"Synchronise flagged SolarWinds nodes to ThousandEyes tests"`
	Plan    planCmd    `cmd:"" help:"Show the actions a sync would take, without applying them"`
	API     apiCmd     `cmd:"" help:"API connectivity commands"`
	Version versionCmd `cmd:"" help:"Show version"`
}

func (cli *ClientCmd) settings() (*config.Settings, error) {
	return config.Load(cli.ConfigFile)
}

type versionCmd struct{}

func (cmd *versionCmd) Run() error {
	fmt.Printf("solareyes %s\n", version.Version())
	return nil
}
