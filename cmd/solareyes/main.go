package main

import (
	"github.com/solareyes/solareyes/client/cmd"
	rootcmd "github.com/solareyes/solareyes/cmd"
)

func main() {
	rootcmd.Run(&cmd.ClientCmd{},
		"solareyes",
		"Synchronise SolarWinds nodes with ThousandEyes network tests",
	)
}
