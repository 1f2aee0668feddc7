package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/assetdb/cli/asset"
	"github.com/nspcc-dev/assetdb/cli/server"
	"github.com/nspcc-dev/assetdb/pkg/config"
	"github.com/urfave/cli"
)

// devVersion is reported by binaries built without the version set via
// ldflags.
const devVersion = "dev"

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "assetdb\nVersion: %s\nGoVersion: %s\n",
		c.App.Version,
		runtime.Version(),
	)
}

// New creates an assetdb instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "assetdb"
	ctl.Version = config.Version
	if ctl.Version == "" {
		ctl.Version = devVersion
	}
	ctl.Usage = "Fungible asset registry"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	ctl.Commands = append(ctl.Commands, asset.NewCommands()...)
	return ctl
}
