// oasmock CLI - mock server for OpenAPI documents
package main

import (
	"context"
	"os"

	"github.com/getmockd/oasmock/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	return cli.Run(context.Background(), os.Args[1:])
}
