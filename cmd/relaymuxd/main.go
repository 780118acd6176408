// Command relaymuxd is a demo harness for the relaymux runtime: an
// echo-over-WebSocket server and a client that opens one unary route
// against it. It is a demo, not a library package — it exists to exercise
// the runtime end-to-end the way webitel-im-delivery-service's cmd package
// exercises its own service, whose urfave/cli/v2 command-tree shape
// (cmd/cmd.go) this file follows directly.
package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "relaymuxd",
		Usage: "relaymux demo: echo-over-websocket server and client",
		Commands: []*cli.Command{
			serverCmd(),
			clientCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
