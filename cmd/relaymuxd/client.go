package main

import (
	"fmt"
	"log/slog"

	"github.com/relaymux/relaymux"
	relayws "github.com/relaymux/relaymux/transport/ws"
	"github.com/urfave/cli/v2"
)

// clientCmd opens one unary session against the echo demo server and
// prints the reply, exercising Initiate end-to-end.
func clientCmd() *cli.Command {
	return &cli.Command{
		Name:    "client",
		Aliases: []string{"c"},
		Usage:   "send one echo request to the relaymux demo server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config_file", Usage: "path to a config file"},
			&cli.StringFlag{Name: "message", Value: "hello", Usage: "value to echo"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadDemoConfig(c.String("config_file"))
			if err != nil {
				return err
			}

			logger := slog.Default()
			sock, err := relayws.Dial(cfg.DialURL, logger)
			if err != nil {
				return err
			}

			rcfg := relaymux.DefaultConfig()
			rcfg.AckDeadline = cfg.AckDeadline
			rcfg.ServerSilentDeadline = cfg.SilentWindow

			initiate := relaymux.NewInitiate[echoRequest, echoResponse](echoRouteKey, rcfg, func() *relaymux.Service[echoRequest, echoResponse] {
				return relaymux.NewOnceService[echoRequest, echoResponse]()
			}).WithLogger(logger)

			task, svc := initiate.Start(sock)
			svc.LoadInternal(echoRequest{Value: c.String("message")})
			svc.CloseInternal()

			reply, err := svc.TakeExternal(task)
			if err != nil {
				return err
			}
			fmt.Println(reply.Value)

			<-task.Done()
			return nil
		},
	}
}
