package main

import (
	"log/slog"
	"net/http"

	"github.com/relaymux/relaymux"
	relayws "github.com/relaymux/relaymux/transport/ws"
	"github.com/urfave/cli/v2"
)

// serverCmd runs an echo-over-WebSocket relaymux Endpoint, grounded on
// webitel-im-delivery-service/internal/handler/ws/delivery.go's upgrade +
// per-connection pump shape (cmd/cmd.go's serverCmd() is the direct model
// for this command's structure).
func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "run the relaymux echo demo server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config_file", Usage: "path to a config file"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadDemoConfig(c.String("config_file"))
			if err != nil {
				return err
			}

			logger := slog.Default()
			rcfg := relaymux.DefaultConfig()
			rcfg.AckDeadline = cfg.AckDeadline
			rcfg.ClientSilentDeadline = cfg.SilentWindow

			ep := relaymux.NewEndpoint[echoResponse, echoRequest](echoRouteKey, rcfg, func() *relaymux.Service[echoResponse, echoRequest] {
				return relaymux.NewOnceService[echoResponse, echoRequest]()
			}).WithLogger(logger).WithHandler(echoSession)

			mux := http.NewServeMux()
			mux.HandleFunc("/relaymux", func(w http.ResponseWriter, r *http.Request) {
				sock, connID, err := relayws.Accept(w, r, logger)
				if err != nil {
					logger.Error("relaymuxd: accept failed", "error", err)
					return
				}
				logger.Info("relaymuxd: connection accepted", "conn_id", connID)
				ep.Start(sock)
			})

			logger.Info("relaymuxd: listening", "addr", cfg.ListenAddr)
			return http.ListenAndServe(cfg.ListenAddr, mux)
		},
	}
}

// echoSession is the Endpoint's WithHandler callback: it takes the single
// inbound echoRequest and loads back an echoResponse carrying the same
// value, demonstrating the Endpoint-side half of a once Service.
func echoSession(task *relaymux.Task, svc *relaymux.Service[echoResponse, echoRequest]) {
	req, err := svc.TakeExternal(task)
	if err != nil {
		return
	}
	svc.LoadInternal(echoResponse{Value: req.Value})
}
