package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsv-blockchain/utxogate/services/validator"
	"github.com/bsv-blockchain/utxogate/services/validator/httpimpl"
	"github.com/bsv-blockchain/utxogate/tracing"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the validator over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address, overrides validator_httpListenAddress",
			},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	tSettings, err := loadSettings(c)
	if err != nil {
		return err
	}

	logger := newLogger(c, tSettings)

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if tSettings.Tracing.Enabled {
		if err = tracing.InitTracer(tSettings); err != nil {
			return err
		}

		defer func() {
			if err := tracing.ShutdownTracer(context.Background()); err != nil {
				logger.Errorf("failed to shutdown tracer: %v", err)
			}
		}()
	}

	store, closeStore, err := openStore(c, logger, tSettings)
	if err != nil {
		return err
	}

	defer closeStore()

	service, err := validator.NewService(logger, tSettings, store)
	if err != nil {
		return err
	}

	addr := tSettings.Validator.HTTPListenAddress
	if listen := c.String("listen"); listen != "" {
		addr = listen
	}

	return httpimpl.New(logger, tSettings, service).Start(ctx, addr)
}
