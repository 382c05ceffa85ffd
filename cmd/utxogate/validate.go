package main

import (
	"fmt"

	"github.com/bsv-blockchain/utxogate/services/validator"
	"github.com/urfave/cli/v2"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate a transaction and print the result",
		Description: "Exits with status 2 when the transaction is invalid. With --utxos the utxos are " +
			"added to the store before validating, which is how the in-memory store is seeded.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tx",
				Usage:    "transaction JSON file, - for stdin",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "utxos",
				Usage: "JSON array or .csv file of utxos to add to the store first",
			},
			&cli.BoolFlag{
				Name:  "commit",
				Usage: "apply the transaction to the store when it is valid",
			},
		},
		Action: validate,
	}
}

func validate(c *cli.Context) error {
	tSettings, err := loadSettings(c)
	if err != nil {
		return err
	}

	logger := newLogger(c, tSettings)

	tx, err := readTransaction(c, c.String("tx"))
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(c, logger, tSettings)
	if err != nil {
		return err
	}

	defer closeStore()

	if path := c.String("utxos"); path != "" {
		utxos, err := readUTXOs(c, path)
		if err != nil {
			return err
		}

		if err = store.Create(c.Context, utxos...); err != nil {
			return err
		}

		logger.Infof("added %d utxos to the store", len(utxos))
	}

	service, err := validator.NewService(logger, tSettings, store)
	if err != nil {
		return err
	}

	result, err := service.ValidateTransaction(c.Context, tx)
	if err != nil {
		return err
	}

	if err = writeJSON(c, result); err != nil {
		return err
	}

	if !result.Valid {
		return cli.Exit(fmt.Sprintf("transaction %s is invalid", tx.ID), exitInvalid)
	}

	if c.Bool("commit") {
		if err = store.Apply(c.Context, tx); err != nil {
			return err
		}

		logger.Infof("applied transaction %s", tx.ID)
	}

	return nil
}
