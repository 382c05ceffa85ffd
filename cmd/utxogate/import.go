package main

import (
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "add utxos to a persistent store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "utxos",
				Usage:    "JSON array of utxos, or a .csv file with a tx_id,output_index,amount,owner header, - for stdin",
				Required: true,
			},
		},
		Action: importUTXOs,
	}
}

func importUTXOs(c *cli.Context) error {
	tSettings, err := loadSettings(c)
	if err != nil {
		return err
	}

	logger := newLogger(c, tSettings)

	utxos, err := readUTXOs(c, c.String("utxos"))
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(c, logger, tSettings)
	if err != nil {
		return err
	}

	defer closeStore()

	if tSettings.UtxoStore.URL.Scheme == "memory" {
		logger.Warnf("importing into the in-memory store, the utxos are gone when this command exits")
	}

	if err = store.Create(c.Context, utxos...); err != nil {
		return err
	}

	logger.Infof("imported %d utxos into %s", len(utxos), tSettings.UtxoStore.URL.Redacted())

	return nil
}
