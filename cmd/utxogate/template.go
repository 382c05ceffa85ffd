package main

import (
	"time"

	"github.com/bsv-blockchain/utxogate/model"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func templateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "print a transaction skeleton with a fresh id and the current time",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "inputs",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "outputs",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "owner of every input",
			},
		},
		Action: func(c *cli.Context) error {
			return writeJSON(c, newTemplate(c.Int("inputs"), c.Int("outputs"), c.String("owner"), time.Now()))
		},
	}
}

func newTemplate(inputs, outputs int, owner string, now time.Time) *model.Transaction {
	tx := &model.Transaction{
		ID:        uuid.NewString(),
		Inputs:    make([]model.Input, 0, max(inputs, 0)),
		Outputs:   make([]model.Output, 0, max(outputs, 0)),
		Timestamp: now.UnixMilli(),
	}

	for i := 0; i < inputs; i++ {
		tx.Inputs = append(tx.Inputs, model.Input{Owner: owner})
	}

	for i := 0; i < outputs; i++ {
		tx.Outputs = append(tx.Outputs, model.Output{})
	}

	return tx
}
