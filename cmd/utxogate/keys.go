package main

import (
	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/signature"
	"github.com/urfave/cli/v2"
)

type keyPair struct {
	PrivateKey string `json:"privateKey"`
	Owner      string `json:"owner"`
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "generate a secp256k1 key pair; owner is the value to use as utxo owner",
		Action: func(c *cli.Context) error {
			signer, err := signature.GenerateSecp256k1Signer()
			if err != nil {
				return err
			}

			return writeJSON(c, keyPair{PrivateKey: signer.PrivateKeyHex(), Owner: signer.Owner()})
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "sign the inputs of a transaction owned by a key and print the transaction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tx",
				Usage:    "transaction JSON file, - for stdin",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key",
				Usage:    "hex private key",
				EnvVars:  []string{"UTXOGATE_KEY"},
				Required: true,
			},
		},
		Action: sign,
	}
}

func sign(c *cli.Context) error {
	tx, err := readTransaction(c, c.String("tx"))
	if err != nil {
		return err
	}

	signer, err := signature.NewSecp256k1SignerFromHex(c.String("key"))
	if err != nil {
		return err
	}

	n, err := signature.SignInputs(tx, signer)
	if err != nil {
		return err
	}

	if n == 0 {
		return errors.NewInvalidArgumentError("no input of transaction %s is owned by %s", tx.ID, signer.Owner())
	}

	return writeJSON(c, tx)
}
