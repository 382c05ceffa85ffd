// Package main is the utxogate command line.
//
// Usage:
//
//	utxogate keygen
//	utxogate template --owner <pubkey> --inputs 1 --outputs 2 > tx.json
//	utxogate sign --tx tx.json --key <private key hex> > signed.json
//	utxogate validate --tx signed.json --utxos utxos.json
//	utxogate import --utxos utxos.json --store postgres://...
//	utxogate serve --store sqlite:///utxos
//
// Transactions and utxos are read and written as JSON. The utxo store defaults to
// the utxostore setting and can be overridden with --store.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	exitInvalid = 2
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "utxogate",
		Usage: "validate transactions against a utxo pool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Usage:   "utxo store url, overrides the utxostore setting",
				EnvVars: []string{"UTXOGATE_STORE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
			},
		},
		Commands: []*cli.Command{
			validateCommand(),
			importCommand(),
			keygenCommand(),
			signCommand(),
			templateCommand(),
			serveCommand(),
		},
	}
}
