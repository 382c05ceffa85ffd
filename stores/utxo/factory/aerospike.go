package factory

import (
	"context"
	"net/url"

	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/stores/utxo/aerospike"
	"github.com/bsv-blockchain/utxogate/ulogger"
)

func init() {
	availableDatabases["aerospike"] = func(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, url *url.URL) (utxo.Store, error) {
		return aerospike.New(ctx, logger, tSettings, url)
	}
}
