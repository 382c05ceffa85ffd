package factory

import (
	"context"
	"net/url"

	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/stores/utxo/memory"
	"github.com/bsv-blockchain/utxogate/ulogger"
)

func init() {
	availableDatabases["memory"] = func(_ context.Context, logger ulogger.Logger, tSettings *settings.Settings, _ *url.URL) (utxo.Store, error) {
		return memory.New(logger, tSettings.UtxoStore.InitialCapacity), nil
	}
}
