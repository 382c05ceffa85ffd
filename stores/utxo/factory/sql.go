package factory

import (
	"context"
	"net/url"

	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/stores/utxo/sql"
	"github.com/bsv-blockchain/utxogate/ulogger"
)

func init() {
	newSQLStore := func(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, url *url.URL) (utxo.Store, error) {
		return sql.New(ctx, logger, tSettings, url)
	}

	availableDatabases["postgres"] = newSQLStore
	availableDatabases["sqlite"] = newSQLStore
	availableDatabases["sqlitememory"] = newSQLStore
}
