package main

import (
	"encoding/json"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/stores/utxo/factory"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/urfave/cli/v2"
)

// loadSettings reads the settings and applies the global flags on top.
func loadSettings(c *cli.Context) (*settings.Settings, error) {
	tSettings := settings.NewSettings()

	if store := c.String("store"); store != "" {
		storeURL, err := url.Parse(store)
		if err != nil {
			return nil, errors.NewConfigurationError("invalid store url %q", store, err)
		}

		tSettings.UtxoStore.URL = storeURL
	}

	if level := c.String("log-level"); level != "" {
		tSettings.LogLevel = level
	}

	return tSettings, nil
}

// newLogger logs to the app's error writer so stdout only carries command output.
func newLogger(c *cli.Context, tSettings *settings.Settings) ulogger.Logger {
	return ulogger.New("utxogate", ulogger.WithLevel(tSettings.LogLevel), ulogger.WithWriter(c.App.ErrWriter))
}

func openStore(c *cli.Context, logger ulogger.Logger, tSettings *settings.Settings) (utxo.Store, func(), error) {
	store, err := factory.NewStore(c.Context, logger, tSettings, "utxogate")
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warnf("failed to close utxo store: %v", err)
			}
		}
	}

	return store, closeFn, nil
}

// openInput opens path for reading, "-" meaning the app's reader.
func openInput(c *cli.Context, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(c.App.Reader), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewProcessingError("failed to open %s", path, err)
	}

	return f, nil
}

func readTransaction(c *cli.Context, path string) (*model.Transaction, error) {
	r, err := openInput(c, path)
	if err != nil {
		return nil, err
	}

	defer r.Close()

	return model.NewTransactionFromReader(r)
}

func readUTXOs(c *cli.Context, path string) ([]*model.UTXO, error) {
	r, err := openInput(c, path)
	if err != nil {
		return nil, err
	}

	defer r.Close()

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return model.NewUTXOsFromCSV(r)
	}

	return model.NewUTXOsFromReader(r)
}

func writeJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return errors.NewProcessingError("failed to write output", err)
	}

	return nil
}
