package model

import (
	"io"
	"strings"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/gocarina/gocsv"
)

// csvUTXO is one row of a utxo CSV file:
//
//	tx_id,output_index,amount,owner
type csvUTXO struct {
	TxID        string `csv:"tx_id"`
	OutputIndex uint32 `csv:"output_index"`
	Amount      uint64 `csv:"amount"`
	Owner       string `csv:"owner"`
}

// NewUTXOsFromCSV decodes utxos from a CSV file with a tx_id,output_index,amount,owner header.
func NewUTXOsFromCSV(r io.Reader) ([]*UTXO, error) {
	var rows []*csvUTXO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.NewProcessingError("failed to decode utxo csv", err)
	}

	utxos := make([]*UTXO, 0, len(rows))

	for i, row := range rows {
		txID := strings.TrimSpace(row.TxID)
		if txID == "" {
			return nil, errors.NewProcessingError("utxo csv row %d has no tx_id", i+1)
		}

		utxos = append(utxos, NewUTXO(txID, row.OutputIndex, row.Amount, strings.TrimSpace(row.Owner)))
	}

	return utxos, nil
}
