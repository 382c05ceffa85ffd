package model

import (
	"encoding/json"
	"io"

	"github.com/bsv-blockchain/utxogate/errors"
)

// UTXO is the materialised state of an unspent output.
type UTXO struct {
	Reference Reference `json:"utxoId"`
	Amount    uint64    `json:"amount"`
	Owner     string    `json:"owner"`
}

func NewUTXO(txID string, outputIndex uint32, amount uint64, owner string) *UTXO {
	return &UTXO{
		Reference: NewReference(txID, outputIndex),
		Amount:    amount,
		Owner:     owner,
	}
}

// NewUTXOsFromReader decodes a JSON array of utxos, rejecting unknown fields.
func NewUTXOsFromReader(r io.Reader) ([]*UTXO, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var utxos []*UTXO
	if err := dec.Decode(&utxos); err != nil {
		return nil, errors.NewProcessingError("failed to decode utxos", err)
	}

	for i, u := range utxos {
		if u == nil {
			return nil, errors.NewProcessingError("utxo %d is null", i)
		}
	}

	return utxos, nil
}
