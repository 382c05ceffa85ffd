package model

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/bsv-blockchain/utxogate/errors"
)

// Input spends the output named by Reference. Owner is the identity claiming the
// output and Signature authorises the spend over the transaction's signing payload.
type Input struct {
	Reference Reference `json:"utxoId"`
	Owner     string    `json:"owner"`
	Signature string    `json:"signature"`
}

// Output creates a new amount for Recipient. A zero Amount is how a missing amount decodes.
type Output struct {
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
}

type Transaction struct {
	ID        string   `json:"id"`
	Inputs    []Input  `json:"inputs"`
	Outputs   []Output `json:"outputs"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

// NewTransactionFromJSON decodes a single transaction, rejecting unknown fields.
func NewTransactionFromJSON(b []byte) (*Transaction, error) {
	return NewTransactionFromReader(bytes.NewReader(b))
}

func NewTransactionFromReader(r io.Reader) (*Transaction, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	tx := &Transaction{}
	if err := dec.Decode(tx); err != nil {
		return nil, errors.NewTxDecodeError("failed to decode transaction", err)
	}

	return tx, nil
}

// NewTransactionsFromReader decodes a JSON array of transactions, rejecting unknown fields.
func NewTransactionsFromReader(r io.Reader) ([]*Transaction, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var txs []*Transaction
	if err := dec.Decode(&txs); err != nil {
		return nil, errors.NewTxDecodeError("failed to decode transactions", err)
	}

	for i, tx := range txs {
		if tx == nil {
			return nil, errors.NewTxDecodeError("transaction %d is null", i)
		}
	}

	return txs, nil
}

func (tx *Transaction) JSON() ([]byte, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return nil, errors.NewProcessingError("failed to encode transaction %s", tx.ID, err)
	}

	return b, nil
}

// References returns the references spent by the inputs, in input order, duplicates included.
func (tx *Transaction) References() []Reference {
	refs := make([]Reference, len(tx.Inputs))
	for i, in := range tx.Inputs {
		refs[i] = in.Reference
	}

	return refs
}

// NewUTXOs returns the outputs this transaction creates once committed. Output i is
// addressed as (tx.ID, i). Non-positive amounts never reach a committed transaction,
// callers must validate first.
func (tx *Transaction) NewUTXOs() []*UTXO {
	utxos := make([]*UTXO, 0, len(tx.Outputs))

	for i, out := range tx.Outputs {
		if out.Amount <= 0 {
			continue
		}

		// nolint:gosec // G115 output counts never approach 2^32
		utxos = append(utxos, NewUTXO(tx.ID, uint32(i), uint64(out.Amount), out.Recipient))
	}

	return utxos
}
