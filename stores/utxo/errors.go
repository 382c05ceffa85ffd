package utxo

import (
	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
)

func NewErrUtxoNotFound(ref model.Reference) error {
	err := errors.New(errors.ERR_UTXO_NOT_FOUND, "utxo %s not found", ref)
	err.SetData("utxo", ref.String())

	return err
}

func NewErrUtxoAlreadyExists(ref model.Reference) error {
	err := errors.New(errors.ERR_UTXO_ALREADY_EXISTS, "utxo %s already exists", ref)
	err.SetData("utxo", ref.String())

	return err
}

// NewErrSpent is returned by Apply when an input refers to a utxo that is no longer in the pool.
func NewErrSpent(ref model.Reference, spendingTxID string) error {
	err := errors.New(errors.ERR_UTXO_SPENT, "utxo %s already spent or missing, spending tx %s", ref, spendingTxID)
	err.SetData("utxo", ref.String())
	err.SetData("spending_tx_id", spendingTxID)

	return err
}

// CheckNotNil returns ErrInvalidArgument for the first nil utxo.
func CheckNotNil(utxos []*model.UTXO) error {
	for i, u := range utxos {
		if u == nil {
			return errors.NewInvalidArgumentError("utxo %d of %d is nil", i, len(utxos))
		}
	}

	return nil
}
