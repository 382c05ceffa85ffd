package validator

import (
	"fmt"
	"strings"

	"github.com/bsv-blockchain/utxogate/errors"
)

// ErrorKind is the machine checkable part of a ValidationError. The set is closed.
type ErrorKind string

const (
	DoubleSpending   ErrorKind = "DOUBLE_SPENDING"
	UtxoNotFound     ErrorKind = "UTXO_NOT_FOUND"
	InvalidSignature ErrorKind = "INVALID_SIGNATURE"
	NegativeAmount   ErrorKind = "NEGATIVE_AMOUNT"
	AmountMismatch   ErrorKind = "AMOUNT_MISMATCH"
)

// ErrorKinds lists every kind in the order defects of that kind can first appear.
var ErrorKinds = []ErrorKind{DoubleSpending, UtxoNotFound, InvalidSignature, NegativeAmount, AmountMismatch}

// NoIndex is the index of a defect that belongs to the whole transaction.
const NoIndex = -1

// ValidationError is a single defect found in a transaction. Index is the input
// index for input defects, the output index for NEGATIVE_AMOUNT and NoIndex for
// AMOUNT_MISMATCH. Message is diagnostic only.
type ValidationError struct {
	Kind    ErrorKind `json:"kind"`
	Index   int       `json:"index"`
	Message string    `json:"message"`
}

func (e ValidationError) String() string {
	if e.Index == NoIndex {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s[%d]: %s", e.Kind, e.Index, e.Message)
}

// Result is the outcome of validating one transaction. Valid is true iff Errors is empty.
type Result struct {
	TxID   string            `json:"txId"`
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

func newResult(txID string, defects []ValidationError) *Result {
	if defects == nil {
		defects = []ValidationError{}
	}

	return &Result{
		TxID:   txID,
		Valid:  len(defects) == 0,
		Errors: defects,
	}
}

// Has reports whether the result contains a defect of the given kind.
func (r *Result) Has(kind ErrorKind) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}

	return false
}

// Kinds returns the kind of every defect, in order.
func (r *Result) Kinds() []ErrorKind {
	kinds := make([]ErrorKind, len(r.Errors))
	for i, e := range r.Errors {
		kinds[i] = e.Kind
	}

	return kinds
}

// Error returns nil for a valid result, otherwise an ErrTxInvalid error listing
// every defect. The defects are also attached as data under "defects".
func (r *Result) Error() error {
	if r.Valid {
		return nil
	}

	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = e.String()
	}

	err := errors.New(errors.ERR_TX_INVALID, "transaction %s is invalid: %s", r.TxID, strings.Join(lines, "; "))
	err.SetData("defects", r.Errors)

	return err
}
