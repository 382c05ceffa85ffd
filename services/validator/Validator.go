// Package validator decides whether a transaction may spend the UTXOs it references.
//
// Validator is the pure decision: given a transaction and an immutable view of the
// pool it returns every defect it finds and never mutates anything. Service puts a
// store, metrics and tracing around it.
package validator

import (
	"fmt"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/signature"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
)

// Validator is safe for concurrent use. The pool passed to Validate must not change
// while the call is in flight; a utxo.Snapshot satisfies that.
type Validator struct {
	verifier signature.Verifier
}

func New(verifier signature.Verifier) (*Validator, error) {
	if verifier == nil {
		return nil, errors.NewInvalidArgumentError("validator needs a signature verifier")
	}

	return &Validator{verifier: verifier}, nil
}

// Validate checks tx against pool and returns all defects found. Inputs are checked
// in order for double spends within tx, existence in the pool and signature validity,
// then outputs for non-positive amounts, then the balance of the two totals.
//
// An input with an invalid signature still counts towards the input total.
//
// A nil tx or pool is a programming error and panics.
func (v *Validator) Validate(tx *model.Transaction, pool utxo.Lookup) *Result {
	if tx == nil {
		panic(errors.NewInvalidArgumentError("validate called with a nil transaction"))
	}

	if pool == nil {
		panic(errors.NewInvalidArgumentError("validate called with a nil utxo pool"))
	}

	var (
		defects     []ValidationError
		inputTotal  uint128
		outputTotal uint128
		payload     []byte
	)

	seen := make(map[string]struct{}, len(tx.Inputs))

	for i, input := range tx.Inputs {
		key := input.Reference.Key()

		if _, ok := seen[key]; ok {
			defects = append(defects, ValidationError{
				Kind:    DoubleSpending,
				Index:   i,
				Message: fmt.Sprintf("input %d spends utxo %s more than once", i, input.Reference),
			})

			continue
		}

		seen[key] = struct{}{}

		u, ok := pool.Get(input.Reference.TxID, input.Reference.OutputIndex)
		if !ok || u == nil {
			defects = append(defects, ValidationError{
				Kind:    UtxoNotFound,
				Index:   i,
				Message: fmt.Sprintf("input %d references utxo %s which is not in the pool", i, input.Reference),
			})

			continue
		}

		if payload == nil {
			payload = tx.SigningPayload()
		}

		if !v.verifier.Verify(payload, input.Signature, input.Owner) {
			defects = append(defects, ValidationError{
				Kind:    InvalidSignature,
				Index:   i,
				Message: fmt.Sprintf("input %d has an invalid signature for owner %q", i, input.Owner),
			})
		}

		inputTotal.add(u.Amount)
	}

	for i, output := range tx.Outputs {
		if output.Amount <= 0 {
			defects = append(defects, ValidationError{
				Kind:    NegativeAmount,
				Index:   i,
				Message: fmt.Sprintf("output %d has non-positive amount %d", i, output.Amount),
			})

			continue
		}

		outputTotal.add(uint64(output.Amount))
	}

	if inputTotal != outputTotal {
		defects = append(defects, ValidationError{
			Kind:    AmountMismatch,
			Index:   NoIndex,
			Message: fmt.Sprintf("input total %s does not equal output total %s", inputTotal, outputTotal),
		})
	}

	return newResult(tx.ID, defects)
}

// uint128 accumulates amounts without overflow for up to 2^64 uint64 terms.
type uint128 struct {
	hi, lo uint64
}

func (u *uint128) add(n uint64) {
	var carry uint64

	u.lo, carry = bits.Add64(u.lo, n, 0)
	u.hi += carry
}

func (u uint128) String() string {
	if u.hi == 0 {
		return strconv.FormatUint(u.lo, 10)
	}

	b := new(big.Int).SetUint64(u.hi)
	b.Lsh(b, 64)

	return b.Or(b, new(big.Int).SetUint64(u.lo)).String()
}
