package validator

import (
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/signature"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSig = "valid"

// stubVerifier accepts exactly the signature "valid" and remembers every payload it saw.
type stubVerifier struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (v *stubVerifier) Verify(payload []byte, sig string, _ string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.payloads = append(v.payloads, payload)

	return sig == validSig
}

type acceptAll struct{}

func (acceptAll) Verify([]byte, string, string) bool { return true }

func newTestValidator(t *testing.T) (*Validator, *stubVerifier) {
	verifier := &stubVerifier{}

	v, err := New(verifier)
	require.NoError(t, err)

	return v, verifier
}

func in(txID string, index uint32, sig string) model.Input {
	return model.Input{Reference: model.NewReference(txID, index), Owner: "alice", Signature: sig}
}

func out(amount int64) model.Output {
	return model.Output{Amount: amount, Recipient: "bob"}
}

func newTx(inputs []model.Input, outputs ...model.Output) *model.Transaction {
	return &model.Transaction{
		ID:        "tx",
		Inputs:    inputs,
		Outputs:   outputs,
		Timestamp: 1_700_000_000_000,
	}
}

func poolOf(utxos ...*model.UTXO) *utxo.Snapshot {
	return utxo.NewSnapshot(utxos...)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestValidate(t *testing.T) {
	pool := poolOf(
		model.NewUTXO("A", 0, 100, "alice"),
		model.NewUTXO("A", 1, 40, "alice"),
		model.NewUTXO("B", 0, 60, "alice"),
	)

	tests := []struct {
		name     string
		tx       *model.Transaction
		expected []ValidationError
	}{
		{
			name:     "one input, one output, balanced",
			tx:       newTx([]model.Input{in("A", 0, validSig)}, out(100)),
			expected: nil,
		},
		{
			name:     "several inputs and outputs, balanced",
			tx:       newTx([]model.Input{in("A", 1, validSig), in("B", 0, validSig)}, out(30), out(70)),
			expected: nil,
		},
		{
			name: "negative output is excluded from the output total",
			tx:   newTx([]model.Input{in("A", 0, validSig)}, out(-5)),
			expected: []ValidationError{
				{Kind: NegativeAmount, Index: 0},
				{Kind: AmountMismatch, Index: NoIndex},
			},
		},
		{
			name: "zero output is a missing amount",
			tx:   newTx([]model.Input{in("A", 0, validSig)}, out(100), out(0)),
			expected: []ValidationError{
				{Kind: NegativeAmount, Index: 1},
			},
		},
		{
			name: "same utxo twice, present in the pool",
			tx:   newTx([]model.Input{in("A", 0, validSig), in("A", 0, validSig)}, out(100)),
			expected: []ValidationError{
				{Kind: DoubleSpending, Index: 1},
			},
		},
		{
			name: "same utxo twice, absent from the pool",
			tx:   newTx([]model.Input{in("Z", 0, validSig), in("Z", 0, validSig)}, out(100)),
			expected: []ValidationError{
				{Kind: UtxoNotFound, Index: 0},
				{Kind: DoubleSpending, Index: 1},
				{Kind: AmountMismatch, Index: NoIndex},
			},
		},
		{
			name: "same utxo three times",
			tx:   newTx([]model.Input{in("A", 0, validSig), in("A", 0, validSig), in("A", 0, "bad")}, out(100)),
			expected: []ValidationError{
				{Kind: DoubleSpending, Index: 1},
				{Kind: DoubleSpending, Index: 2},
			},
		},
		{
			name: "missing utxo contributes nothing",
			tx:   newTx([]model.Input{in("A", 0, validSig), in("Z", 9, validSig)}, out(100)),
			expected: []ValidationError{
				{Kind: UtxoNotFound, Index: 1},
			},
		},
		{
			name: "invalid signature still counts towards the input total",
			tx:   newTx([]model.Input{in("A", 0, "bad")}, out(100)),
			expected: []ValidationError{
				{Kind: InvalidSignature, Index: 0},
			},
		},
		{
			name: "every defect is reported in order",
			tx: newTx(
				[]model.Input{in("A", 0, "bad"), in("Z", 0, validSig), in("A", 0, validSig), in("B", 0, validSig)},
				out(-1), out(10), out(0),
			),
			expected: []ValidationError{
				{Kind: InvalidSignature, Index: 0},
				{Kind: UtxoNotFound, Index: 1},
				{Kind: DoubleSpending, Index: 2},
				{Kind: NegativeAmount, Index: 0},
				{Kind: NegativeAmount, Index: 2},
				{Kind: AmountMismatch, Index: NoIndex},
			},
		},
		{
			name:     "empty transaction balances",
			tx:       newTx(nil),
			expected: nil,
		},
		{
			name: "outputs without inputs create value",
			tx:   newTx(nil, out(1)),
			expected: []ValidationError{
				{Kind: AmountMismatch, Index: NoIndex},
			},
		},
		{
			name: "inputs without outputs destroy value",
			tx:   newTx([]model.Input{in("B", 0, validSig)}),
			expected: []ValidationError{
				{Kind: AmountMismatch, Index: NoIndex},
			},
		},
		{
			name: "same txid different index is not a double spend",
			tx:   newTx([]model.Input{in("A", 0, validSig), in("A", 1, validSig)}, out(140)),
		},
	}

	v, _ := newTestValidator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.tx, pool)

			require.Len(t, result.Errors, len(tt.expected), "got %v", result.Errors)

			for i, expected := range tt.expected {
				assert.Equal(t, expected.Kind, result.Errors[i].Kind, "defect %d", i)
				assert.Equal(t, expected.Index, result.Errors[i].Index, "defect %d", i)
				assert.NotEmpty(t, result.Errors[i].Message)
			}

			assert.Equal(t, len(tt.expected) == 0, result.Valid)
			assert.Equal(t, tt.tx.ID, result.TxID)
		})
	}
}

func TestValidateAmountMismatchMessage(t *testing.T) {
	v, _ := newTestValidator(t)

	result := v.Validate(newTx([]model.Input{in("A", 0, validSig)}, out(-5)), poolOf(model.NewUTXO("A", 0, 100, "alice")))

	require.False(t, result.Valid)
	require.Equal(t, []ErrorKind{NegativeAmount, AmountMismatch}, result.Kinds())
	assert.Contains(t, result.Errors[1].Message, "100")
	assert.Contains(t, result.Errors[1].Message, "output total 0")
}

func TestValidateExactlyOneAmountMismatch(t *testing.T) {
	v, _ := newTestValidator(t)

	tx := newTx(
		[]model.Input{in("Z", 0, validSig), in("Z", 1, validSig), in("Z", 0, validSig)},
		out(-1), out(-2), out(3), out(4),
	)

	result := v.Validate(tx, poolOf())

	count := 0

	for _, e := range result.Errors {
		if e.Kind == AmountMismatch {
			count++
		}
	}

	assert.Equal(t, 1, count)
	assert.Equal(t, AmountMismatch, result.Errors[len(result.Errors)-1].Kind)
}

func TestValidateTotalsDoNotOverflow(t *testing.T) {
	v, _ := newTestValidator(t)

	// MaxUint64 + 2 wraps to 1 in 64 bits
	pool := poolOf(
		model.NewUTXO("A", 0, math.MaxUint64, "alice"),
		model.NewUTXO("A", 1, 2, "alice"),
	)

	result := v.Validate(newTx([]model.Input{in("A", 0, validSig), in("A", 1, validSig)}, out(1)), pool)

	require.Equal(t, []ErrorKind{AmountMismatch}, result.Kinds())
	assert.Contains(t, result.Errors[0].Message, "18446744073709551617")
}

func TestValidateLargeOutputsBalance(t *testing.T) {
	v, _ := newTestValidator(t)

	pool := poolOf(model.NewUTXO("A", 0, math.MaxUint64-1, "alice"))

	result := v.Validate(newTx([]model.Input{in("A", 0, validSig)}, out(math.MaxInt64), out(math.MaxInt64)), pool)

	assert.True(t, result.Valid, "%v", result.Errors)
}

func TestValidateIsDeterministic(t *testing.T) {
	v, _ := newTestValidator(t)

	pool := poolOf(model.NewUTXO("A", 0, 100, "alice"))
	tx := newTx([]model.Input{in("A", 0, "bad"), in("Z", 0, validSig), in("A", 0, validSig)}, out(-5), out(7))

	first := v.Validate(tx, pool)
	second := v.Validate(tx, pool)

	assert.Equal(t, first, second)
}

func TestValidateSignsOnePayload(t *testing.T) {
	v, verifier := newTestValidator(t)

	pool := poolOf(model.NewUTXO("A", 0, 10, "alice"), model.NewUTXO("A", 1, 10, "alice"))
	tx := newTx([]model.Input{in("A", 0, validSig), in("Z", 0, validSig), in("A", 1, "bad")}, out(20))

	v.Validate(tx, pool)

	// the missing input is never verified
	require.Len(t, verifier.payloads, 2)
	assert.True(t, bytes.Equal(tx.SigningPayload(), verifier.payloads[0]))
	assert.True(t, bytes.Equal(verifier.payloads[0], verifier.payloads[1]))
}

func TestValidateDoesNotMutate(t *testing.T) {
	v, _ := newTestValidator(t)

	pool := poolOf(model.NewUTXO("A", 0, 100, "alice"))
	tx := newTx([]model.Input{in("A", 0, validSig), in("A", 0, "bad")}, out(100), out(-1))

	before, err := tx.JSON()
	require.NoError(t, err)

	v.Validate(tx, pool)

	after, err := tx.JSON()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.Equal(t, 1, pool.Len())

	u, ok := pool.Get("A", 0)
	require.True(t, ok)
	assert.Equal(t, uint64(100), u.Amount)
}

func TestValidateContractViolations(t *testing.T) {
	v, _ := newTestValidator(t)

	expectInvalidArgumentPanic := func(t *testing.T, fn func()) {
		defer func() {
			r := recover()
			require.NotNil(t, r)

			err, ok := r.(error)
			require.True(t, ok)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		}()

		fn()
	}

	t.Run("nil transaction", func(t *testing.T) {
		expectInvalidArgumentPanic(t, func() { v.Validate(nil, poolOf()) })
	})

	t.Run("nil pool", func(t *testing.T) {
		expectInvalidArgumentPanic(t, func() { v.Validate(newTx(nil), nil) })
	})
}

func TestValidateWithSecp256k1(t *testing.T) {
	alice, err := signature.GenerateSecp256k1Signer()
	require.NoError(t, err)

	mallory, err := signature.GenerateSecp256k1Signer()
	require.NoError(t, err)

	v, err := New(signature.NewSecp256k1Verifier())
	require.NoError(t, err)

	pool := poolOf(model.NewUTXO("A", 0, 100, alice.Owner()))

	newSpend := func() *model.Transaction {
		return &model.Transaction{
			ID:        "spend",
			Inputs:    []model.Input{{Reference: model.NewReference("A", 0), Owner: alice.Owner()}},
			Outputs:   []model.Output{{Amount: 100, Recipient: mallory.Owner()}},
			Timestamp: 1_700_000_000_000,
		}
	}

	t.Run("signed by the owner", func(t *testing.T) {
		tx := newSpend()

		_, err := signature.SignInputs(tx, alice)
		require.NoError(t, err)

		result := v.Validate(tx, pool)
		assert.True(t, result.Valid, "%v", result.Errors)
	})

	t.Run("signature over a different transaction", func(t *testing.T) {
		tx := newSpend()

		_, err := signature.SignInputs(tx, alice)
		require.NoError(t, err)

		tx.Outputs[0].Amount = 99
		tx.Outputs = append(tx.Outputs, model.Output{Amount: 1, Recipient: alice.Owner()})

		result := v.Validate(tx, pool)
		assert.Equal(t, []ErrorKind{InvalidSignature}, result.Kinds())
	})

	t.Run("signed by someone else", func(t *testing.T) {
		tx := newSpend()
		tx.Inputs[0].Signature, err = mallory.Sign(tx.SigningPayload())
		require.NoError(t, err)

		result := v.Validate(tx, pool)
		assert.Equal(t, []ErrorKind{InvalidSignature}, result.Kinds())
	})
}

func TestResult(t *testing.T) {
	v, _ := newTestValidator(t)

	pool := poolOf(model.NewUTXO("A", 0, 100, "alice"))

	t.Run("valid", func(t *testing.T) {
		result := v.Validate(newTx([]model.Input{in("A", 0, validSig)}, out(100)), pool)

		require.True(t, result.Valid)
		assert.NotNil(t, result.Errors)
		assert.Empty(t, result.Errors)
		assert.NoError(t, result.Error())
		assert.False(t, result.Has(AmountMismatch))
	})

	t.Run("invalid", func(t *testing.T) {
		result := v.Validate(newTx([]model.Input{in("A", 0, "bad")}, out(-5)), pool)

		require.False(t, result.Valid)
		assert.True(t, result.Has(InvalidSignature))
		assert.True(t, result.Has(NegativeAmount))
		assert.False(t, result.Has(DoubleSpending))

		err := result.Error()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid))
		assert.Contains(t, err.Error(), "INVALID_SIGNATURE[0]")
		assert.Contains(t, err.Error(), "AMOUNT_MISMATCH")

		var uErr *errors.Error
		require.True(t, errors.As(err, &uErr))
		assert.Equal(t, result.Errors, uErr.GetData("defects"))
	})
}

func BenchmarkValidate(b *testing.B) {
	utxos := make([]*model.UTXO, 0, 100)
	inputs := make([]model.Input, 0, 100)

	for i := uint32(0); i < 100; i++ {
		utxos = append(utxos, model.NewUTXO("A", i, 10, "alice"))
		inputs = append(inputs, in("A", i, validSig))
	}

	pool := poolOf(utxos...)
	tx := newTx(inputs, out(500), out(500))

	v, err := New(acceptAll{})
	require.NoError(b, err)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = v.Validate(tx, pool)
	}
}
