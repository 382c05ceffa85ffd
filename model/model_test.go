package model

import (
	"encoding/hex"
	"math"
	"strings"
	"testing"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceKey(t *testing.T) {
	t.Run("equal references share a key", func(t *testing.T) {
		assert.Equal(t, NewReference("A", 0).Key(), NewReference("A", 0).Key())
	})

	t.Run("ambiguous separators do not collide", func(t *testing.T) {
		// a naive "txid:index" join maps both of these to "a:1:2"
		r1 := NewReference("a:1", 2)
		r2 := NewReference("a", 12)
		r3 := Reference{TxID: "a:1:", OutputIndex: 2}

		keys := map[string]struct{}{r1.Key(): {}, r2.Key(): {}, r3.Key(): {}}
		assert.Len(t, keys, 3)
	})

	t.Run("index is part of the key", func(t *testing.T) {
		assert.NotEqual(t, NewReference("A", 0).Key(), NewReference("A", 1).Key())
	})
}

func testTransaction() *Transaction {
	return &Transaction{
		ID: "t",
		Inputs: []Input{
			{Reference: NewReference("a", 1), Owner: "o", Signature: "sig"},
		},
		Outputs: []Output{
			{Amount: 5, Recipient: "r"},
		},
		Timestamp: 2,
	}
}

func TestSigningPayload(t *testing.T) {
	t.Run("golden encoding", func(t *testing.T) {
		expected := "5554584701" + "0174" + "01" + "0161" + "01000000" + "016f" + "01" + "0500000000000000" + "0172" + "0200000000000000"
		assert.Equal(t, expected, hex.EncodeToString(testTransaction().SigningPayload()))
	})

	t.Run("signatures are excluded", func(t *testing.T) {
		tx1 := testTransaction()
		tx2 := testTransaction()
		tx2.Inputs[0].Signature = "something else entirely"

		assert.Equal(t, tx1.SigningPayload(), tx2.SigningPayload())
		assert.Equal(t, tx1.SigningHash(), tx2.SigningHash())
	})

	t.Run("every signed field changes the payload", func(t *testing.T) {
		base := testTransaction().SigningPayload()

		mutations := map[string]func(tx *Transaction){
			"id":           func(tx *Transaction) { tx.ID = "u" },
			"input txid":   func(tx *Transaction) { tx.Inputs[0].Reference.TxID = "b" },
			"input index":  func(tx *Transaction) { tx.Inputs[0].Reference.OutputIndex = 2 },
			"input owner":  func(tx *Transaction) { tx.Inputs[0].Owner = "p" },
			"output value": func(tx *Transaction) { tx.Outputs[0].Amount = -5 },
			"recipient":    func(tx *Transaction) { tx.Outputs[0].Recipient = "s" },
			"timestamp":    func(tx *Transaction) { tx.Timestamp = 3 },
			"extra output": func(tx *Transaction) { tx.Outputs = append(tx.Outputs, Output{Amount: 1}) },
		}

		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				tx := testTransaction()
				mutate(tx)
				assert.NotEqual(t, base, tx.SigningPayload())
			})
		}
	})

	t.Run("field boundaries are unambiguous", func(t *testing.T) {
		tx1 := testTransaction()
		tx1.ID = "ab"
		tx1.Inputs[0].Owner = "c"

		tx2 := testTransaction()
		tx2.ID = "a"
		tx2.Inputs[0].Owner = "bc"

		assert.NotEqual(t, tx1.SigningPayload(), tx2.SigningPayload())
	})

	t.Run("hash is 32 bytes", func(t *testing.T) {
		assert.Len(t, testTransaction().SigningHash(), 32)
	})
}

func TestNewTransactionFromJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		b, err := testTransaction().JSON()
		require.NoError(t, err)

		tx, err := NewTransactionFromJSON(b)
		require.NoError(t, err)
		assert.Equal(t, testTransaction(), tx)
	})

	t.Run("missing amount decodes as zero", func(t *testing.T) {
		tx, err := NewTransactionFromJSON([]byte(`{"id":"x","inputs":[],"outputs":[{"recipient":"bob"}],"timestamp":1}`))
		require.NoError(t, err)
		assert.Equal(t, int64(0), tx.Outputs[0].Amount)
	})

	t.Run("fractional amount is rejected", func(t *testing.T) {
		_, err := NewTransactionFromJSON([]byte(`{"id":"x","outputs":[{"amount":1.5,"recipient":"bob"}]}`))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxDecode))
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := NewTransactionFromJSON([]byte(`{"id":"x","fee":10}`))
		require.Error(t, err)
	})
}

func TestNewTransactionsFromReader(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		txs, err := NewTransactionsFromReader(strings.NewReader(`[{"id":"a"},{"id":"b","timestamp":3}]`))
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "b", txs[1].ID)
		assert.Equal(t, int64(3), txs[1].Timestamp)
	})

	t.Run("null element", func(t *testing.T) {
		_, err := NewTransactionsFromReader(strings.NewReader(`[{"id":"a"},null]`))
		assert.True(t, errors.Is(err, errors.ErrTxDecode))
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := NewTransactionsFromReader(strings.NewReader(`{"id":"a"}`))
		assert.True(t, errors.Is(err, errors.ErrTxDecode))
	})
}

func TestNewUTXOsFromReader(t *testing.T) {
	utxos, err := NewUTXOsFromReader(strings.NewReader(`[{"utxoId":{"txId":"a","outputIndex":2},"amount":7,"owner":"o"}]`))
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, NewUTXO("a", 2, 7, "o"), utxos[0])

	_, err = NewUTXOsFromReader(strings.NewReader(`[{"utxoId":{"txId":"a"},"amount":-1}]`))
	require.Error(t, err)

	_, err = NewUTXOsFromReader(strings.NewReader(`[null]`))
	require.Error(t, err)
}

func TestNewUTXOsFromCSV(t *testing.T) {
	utxos, err := NewUTXOsFromCSV(strings.NewReader("tx_id,output_index,amount,owner\na,2,7,o\nb,0,18446744073709551615,p\n"))
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	assert.Equal(t, NewUTXO("a", 2, 7, "o"), utxos[0])
	assert.Equal(t, NewUTXO("b", 0, math.MaxUint64, "p"), utxos[1])

	_, err = NewUTXOsFromCSV(strings.NewReader("tx_id,output_index,amount,owner\na,0,-1,o\n"))
	assert.True(t, errors.Is(err, errors.ErrProcessing))

	_, err = NewUTXOsFromCSV(strings.NewReader("tx_id,output_index,amount,owner\n,0,1,o\n"))
	assert.True(t, errors.Is(err, errors.ErrProcessing))
}

func TestNewUTXOs(t *testing.T) {
	tx := testTransaction()
	tx.Outputs = append(tx.Outputs, Output{Amount: 0, Recipient: "nobody"}, Output{Amount: 7, Recipient: "q"})

	utxos := tx.NewUTXOs()
	require.Len(t, utxos, 2)
	assert.Equal(t, NewUTXO("t", 0, 5, "r"), utxos[0])
	assert.Equal(t, NewUTXO("t", 2, 7, "q"), utxos[1])
}
