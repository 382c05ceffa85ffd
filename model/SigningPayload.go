package model

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// PayloadVersion1 identifies the first signing payload layout:
//
//	"UTXG" | 0x01 | varstr id
//	| varint #inputs  | per input:  varstr txid, uint32le output index, varstr owner
//	| varint #outputs | per output: int64le amount, varstr recipient
//	| int64le timestamp
//
// varint is the bitcoin compact size, varstr is a varint byte length followed by the bytes.
// Signatures are never part of the payload.
const PayloadVersion1 byte = 0x01

var payloadMagic = []byte("UTXG")

// SigningPayload returns the canonical, signature free encoding of the transaction
// that every input owner signs.
func (tx *Transaction) SigningPayload() []byte {
	size := len(payloadMagic) + 1 + 9 + len(tx.ID) + 9 + 9 + 8
	for _, in := range tx.Inputs {
		size += 9 + len(in.Reference.TxID) + 4 + 9 + len(in.Owner)
	}

	for _, out := range tx.Outputs {
		size += 8 + 9 + len(out.Recipient)
	}

	b := make([]byte, 0, size)
	b = append(b, payloadMagic...)
	b = append(b, PayloadVersion1)
	b = appendVarString(b, tx.ID)

	b = append(b, bt.VarInt(uint64(len(tx.Inputs))).Bytes()...)
	for _, in := range tx.Inputs {
		b = appendVarString(b, in.Reference.TxID)
		b = binary.LittleEndian.AppendUint32(b, in.Reference.OutputIndex)
		b = appendVarString(b, in.Owner)
	}

	b = append(b, bt.VarInt(uint64(len(tx.Outputs))).Bytes()...)
	for _, out := range tx.Outputs {
		// nolint:gosec // G115 two's complement keeps negative amounts distinct
		b = binary.LittleEndian.AppendUint64(b, uint64(out.Amount))
		b = appendVarString(b, out.Recipient)
	}

	// nolint:gosec // G115 same as above
	b = binary.LittleEndian.AppendUint64(b, uint64(tx.Timestamp))

	return b
}

// SigningHash is the double sha256 of the signing payload, the digest ECDSA owners sign.
func (tx *Transaction) SigningHash() []byte {
	return chainhash.DoubleHashB(tx.SigningPayload())
}

func appendVarString(b []byte, s string) []byte {
	b = append(b, bt.VarInt(uint64(len(s))).Bytes()...)
	return append(b, s...)
}
