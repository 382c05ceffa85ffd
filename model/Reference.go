package model

import (
	"strconv"
)

// Reference names a spendable output by the id of the transaction that created it
// and the output's position in that transaction.
type Reference struct {
	TxID        string `json:"txId"`
	OutputIndex uint32 `json:"outputIndex"`
}

func NewReference(txID string, outputIndex uint32) Reference {
	return Reference{TxID: txID, OutputIndex: outputIndex}
}

// Key returns the canonical map key of the reference. The tx id is length prefixed,
// so no (txID, index) pair can produce the key of another pair, whatever the tx id contains.
func (r Reference) Key() string {
	b := make([]byte, 0, len(r.TxID)+24)
	b = strconv.AppendInt(b, int64(len(r.TxID)), 10)
	b = append(b, ':')
	b = append(b, r.TxID...)
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(r.OutputIndex), 10)

	return string(b)
}

func (r Reference) String() string {
	return r.TxID + ":" + strconv.FormatUint(uint64(r.OutputIndex), 10)
}
