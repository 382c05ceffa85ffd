package utxo

import (
	"github.com/bsv-blockchain/utxogate/model"
)

// Snapshot is an immutable set of utxos. It is safe for concurrent use.
type Snapshot struct {
	utxos map[string]model.UTXO
}

// NewSnapshot copies the given utxos. A later utxo with the same reference replaces an earlier one.
func NewSnapshot(utxos ...*model.UTXO) *Snapshot {
	s := &Snapshot{
		utxos: make(map[string]model.UTXO, len(utxos)),
	}

	for _, u := range utxos {
		if u == nil {
			continue
		}

		s.utxos[u.Reference.Key()] = *u
	}

	return s
}

// Get returns a copy of the utxo, so callers can never mutate the snapshot.
func (s *Snapshot) Get(txID string, outputIndex uint32) (*model.UTXO, bool) {
	u, ok := s.utxos[model.NewReference(txID, outputIndex).Key()]
	if !ok {
		return nil, false
	}

	return &u, true
}

func (s *Snapshot) Len() int {
	return len(s.utxos)
}
