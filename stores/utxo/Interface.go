// Package utxo defines the UTXO pool abstractions used by the validator.
//
// The validator only ever sees a Lookup. Stores hand out immutable Snapshots,
// so a validation never observes a pool that is changing underneath it. The
// memory and sql stores build them from one consistent read of the pool. The
// aerospike store reads each record atomically but has no multi-record read, so
// a snapshot taken while an Apply is in flight may see only part of it.
package utxo

import (
	"context"

	"github.com/bsv-blockchain/utxogate/model"
)

// Lookup is the read capability the validator needs from a pool.
type Lookup interface {
	Get(txID string, outputIndex uint32) (*model.UTXO, bool)
}

// Store is a mutable UTXO pool.
type Store interface {
	// Health returns an http status code and a human readable message.
	Health(ctx context.Context) (int, string, error)

	// Create adds the utxos. It fails with ErrUtxoAlreadyExists if any of them is
	// already in the pool, or ErrInvalidArgument if one is nil, in which case none
	// of them are added.
	Create(ctx context.Context, utxos ...*model.UTXO) error

	// Get returns ErrUtxoNotFound when the reference is not in the pool.
	Get(ctx context.Context, ref model.Reference) (*model.UTXO, error)

	// Delete removes the referenced utxos, all or nothing.
	Delete(ctx context.Context, refs ...model.Reference) error

	// Snapshot copies the referenced utxos that exist into an immutable Lookup.
	// Missing references are simply absent from the snapshot.
	Snapshot(ctx context.Context, refs []model.Reference) (*Snapshot, error)

	// Apply commits a transaction: the spent references are removed and the
	// outputs with a positive amount are added at Reference{tx.ID, index}.
	// It does not validate the transaction. Of two concurrent Apply calls spending
	// the same utxo at most one succeeds, the other fails with ErrSpent.
	Apply(ctx context.Context, tx *model.Transaction) error
}
