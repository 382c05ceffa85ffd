// Package tests holds the behaviour every utxo.Store implementation must share.
package tests

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	utxostore "github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/stretchr/testify/require"
)

var (
	utxo0 = model.NewUTXO("genesis", 0, 50, "alice")
	utxo1 = model.NewUTXO("genesis", 1, 25, "bob")

	spendTx = &model.Transaction{
		ID: "spend-1",
		Inputs: []model.Input{
			{Reference: utxo0.Reference, Owner: "alice", Signature: "sig"},
		},
		Outputs: []model.Output{
			{Amount: 30, Recipient: "carol"},
			{Amount: 20, Recipient: "alice"},
		},
		Timestamp: 1_700_000_000_000,
	}
)

func Health(t *testing.T, db utxostore.Store) {
	status, msg, err := db.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, msg)
}

func Store(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	err := db.Create(ctx, utxo0, utxo1)
	require.NoError(t, err)

	resp, err := db.Get(ctx, utxo0.Reference)
	require.NoError(t, err)
	require.Equal(t, *utxo0, *resp)

	err = db.Create(ctx, utxo0)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUtxoAlreadyExists))

	_, err = db.Get(ctx, model.NewReference("genesis", 2))
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

// CreateIsAtomic checks a batch with one existing utxo adds nothing.
func CreateIsAtomic(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, utxo0))

	fresh := model.NewUTXO("other", 0, 1, "dave")

	err := db.Create(ctx, fresh, utxo0)
	require.True(t, errors.Is(err, errors.ErrUtxoAlreadyExists))

	_, err = db.Get(ctx, fresh.Reference)
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

// CreateRejectsNil checks a nil utxo fails the whole batch instead of panicking.
func CreateRejectsNil(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	err := db.Create(ctx, utxo0, nil)
	require.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = db.Get(ctx, utxo0.Reference)
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

func Delete(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, utxo0, utxo1))

	err := db.Delete(ctx, utxo0.Reference, model.NewReference("missing", 0))
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))

	// nothing was deleted
	_, err = db.Get(ctx, utxo0.Reference)
	require.NoError(t, err)

	require.NoError(t, db.Delete(ctx, utxo0.Reference))

	_, err = db.Get(ctx, utxo0.Reference)
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

func Snapshot(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, utxo0, utxo1))

	snapshot, err := db.Snapshot(ctx, []model.Reference{utxo0.Reference, model.NewReference("missing", 7)})
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.Len())

	u, ok := snapshot.Get("genesis", 0)
	require.True(t, ok)
	require.Equal(t, uint64(50), u.Amount)

	_, ok = snapshot.Get("genesis", 1)
	require.False(t, ok, "only requested references are copied")

	// later changes to the store are not visible in the snapshot
	require.NoError(t, db.Delete(ctx, utxo0.Reference))

	u, ok = snapshot.Get("genesis", 0)
	require.True(t, ok)
	require.Equal(t, "alice", u.Owner)
}

func Apply(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, utxo0, utxo1))
	require.NoError(t, db.Apply(ctx, spendTx))

	_, err := db.Get(ctx, utxo0.Reference)
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))

	out0, err := db.Get(ctx, model.NewReference("spend-1", 0))
	require.NoError(t, err)
	require.Equal(t, uint64(30), out0.Amount)
	require.Equal(t, "carol", out0.Owner)

	out1, err := db.Get(ctx, model.NewReference("spend-1", 1))
	require.NoError(t, err)
	require.Equal(t, uint64(20), out1.Amount)

	// applying again spends a missing utxo
	err = db.Apply(ctx, spendTx)
	require.True(t, errors.Is(err, errors.ErrSpent))

	// untouched
	_, err = db.Get(ctx, utxo1.Reference)
	require.NoError(t, err)
}

func ApplyDoubleSpend(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, utxo0))

	tx := &model.Transaction{
		ID: "double",
		Inputs: []model.Input{
			{Reference: utxo0.Reference, Owner: "alice"},
			{Reference: utxo0.Reference, Owner: "alice"},
		},
		Outputs: []model.Output{{Amount: 100, Recipient: "mallory"}},
	}

	err := db.Apply(ctx, tx)
	require.True(t, errors.Is(err, errors.ErrSpent))

	// the pool is unchanged
	_, err = db.Get(ctx, utxo0.Reference)
	require.NoError(t, err)

	_, err = db.Get(ctx, model.NewReference("double", 0))
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

// ApplyIsAtomic checks a transaction whose output already exists spends nothing.
func ApplyIsAtomic(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	taken := model.NewUTXO("spend-1", 1, 5, "eve")

	require.NoError(t, db.Create(ctx, utxo0, taken))

	err := db.Apply(ctx, spendTx)
	require.True(t, errors.Is(err, errors.ErrUtxoAlreadyExists))

	_, err = db.Get(ctx, utxo0.Reference)
	require.NoError(t, err)

	_, err = db.Get(ctx, model.NewReference("spend-1", 0))
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

// ApplyConcurrentDoubleSpend races several transactions spending the same utxo.
// Exactly one may commit, the others fail with ErrSpent and leave no outputs.
func ApplyConcurrentDoubleSpend(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	require.NoError(t, db.Create(ctx, utxo0))

	const spenders = 8

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, spenders)
	)

	for i := 0; i < spenders; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			tx := &model.Transaction{
				ID:      fmt.Sprintf("race-%d", i),
				Inputs:  []model.Input{{Reference: utxo0.Reference, Owner: "alice"}},
				Outputs: []model.Output{{Amount: 50, Recipient: fmt.Sprintf("recipient-%d", i)}},
			}

			<-start

			errs[i] = db.Apply(ctx, tx)
		}(i)
	}

	close(start)
	wg.Wait()

	committed := 0

	for i, err := range errs {
		_, getErr := db.Get(ctx, model.NewReference(fmt.Sprintf("race-%d", i), 0))

		if err == nil {
			committed++

			require.NoError(t, getErr)

			continue
		}

		require.True(t, errors.Is(err, errors.ErrSpent), "spender %d: %v", i, err)
		require.True(t, errors.Is(getErr, errors.ErrUtxoNotFound), "spender %d left an output behind", i)
	}

	require.Equal(t, 1, committed)

	_, err := db.Get(ctx, utxo0.Reference)
	require.True(t, errors.Is(err, errors.ErrUtxoNotFound))
}

func Sanity(t *testing.T, db utxostore.Store) {
	ctx := context.Background()

	refs := make([]model.Reference, 0, 1_000)

	for i := uint32(0); i < 1_000; i++ {
		u := model.NewUTXO(fmt.Sprintf("tx-%d", i), i%4, uint64(i)+1, "owner")
		require.NoError(t, db.Create(ctx, u))

		refs = append(refs, u.Reference)
	}

	snapshot, err := db.Snapshot(ctx, refs)
	require.NoError(t, err)
	require.Equal(t, 1_000, snapshot.Len())

	for i, ref := range refs {
		u, ok := snapshot.Get(ref.TxID, ref.OutputIndex)
		require.True(t, ok)
		require.Equal(t, uint64(i)+1, u.Amount)
	}
}

func Benchmark(b *testing.B, db utxostore.Store) {
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		if err := db.Create(ctx, utxo0); err != nil {
			b.Fatal(err)
		}

		if _, err := db.Snapshot(ctx, []model.Reference{utxo0.Reference}); err != nil {
			b.Fatal(err)
		}

		if err := db.Delete(ctx, utxo0.Reference); err != nil {
			b.Fatal(err)
		}
	}
}
