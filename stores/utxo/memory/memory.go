package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/dolthub/swiss"
)

const defaultInitialCapacity = 1024

// Memory is a utxo.Store held in a swiss map, keyed by model.Reference.Key().
type Memory struct {
	logger ulogger.Logger
	mu     sync.RWMutex
	m      *swiss.Map[string, model.UTXO]
}

func New(logger ulogger.Logger, initialCapacity int) *Memory {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}

	// the swiss map uses a lot less memory than the standard map
	return &Memory{
		logger: logger,
		m:      swiss.NewMap[string, model.UTXO](uint32(initialCapacity)),
	}
}

func (m *Memory) Health(_ context.Context) (int, string, error) {
	return http.StatusOK, "Memory Store available", nil
}

func (m *Memory) Create(_ context.Context, utxos ...*model.UTXO) error {
	if err := utxo.CheckNotNil(utxos); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(utxos))

	for _, u := range utxos {
		key := u.Reference.Key()

		if _, ok := seen[key]; ok || m.m.Has(key) {
			return utxo.NewErrUtxoAlreadyExists(u.Reference)
		}

		seen[key] = struct{}{}
	}

	for _, u := range utxos {
		m.m.Put(u.Reference.Key(), *u)
	}

	return nil
}

func (m *Memory) Get(_ context.Context, ref model.Reference) (*model.UTXO, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.m.Get(ref.Key())
	if !ok {
		return nil, utxo.NewErrUtxoNotFound(ref)
	}

	return &u, nil
}

func (m *Memory) Delete(_ context.Context, refs ...model.Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ref := range refs {
		if !m.m.Has(ref.Key()) {
			return utxo.NewErrUtxoNotFound(ref)
		}
	}

	for _, ref := range refs {
		m.m.Delete(ref.Key())
	}

	return nil
}

func (m *Memory) Snapshot(_ context.Context, refs []model.Reference) (*utxo.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make([]*model.UTXO, 0, len(refs))

	for _, ref := range refs {
		if u, ok := m.m.Get(ref.Key()); ok {
			found = append(found, &u)
		}
	}

	return utxo.NewSnapshot(found...), nil
}

func (m *Memory) Apply(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	spent := make(map[string]struct{}, len(tx.Inputs))

	for _, ref := range tx.References() {
		key := ref.Key()

		if _, ok := spent[key]; ok || !m.m.Has(key) {
			return utxo.NewErrSpent(ref, tx.ID)
		}

		spent[key] = struct{}{}
	}

	created := tx.NewUTXOs()

	for _, u := range created {
		key := u.Reference.Key()

		// an output may replace an input of the same transaction
		if _, ok := spent[key]; !ok && m.m.Has(key) {
			return utxo.NewErrUtxoAlreadyExists(u.Reference)
		}
	}

	for key := range spent {
		m.m.Delete(key)
	}

	for _, u := range created {
		m.m.Put(u.Reference.Key(), *u)
	}

	m.logger.Debugf("[Memory][Apply] tx %s spent %d utxos and created %d", tx.ID, len(spent), len(created))

	return nil
}

// Len returns the number of utxos in the pool.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.m.Count()
}
