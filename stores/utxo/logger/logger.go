// Package logger decorates a utxo.Store, logging every call with its result and caller.
package logger

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/ulogger"
)

type Store struct {
	logger ulogger.Logger
	store  utxo.Store
}

func New(_ context.Context, logger ulogger.Logger, store utxo.Store) utxo.Store {
	return &Store{
		logger: logger,
		store:  store,
	}
}

func caller() string {
	var callers []string

	depth := 5

	for i := 0; i < depth; i++ {
		pc, file, line, ok := runtime.Caller(2 + i)
		if !ok {
			break
		}

		// trim everything up to the module root
		if idx := strings.Index(file, "utxogate"+string(filepath.Separator)); idx >= 0 {
			file = file[idx+len("utxogate")+1:]
		}

		funcName := runtime.FuncForPC(pc).Name()
		funcPaths := strings.Split(funcName, "/")
		funcName = funcPaths[len(funcPaths)-1]

		callers = append(callers, fmt.Sprintf("called from %s: %s:%d", funcName, file, line))
	}

	return strings.Join(callers, ",")
}

func (s *Store) Health(ctx context.Context) (int, string, error) {
	status, details, err := s.store.Health(ctx)
	s.logger.Infof("[UTXOStore][logger][Health] status %d details %s err %v : %s", status, details, err, caller())

	return status, details, err
}

func (s *Store) Create(ctx context.Context, utxos ...*model.UTXO) error {
	err := s.store.Create(ctx, utxos...)

	details := make([]string, len(utxos))
	for i, u := range utxos {
		details[i] = fmt.Sprintf("{%s: Amount %d, Owner %s}", u.Reference, u.Amount, u.Owner)
	}

	s.logger.Infof("[UTXOStore][logger][Create] utxos [%s] err %v : %s", strings.Join(details, ", "), err, caller())

	return err
}

func (s *Store) Get(ctx context.Context, ref model.Reference) (*model.UTXO, error) {
	u, err := s.store.Get(ctx, ref)
	s.logger.Infof("[UTXOStore][logger][Get] ref %s utxo %v err %v : %s", ref, u, err, caller())

	return u, err
}

func (s *Store) Delete(ctx context.Context, refs ...model.Reference) error {
	err := s.store.Delete(ctx, refs...)
	s.logger.Infof("[UTXOStore][logger][Delete] refs %v err %v : %s", refs, err, caller())

	return err
}

func (s *Store) Snapshot(ctx context.Context, refs []model.Reference) (*utxo.Snapshot, error) {
	snapshot, err := s.store.Snapshot(ctx, refs)

	found := 0
	if snapshot != nil {
		found = snapshot.Len()
	}

	s.logger.Infof("[UTXOStore][logger][Snapshot] refs %v found %d err %v : %s", refs, found, err, caller())

	return snapshot, err
}

func (s *Store) Apply(ctx context.Context, tx *model.Transaction) error {
	err := s.store.Apply(ctx, tx)
	s.logger.Infof("[UTXOStore][logger][Apply] tx %s, inputs %v, outputs %v err %v : %s", tx.ID, tx.References(), tx.Outputs, err, caller())

	return err
}
