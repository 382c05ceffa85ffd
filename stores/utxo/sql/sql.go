// Package sql provides a SQL implementation of utxo.Store on PostgreSQL or SQLite.
//
// # Usage
//
//	store, err := sql.New(ctx, logger, tSettings, &url.URL{
//	    Scheme: "postgres",
//	    Host:   "localhost:5432",
//	    User:   url.UserPassword("user", "pass"),
//	    Path:   "/utxos",
//	})
//
// Supported schemes are postgres, sqlite (a file in the data folder named after
// the url path) and sqlitememory.
//
// # Database Schema
//
// A single utxos table keyed by (tx_id, output_index). Spending a utxo deletes its row.
//
// # Metrics
//
//   - utxogate_sql_utxo_create, utxogate_sql_utxo_get, utxogate_sql_utxo_delete, utxogate_sql_utxo_apply
//   - utxogate_sql_utxo_snapshot_size: references per snapshot
//   - utxogate_sql_utxo_errors: errors by function and type
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/bsv-blockchain/utxogate/util"
	"github.com/bsv-blockchain/utxogate/util/usql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	logger    ulogger.Logger
	db        *usql.DB
	engine    util.SQLEngine
	dbTimeout time.Duration
}

func New(_ context.Context, logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL) (*Store, error) {
	initPrometheusMetrics()

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	engine := util.SQLEngine(storeURL.Scheme)

	switch engine {
	case util.Postgres:
		if err = createPostgresSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}

	case util.Sqlite, util.SqliteMemory:
		if err = createSqliteSchema(db); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}

	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	dbTimeout := tSettings.UtxoStore.DBTimeout
	if dbTimeout <= 0 {
		dbTimeout = 5 * time.Second
	}

	return &Store{
		logger:    logger,
		db:        db,
		engine:    engine,
		dbTimeout: dbTimeout,
	}, nil
}

func (s *Store) Health(ctx context.Context) (int, string, error) {
	details := fmt.Sprintf("SQL Engine is %s", s.engine)

	var num int

	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&num); err != nil {
		return http.StatusServiceUnavailable, details, errors.NewStorageUnavailableError("sql store not reachable", err)
	}

	return http.StatusOK, details, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, utxos ...*model.UTXO) error {
	if err := utxo.CheckNotNil(utxos); err != nil {
		prometheusUtxoErrors.WithLabelValues("Create", "invalid_argument").Inc()
		return err
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, s.dbTimeout)
	defer cancelTimeout()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}

	defer func() {
		_ = txn.Rollback()
	}()

	for _, u := range utxos {
		if err = insertUTXO(ctx, txn, u); err != nil {
			prometheusUtxoErrors.WithLabelValues("Create", errorLabel(err)).Inc()
			return err
		}
	}

	if err = txn.Commit(); err != nil {
		return errors.NewStorageError("failed to commit utxos", err)
	}

	prometheusUtxoCreate.Add(float64(len(utxos)))

	return nil
}

func (s *Store) Get(ctx context.Context, ref model.Reference) (*model.UTXO, error) {
	ctx, cancelTimeout := context.WithTimeout(ctx, s.dbTimeout)
	defer cancelTimeout()

	prometheusUtxoGet.Inc()

	q := `
		SELECT amount, owner
		FROM utxos
		WHERE tx_id = $1 AND output_index = $2
	`

	u, err := scanUTXO(s.db.QueryRowContext(ctx, q, ref.TxID, ref.OutputIndex), ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utxo.NewErrUtxoNotFound(ref)
		}

		prometheusUtxoErrors.WithLabelValues("Get", "db").Inc()

		return nil, errors.NewStorageError("failed to get utxo %s", ref, err)
	}

	return u, nil
}

func (s *Store) Delete(ctx context.Context, refs ...model.Reference) error {
	ctx, cancelTimeout := context.WithTimeout(ctx, s.dbTimeout)
	defer cancelTimeout()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}

	defer func() {
		_ = txn.Rollback()
	}()

	for _, ref := range refs {
		deleted, err := deleteUTXO(ctx, txn, ref)
		if err != nil {
			prometheusUtxoErrors.WithLabelValues("Delete", "db").Inc()
			return err
		}

		if !deleted {
			prometheusUtxoErrors.WithLabelValues("Delete", "not_found").Inc()
			return utxo.NewErrUtxoNotFound(ref)
		}
	}

	if err = txn.Commit(); err != nil {
		return errors.NewStorageError("failed to commit delete", err)
	}

	prometheusUtxoDelete.Add(float64(len(refs)))

	return nil
}

// Snapshot reads every reference inside one transaction, so the snapshot is a
// consistent view even while other writers are active.
func (s *Store) Snapshot(ctx context.Context, refs []model.Reference) (*utxo.Snapshot, error) {
	ctx, cancelTimeout := context.WithTimeout(ctx, s.dbTimeout)
	defer cancelTimeout()

	prometheusUtxoSnapshot.Observe(float64(len(refs)))

	opts := &sql.TxOptions{}
	if s.engine == util.Postgres {
		opts.ReadOnly = true
		opts.Isolation = sql.LevelRepeatableRead
	}

	txn, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.NewStorageError("failed to begin snapshot transaction", err)
	}

	defer func() {
		_ = txn.Rollback()
	}()

	q := `
		SELECT amount, owner
		FROM utxos
		WHERE tx_id = $1 AND output_index = $2
	`

	found := make([]*model.UTXO, 0, len(refs))

	for _, ref := range refs {
		u, err := scanUTXO(txn.QueryRowContext(ctx, q, ref.TxID, ref.OutputIndex), ref)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}

			prometheusUtxoErrors.WithLabelValues("Snapshot", "db").Inc()

			return nil, errors.NewStorageError("failed to read utxo %s", ref, err)
		}

		found = append(found, u)
	}

	return utxo.NewSnapshot(found...), nil
}

func (s *Store) Apply(ctx context.Context, tx *model.Transaction) error {
	ctx, cancelTimeout := context.WithTimeout(ctx, s.dbTimeout)
	defer cancelTimeout()

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}

	defer func() {
		_ = txn.Rollback()
	}()

	// a reference spent twice is not found the second time
	for _, ref := range tx.References() {
		deleted, err := deleteUTXO(ctx, txn, ref)
		if err != nil {
			prometheusUtxoErrors.WithLabelValues("Apply", "db").Inc()
			return err
		}

		if !deleted {
			prometheusUtxoErrors.WithLabelValues("Apply", "spent").Inc()
			return utxo.NewErrSpent(ref, tx.ID)
		}
	}

	for _, u := range tx.NewUTXOs() {
		if err = insertUTXO(ctx, txn, u); err != nil {
			prometheusUtxoErrors.WithLabelValues("Apply", errorLabel(err)).Inc()
			return err
		}
	}

	if err = txn.Commit(); err != nil {
		return errors.NewStorageError("failed to commit transaction %s", tx.ID, err)
	}

	prometheusUtxoApply.Inc()

	s.logger.Debugf("[SQL][Apply] applied tx %s", tx.ID)

	return nil
}

func insertUTXO(ctx context.Context, txn *usql.Tx, u *model.UTXO) error {
	if u.Amount > math.MaxInt64 {
		return errors.NewInvalidArgumentError("utxo %s amount %d does not fit in a BIGINT", u.Reference, u.Amount)
	}

	q := `
		INSERT INTO utxos (
		 tx_id
		,output_index
		,amount
		,owner
		) VALUES (
		 $1
		,$2
		,$3
		,$4
		)
	`

	// nolint:gosec // G115 checked above
	if _, err := txn.ExecContext(ctx, q, u.Reference.TxID, u.Reference.OutputIndex, int64(u.Amount), u.Owner); err != nil {
		if isUniqueViolation(err) {
			return utxo.NewErrUtxoAlreadyExists(u.Reference)
		}

		return errors.NewStorageError("failed to insert utxo %s", u.Reference, err)
	}

	return nil
}

func deleteUTXO(ctx context.Context, txn *usql.Tx, ref model.Reference) (bool, error) {
	q := `
		DELETE FROM utxos
		WHERE tx_id = $1 AND output_index = $2
	`

	res, err := txn.ExecContext(ctx, q, ref.TxID, ref.OutputIndex)
	if err != nil {
		return false, errors.NewStorageError("failed to delete utxo %s", ref, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewStorageError("failed to delete utxo %s", ref, err)
	}

	return n > 0, nil
}

func scanUTXO(row *sql.Row, ref model.Reference) (*model.UTXO, error) {
	var (
		amount int64
		owner  string
	)

	if err := row.Scan(&amount, &owner); err != nil {
		return nil, err
	}

	// nolint:gosec // G115 amounts are inserted from uint64 values <= MaxInt64
	return model.NewUTXO(ref.TxID, ref.OutputIndex, uint64(amount), owner), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// extended codes carry the primary code in the low byte
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	return false
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, errors.ErrUtxoAlreadyExists):
		return "already_exists"
	case errors.Is(err, errors.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "db"
	}
}

func createPostgresSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS utxos (
	     tx_id        TEXT NOT NULL
	    ,output_index BIGINT NOT NULL
	    ,amount       BIGINT NOT NULL CHECK (amount >= 0)
	    ,owner        TEXT NOT NULL
	    ,inserted_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	    ,PRIMARY KEY (tx_id, output_index)
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create utxos table", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_utxos_owner ON utxos (owner);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create idx_utxos_owner index", err)
	}

	return nil
}

func createSqliteSchema(db *usql.DB) error {
	if _, err := db.Exec(`
      CREATE TABLE IF NOT EXISTS utxos (
	     tx_id        TEXT NOT NULL
	    ,output_index INTEGER NOT NULL
	    ,amount       INTEGER NOT NULL CHECK (amount >= 0)
	    ,owner        TEXT NOT NULL
	    ,inserted_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	    ,PRIMARY KEY (tx_id, output_index)
	  );
	`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create utxos table", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_utxos_owner ON utxos (owner);`); err != nil {
		_ = db.Close()
		return errors.NewStorageError("could not create idx_utxos_owner index", err)
	}

	return nil
}
