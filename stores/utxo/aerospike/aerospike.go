// Package aerospike provides an Aerospike implementation of utxo.Store.
//
// Each utxo is one record in the configured set, keyed by model.Reference.Key(),
// with the bins txid, vout, amount and owner.
//
// # Usage
//
//	store, err := aerospike.New(ctx, logger, tSettings, &url.URL{
//	    Scheme:   "aerospike",
//	    Host:     "localhost:3000",
//	    Path:     "/utxogate",
//	    RawQuery: "set=utxos",
//	})
//
// Aerospike has no multi-record transactions. Create, Delete and Apply check all
// records up front and undo their own partial writes on failure. A spent record is
// deleted only if its generation is unchanged since it was read, so of two writers
// removing the same utxo exactly one wins and the other backs out. Snapshots read
// each record atomically, but may observe an Apply that is still in flight.
package aerospike

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aerospike/aerospike-client-go/v8"
	"github.com/aerospike/aerospike-client-go/v8/types"
	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/bsv-blockchain/utxogate/util/uaerospike"
)

const (
	binTxID   = "txid"
	binVout   = "vout"
	binAmount = "amount"
	binOwner  = "owner"
)

var allBins = []string{binTxID, binVout, binAmount, binOwner}

type Store struct {
	logger    ulogger.Logger
	client    *uaerospike.Client
	namespace string
	setName   string
	timeout   time.Duration
}

func New(_ context.Context, logger ulogger.Logger, tSettings *settings.Settings, aerospikeURL *url.URL) (*Store, error) {
	InitPrometheusMetrics()

	if len(aerospikeURL.Path) < 2 {
		return nil, errors.NewConfigurationError("aerospike url %s has no namespace", aerospikeURL)
	}

	namespace := aerospikeURL.Path[1:]

	setName := aerospikeURL.Query().Get("set")
	if setName == "" {
		setName = "utxos"
	}

	port := 3000

	if p := aerospikeURL.Port(); p != "" {
		var err error
		if port, err = strconv.Atoi(p); err != nil {
			return nil, errors.NewConfigurationError("invalid aerospike port %s", p, err)
		}
	}

	timeout := tSettings.UtxoStore.DBTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	policy := aerospike.NewClientPolicy()
	policy.Timeout = timeout

	if aerospikeURL.User != nil {
		policy.User = aerospikeURL.User.Username()
		policy.Password, _ = aerospikeURL.User.Password()
	}

	client, aErr := uaerospike.NewClientWithPolicyAndHost(policy, aerospike.NewHost(aerospikeURL.Hostname(), port))
	if aErr != nil {
		return nil, errors.NewStorageUnavailableError("failed to connect to aerospike at %s", aerospikeURL.Host, aErr)
	}

	logger.Infof("[Aerospike] utxo store initialised with namespace: %s, set: %s", namespace, setName)

	return &Store{
		logger:    logger,
		client:    client,
		namespace: namespace,
		setName:   setName,
		timeout:   timeout,
	}, nil
}

func (s *Store) Close() error {
	s.client.Close()
	return nil
}

func (s *Store) Health(_ context.Context) (int, string, error) {
	if !s.client.IsConnected() {
		return http.StatusServiceUnavailable, "Aerospike not connected", errors.NewStorageUnavailableError("aerospike client not connected")
	}

	return http.StatusOK, "Aerospike Store available", nil
}

func (s *Store) key(ref model.Reference) (*aerospike.Key, error) {
	key, aErr := aerospike.NewKey(s.namespace, s.setName, ref.Key())
	if aErr != nil {
		return nil, errors.NewProcessingError("failed to create aerospike key for %s", ref, aErr)
	}

	return key, nil
}

func (s *Store) keys(refs []model.Reference) ([]*aerospike.Key, error) {
	keys := make([]*aerospike.Key, len(refs))

	for i, ref := range refs {
		key, err := s.key(ref)
		if err != nil {
			return nil, err
		}

		keys[i] = key
	}

	return keys, nil
}

func (s *Store) readPolicy() *aerospike.BasePolicy {
	policy := aerospike.NewPolicy()
	policy.TotalTimeout = s.timeout

	return policy
}

func (s *Store) batchPolicy() *aerospike.BatchPolicy {
	policy := aerospike.NewBatchPolicy()
	policy.TotalTimeout = s.timeout

	return policy
}

func (s *Store) writePolicy(action aerospike.RecordExistsAction) *aerospike.WritePolicy {
	policy := aerospike.NewWritePolicy(0, aerospike.TTLDontExpire)
	policy.TotalTimeout = s.timeout
	policy.RecordExistsAction = action

	return policy
}

func (s *Store) Create(_ context.Context, utxos ...*model.UTXO) error {
	if err := utxo.CheckNotNil(utxos); err != nil {
		prometheusUtxoErrors.WithLabelValues("Create", "invalid_argument").Inc()
		return err
	}

	refs := make([]model.Reference, len(utxos))
	for i, u := range utxos {
		refs[i] = u.Reference
	}

	if err := s.checkAbsent(refs); err != nil {
		prometheusUtxoErrors.WithLabelValues("Create", "already_exists").Inc()
		return err
	}

	if err := s.putAll(utxos); err != nil {
		prometheusUtxoErrors.WithLabelValues("Create", errorLabel(err)).Inc()
		return err
	}

	prometheusUtxoCreate.Add(float64(len(utxos)))

	return nil
}

func (s *Store) Get(_ context.Context, ref model.Reference) (*model.UTXO, error) {
	prometheusUtxoGet.Inc()

	key, err := s.key(ref)
	if err != nil {
		return nil, err
	}

	record, aErr := s.client.Get(s.readPolicy(), key, allBins...)
	if aErr != nil {
		if errors.Is(aErr, aerospike.ErrKeyNotFound) {
			return nil, utxo.NewErrUtxoNotFound(ref)
		}

		prometheusUtxoErrors.WithLabelValues("Get", resultLabel(aErr)).Inc()

		return nil, errors.NewStorageError("failed to get utxo %s", ref, aErr)
	}

	return utxoFromBins(ref, record.Bins)
}

func (s *Store) Delete(_ context.Context, refs ...model.Reference) error {
	if _, err := s.removeAll(refs, utxo.NewErrUtxoNotFound); err != nil {
		prometheusUtxoErrors.WithLabelValues("Delete", removeLabel(err, errors.ErrUtxoNotFound, "not_found")).Inc()
		return err
	}

	prometheusUtxoDelete.Add(float64(len(refs)))

	return nil
}

// Snapshot reads all references in one batch request.
func (s *Store) Snapshot(_ context.Context, refs []model.Reference) (*utxo.Snapshot, error) {
	prometheusUtxoSnapshot.Observe(float64(len(refs)))

	if len(refs) == 0 {
		return utxo.NewSnapshot(), nil
	}

	keys, err := s.keys(refs)
	if err != nil {
		return nil, err
	}

	records, aErr := s.client.BatchGet(s.batchPolicy(), keys, allBins...)
	if aErr != nil && !aErr.Matches(types.KEY_NOT_FOUND_ERROR, types.BATCH_FAILED) {
		prometheusUtxoErrors.WithLabelValues("Snapshot", resultLabel(aErr)).Inc()
		return nil, errors.NewStorageError("failed to batch read %d utxos", len(refs), aErr)
	}

	found := make([]*model.UTXO, 0, len(refs))

	for i, record := range records {
		if record == nil {
			continue
		}

		u, err := utxoFromBins(refs[i], record.Bins)
		if err != nil {
			return nil, err
		}

		found = append(found, u)
	}

	return utxo.NewSnapshot(found...), nil
}

func (s *Store) Apply(_ context.Context, tx *model.Transaction) error {
	refs := tx.References()
	created := tx.NewUTXOs()

	spent := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		spent[ref.Key()] = struct{}{}
	}

	// an output may replace an input of the same transaction
	fresh := make([]model.Reference, 0, len(created))

	for _, u := range created {
		if _, ok := spent[u.Reference.Key()]; !ok {
			fresh = append(fresh, u.Reference)
		}
	}

	if err := s.checkAbsent(fresh); err != nil {
		prometheusUtxoErrors.WithLabelValues("Apply", errorLabel(err)).Inc()
		return err
	}

	removed, err := s.removeAll(refs, func(ref model.Reference) error {
		return utxo.NewErrSpent(ref, tx.ID)
	})
	if err != nil {
		prometheusUtxoErrors.WithLabelValues("Apply", removeLabel(err, errors.ErrSpent, "spent")).Inc()
		return err
	}

	if err = s.putAll(created); err != nil {
		s.restore(removed)
		prometheusUtxoErrors.WithLabelValues("Apply", errorLabel(err)).Inc()

		return err
	}

	prometheusUtxoApply.Inc()

	s.logger.Debugf("[Aerospike][Apply] tx %s spent %d utxos and created %d", tx.ID, len(refs), len(created))

	return nil
}

// removeAll reads the referenced records and deletes each one with
// EXPECT_GEN_EQUAL on the generation it read. A reference that is repeated,
// missing, or removed by someone else in the meantime fails with missing(ref),
// after the records this call already deleted are put back.
func (s *Store) removeAll(refs []model.Reference, missing func(model.Reference) error) ([]*model.UTXO, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		if _, ok := seen[ref.Key()]; ok {
			return nil, missing(ref)
		}

		seen[ref.Key()] = struct{}{}
	}

	keys, err := s.keys(refs)
	if err != nil {
		return nil, err
	}

	records, aErr := s.client.BatchGet(s.batchPolicy(), keys, allBins...)
	if aErr != nil && !aErr.Matches(types.KEY_NOT_FOUND_ERROR, types.BATCH_FAILED) {
		return nil, errors.NewStorageError("failed to batch read %d utxos", len(refs), aErr)
	}

	utxos := make([]*model.UTXO, len(refs))

	for i, record := range records {
		if record == nil {
			return nil, missing(refs[i])
		}

		if utxos[i], err = utxoFromBins(refs[i], record.Bins); err != nil {
			return nil, err
		}
	}

	removed := make([]*model.UTXO, 0, len(refs))

	for i, record := range records {
		policy := s.writePolicy(aerospike.UPDATE)
		policy.GenerationPolicy = aerospike.EXPECT_GEN_EQUAL
		policy.Generation = record.Generation

		existed, aErr := s.client.Delete(policy, keys[i])
		if aErr == nil && existed {
			removed = append(removed, utxos[i])
			continue
		}

		s.restore(removed)

		if aErr == nil || aErr.Matches(types.GENERATION_ERROR, types.KEY_NOT_FOUND_ERROR) {
			return nil, missing(refs[i])
		}

		return nil, errors.NewStorageError("failed to delete utxo %s", refs[i], aErr)
	}

	return removed, nil
}

// restore puts back records removed by a write that could not complete.
func (s *Store) restore(utxos []*model.UTXO) {
	if len(utxos) == 0 {
		return
	}

	if err := s.putAll(utxos); err != nil {
		s.logger.Errorf("[Aerospike] failed to restore %d removed utxos: %v", len(utxos), err)
	}
}

func (s *Store) checkAbsent(refs []model.Reference) error {
	if len(refs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		if _, ok := seen[ref.Key()]; ok {
			return utxo.NewErrUtxoAlreadyExists(ref)
		}

		seen[ref.Key()] = struct{}{}
	}

	exists, err := s.exists(refs)
	if err != nil {
		return err
	}

	for i, ok := range exists {
		if ok {
			return utxo.NewErrUtxoAlreadyExists(refs[i])
		}
	}

	return nil
}

func (s *Store) exists(refs []model.Reference) ([]bool, error) {
	keys, err := s.keys(refs)
	if err != nil {
		return nil, err
	}

	exists, aErr := s.client.BatchExists(s.batchPolicy(), keys)
	if aErr != nil && !aErr.Matches(types.KEY_NOT_FOUND_ERROR, types.BATCH_FAILED) {
		return nil, errors.NewStorageError("failed to check %d utxos", len(refs), aErr)
	}

	return exists, nil
}

// putAll writes every utxo with CREATE_ONLY, deleting the ones already written if one fails.
func (s *Store) putAll(utxos []*model.UTXO) error {
	policy := s.writePolicy(aerospike.CREATE_ONLY)

	written := make([]model.Reference, 0, len(utxos))

	for _, u := range utxos {
		if u.Amount > math.MaxInt64 {
			s.undo(written)
			return errors.NewInvalidArgumentError("utxo %s amount %d does not fit in an aerospike integer", u.Reference, u.Amount)
		}

		key, err := s.key(u.Reference)
		if err != nil {
			s.undo(written)
			return err
		}

		bins := aerospike.BinMap{
			binTxID: u.Reference.TxID,
			binVout: int64(u.Reference.OutputIndex),
			// nolint:gosec // G115 checked above
			binAmount: int64(u.Amount),
			binOwner:  u.Owner,
		}

		if aErr := s.client.Put(policy, key, bins); aErr != nil {
			s.undo(written)

			if aErr.Matches(types.KEY_EXISTS_ERROR) {
				return utxo.NewErrUtxoAlreadyExists(u.Reference)
			}

			return errors.NewStorageError("failed to store utxo %s", u.Reference, aErr)
		}

		written = append(written, u.Reference)
	}

	return nil
}

func (s *Store) deleteAll(refs []model.Reference) error {
	policy := s.writePolicy(aerospike.UPDATE)

	for _, ref := range refs {
		key, err := s.key(ref)
		if err != nil {
			return err
		}

		if _, aErr := s.client.Delete(policy, key); aErr != nil {
			return errors.NewStorageError("failed to delete utxo %s", ref, aErr)
		}
	}

	return nil
}

func (s *Store) undo(refs []model.Reference) {
	if err := s.deleteAll(refs); err != nil {
		s.logger.Errorf("[Aerospike] failed to undo partial write of %d utxos: %v", len(refs), err)
	}
}

func utxoFromBins(ref model.Reference, bins aerospike.BinMap) (*model.UTXO, error) {
	amount, ok := bins[binAmount].(int)
	if !ok || amount < 0 {
		return nil, errors.NewProcessingError("utxo %s has an invalid amount bin: %v", ref, bins[binAmount])
	}

	owner, ok := bins[binOwner].(string)
	if !ok {
		return nil, errors.NewProcessingError("utxo %s has an invalid owner bin: %v", ref, bins[binOwner])
	}

	return model.NewUTXO(ref.TxID, ref.OutputIndex, uint64(amount), owner), nil
}

func resultLabel(aErr aerospike.Error) string {
	var e *aerospike.AerospikeError
	if errors.As(aErr, &e) {
		return e.ResultCode.String()
	}

	return "unknown"
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

func removeLabel(err, missing error, label string) string {
	if errors.Is(err, missing) {
		return label
	}

	return "db"
}
