package validator

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/signature"
	"github.com/bsv-blockchain/utxogate/stores/utxo"
	"github.com/bsv-blockchain/utxogate/tracing"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"golang.org/x/sync/errgroup"
)

// Service validates transactions against a utxo store. Each transaction is
// validated against its own snapshot of the utxos it references.
type Service struct {
	logger      ulogger.Logger
	settings    *settings.Settings
	store       utxo.Store
	validator   *Validator
	concurrency int
}

func NewService(logger ulogger.Logger, tSettings *settings.Settings, store utxo.Store, opts ...Option) (*Service, error) {
	initPrometheusMetrics()

	if store == nil {
		return nil, errors.NewInvalidArgumentError("validator service needs a utxo store")
	}

	options := ProcessOptions(opts...)

	verifier := options.verifier
	if verifier == nil {
		var err error
		if verifier, err = signature.NewVerifierFromSettings(logger, tSettings); err != nil {
			return nil, err
		}
	}

	v, err := New(verifier)
	if err != nil {
		return nil, err
	}

	concurrency := options.concurrency
	if concurrency <= 0 {
		concurrency = tSettings.Validator.Concurrency
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	return &Service{
		logger:      logger,
		settings:    tSettings,
		store:       store,
		validator:   v,
		concurrency: concurrency,
	}, nil
}

func (s *Service) Health(ctx context.Context) (int, string, error) {
	prometheusHealth.Inc()

	status, details, err := s.store.Health(ctx)
	if err != nil {
		return http.StatusServiceUnavailable, details, errors.NewServiceUnavailableError("utxo store is unhealthy", err)
	}

	return status, details, nil
}

// ValidateTransaction snapshots the utxos tx spends and validates tx against them.
// The returned error is set only when the snapshot fails; defects are in the Result.
func (s *Service) ValidateTransaction(ctx context.Context, tx *model.Transaction) (*Result, error) {
	if tx == nil {
		return nil, errors.NewInvalidArgumentError("transaction is nil")
	}

	ctx, _, deferFn := tracing.Tracer("validator").Start(ctx, "ValidateTransaction",
		tracing.WithTag("tx_id", tx.ID),
		tracing.WithHistogram(prometheusValidateTransaction),
	)

	var err error

	defer func() {
		deferFn(err)
	}()

	snapshotStart := time.Now()

	var snapshot *utxo.Snapshot

	snapshot, err = s.store.Snapshot(ctx, tx.References())
	if err != nil {
		err = errors.NewProcessingError("failed to snapshot utxos for transaction %s", tx.ID, err)
		return nil, err
	}

	prometheusValidateSnapshot.Observe(time.Since(snapshotStart).Seconds())

	result := s.validator.Validate(tx, snapshot)

	s.record(result, len(tx.Inputs))

	return result, nil
}

// ValidateTransactions validates txs concurrently and returns the results in the
// order of txs. The first snapshot failure cancels the batch.
func (s *Service) ValidateTransactions(ctx context.Context, txs []*model.Transaction) ([]*Result, error) {
	ctx, _, deferFn := tracing.Tracer("validator").Start(ctx, "ValidateTransactions",
		tracing.WithTag("batch_size", strconv.Itoa(len(txs))),
		tracing.WithHistogram(prometheusValidateBatch),
	)

	results := make([]*Result, len(txs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, tx := range txs {
		g.Go(func() error {
			result, err := s.ValidateTransaction(gCtx, tx)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		deferFn(err)
		return nil, err
	}

	deferFn()

	return results, nil
}

func (s *Service) record(result *Result, inputs int) {
	prometheusValidatedTransactions.Inc()
	prometheusValidateTransactionInput.Observe(float64(inputs))

	if result.Valid {
		if s.settings.Validator.VerboseDebug {
			s.logger.Debugf("[Validator] transaction %s is valid", result.TxID)
		}

		return
	}

	prometheusInvalidTransactions.Inc()

	for _, e := range result.Errors {
		prometheusValidationErrors.WithLabelValues(string(e.Kind)).Inc()
	}

	if s.settings.Validator.VerboseDebug {
		s.logger.Debugf("[Validator] transaction %s is invalid: %v", result.TxID, result.Kinds())
	}
}
