package httpimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/services/validator"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/signature"
	"github.com/bsv-blockchain/utxogate/stores/utxo/memory"
	"github.com/bsv-blockchain/utxogate/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockValidator is a mock implementation of Validator
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Health(ctx context.Context) (int, string, error) {
	args := m.Called(ctx)
	return args.Int(0), args.String(1), args.Error(2)
}

func (m *MockValidator) ValidateTransaction(ctx context.Context, tx *model.Transaction) (*validator.Result, error) {
	args := m.Called(ctx, tx)

	result, _ := args.Get(0).(*validator.Result)

	return result, args.Error(1)
}

func (m *MockValidator) ValidateTransactions(ctx context.Context, txs []*model.Transaction) ([]*validator.Result, error) {
	args := m.Called(ctx, txs)

	results, _ := args.Get(0).([]*validator.Result)

	return results, args.Error(1)
}

func do(h *HTTP, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		m := new(MockValidator)
		m.On("Health", mock.Anything).Return(http.StatusOK, "ok", nil)

		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), m), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		m := new(MockValidator)
		m.On("Health", mock.Anything).Return(http.StatusServiceUnavailable, "store down", errors.NewServiceUnavailableError("down"))

		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), m), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "store down", rec.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), new(MockValidator)), http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "utxogate_validator_http_validate")
	})

	t.Run("alive", func(t *testing.T) {
		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), new(MockValidator)), http.MethodGet, "/alive", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alive")
	})
}

func TestValidateErrors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		m := new(MockValidator)

		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), m), http.MethodPost, "/api/v1/validate", `{"id":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int32(http.StatusBadRequest), resp.Status)
		assert.Equal(t, int32(errors.ERR_TX_DECODE), resp.Code)

		m.AssertNotCalled(t, "ValidateTransaction", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		m := new(MockValidator)
		m.On("ValidateTransaction", mock.Anything, mock.Anything).Return(nil, errors.NewStorageError("down"))

		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), m), http.MethodPost, "/api/v1/validate", `{"id":"x"}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int32(errors.ERR_STORAGE_ERROR), resp.Code)
	})

	t.Run("batch is not an array", func(t *testing.T) {
		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), new(MockValidator)), http.MethodPost, "/api/v1/validate/batch", `{"id":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		tSettings := settings.NewSettings()
		tSettings.Validator.HTTPMaxBodySize = "1K"

		body := `{"id":"` + strings.Repeat("x", 2048) + `"}`

		rec := do(New(ulogger.TestLogger{}, tSettings, new(MockValidator)), http.MethodPost, "/api/v1/validate", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("body of unknown length too large", func(t *testing.T) {
		tSettings := settings.NewSettings()
		tSettings.Validator.HTTPMaxBodySize = "1K"

		for target, body := range map[string]string{
			"/api/v1/validate":       `{"id":"` + strings.Repeat("x", 2048) + `"}`,
			"/api/v1/validate/batch": `[{"id":"` + strings.Repeat("x", 2048) + `"}]`,
		} {
			m := new(MockValidator)

			req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = -1

			rec := httptest.NewRecorder()
			New(ulogger.TestLogger{}, tSettings, m).ServeHTTP(rec, req)

			require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, target)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, int32(http.StatusRequestEntityTooLarge), resp.Status)

			m.AssertNotCalled(t, "ValidateTransaction", mock.Anything, mock.Anything)
			m.AssertNotCalled(t, "ValidateTransactions", mock.Anything, mock.Anything)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(New(ulogger.TestLogger{}, settings.NewSettings(), new(MockValidator)), http.MethodGet, "/api/v1/validate", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestValidateEndToEnd(t *testing.T) {
	ctx := context.Background()

	alice, err := signature.GenerateSecp256k1Signer()
	require.NoError(t, err)

	store := memory.New(ulogger.TestLogger{}, 0)
	require.NoError(t, store.Create(ctx, model.NewUTXO("genesis", 0, 100, alice.Owner())))

	tSettings := settings.NewSettings()
	tSettings.Validator.EchoDebug = true

	service, err := validator.NewService(ulogger.TestLogger{}, tSettings, store)
	require.NoError(t, err)

	h := New(ulogger.TestLogger{}, tSettings, service)

	tx := &model.Transaction{
		ID:        "spend",
		Inputs:    []model.Input{{Reference: model.NewReference("genesis", 0), Owner: alice.Owner()}},
		Outputs:   []model.Output{{Amount: 100, Recipient: "bob"}},
		Timestamp: 1_700_000_000_000,
	}

	_, err = signature.SignInputs(tx, alice)
	require.NoError(t, err)

	body, err := tx.JSON()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/v1/validate", string(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result validator.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.Equal(t, "spend", result.TxID)
	})

	t.Run("invalid is still a 200", func(t *testing.T) {
		tampered := strings.Replace(string(body), `"amount":100`, `"amount":-100`, 1)

		rec := do(h, http.MethodPost, "/api/v1/validate", tampered)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result validator.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.False(t, result.Valid)
		assert.Equal(t, []validator.ErrorKind{validator.InvalidSignature, validator.NegativeAmount, validator.AmountMismatch}, result.Kinds())
	})

	t.Run("batch keeps order", func(t *testing.T) {
		missing := `{"id":"other","inputs":[{"utxoId":{"txId":"nope","outputIndex":0},"owner":"x","signature":"y"}],"outputs":[],"timestamp":0}`

		rec := do(h, http.MethodPost, "/api/v1/validate/batch", "["+missing+","+string(body)+"]")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var results []validator.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
		require.Len(t, results, 2)
		assert.Equal(t, "other", results[0].TxID)
		assert.False(t, results[0].Valid)
		assert.Equal(t, validator.UtxoNotFound, results[0].Errors[0].Kind)
		assert.True(t, results[1].Valid)
	})
}
