package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("formats params", func(t *testing.T) {
		err := New(ERR_TX_INVALID, "input %d of %s", 2, "tx1")
		assert.Equal(t, ERR_TX_INVALID, err.Code())
		assert.Equal(t, "input 2 of tx1", err.Message())
		assert.Nil(t, err.WrappedErr())
	})

	t.Run("wraps trailing error", func(t *testing.T) {
		cause := fmt.Errorf("disk on fire")
		err := New(ERR_STORAGE_ERROR, "failed to read %s", "utxo", cause)

		assert.Equal(t, "failed to read utxo", err.Message())
		assert.Equal(t, cause, err.Unwrap())
		assert.Contains(t, err.Error(), "disk on fire")
	})

	t.Run("wraps trailing *Error", func(t *testing.T) {
		inner := NewUtxoNotFoundError("missing")
		err := New(ERR_PROCESSING, "outer", inner)

		assert.True(t, errors.Is(err, ErrProcessing))
		assert.True(t, errors.Is(err, ErrUtxoNotFound))
		assert.False(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("invalid code", func(t *testing.T) {
		err := New(ERR(9999), "whatever")
		assert.Equal(t, "invalid error code", err.Message())
	})
}

func TestErrorString(t *testing.T) {
	err := New(ERR_TX_INVALID, "bad tx")
	assert.Equal(t, "Error: TX_INVALID (error code: 31), Message: bad tx", err.Error())

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Equal(t, ERR_UNKNOWN, nilErr.Code())
}

func TestAs(t *testing.T) {
	err := NewStorageError("db down", context.DeadlineExceeded)

	var tErr *Error
	require.True(t, As(err, &tErr))
	assert.Equal(t, ERR_STORAGE_ERROR, tErr.Code())

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestErrData(t *testing.T) {
	err := New(ERR_TX_INVALID, "tx has defects")
	err.SetData("count", 3)

	assert.Equal(t, 3, err.GetData("count"))
	assert.Nil(t, err.GetData("missing"))

	data, dErr := GetErrorData(err.Data().EncodeErrorData())
	require.NoError(t, dErr)
	assert.Equal(t, float64(3), data.GetData("count"))
}

func TestJoin(t *testing.T) {
	assert.Nil(t, Join(nil, nil))

	err := Join(NewError("one"), nil, NewError("two"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one")
	assert.Contains(t, err.Error(), "two")
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"context", context.Canceled, "context"},
		{"transaction", NewTxInvalidError("x"), "transaction"},
		{"signature", NewSignatureSchemeError("x"), "signature"},
		{"storage", NewStorageError("x"), "storage"},
		{"utxo", NewUtxoNotFoundError("x"), "utxo"},
		{"general", NewInvalidArgumentError("x"), "general"},
		{"plain", fmt.Errorf("plain"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.err))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(NewStorageUnavailableError("down")))
	assert.False(t, IsRetryableError(NewStorageError("broken")))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(nil))
}
