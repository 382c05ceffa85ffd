package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/model"
	"github.com/bsv-blockchain/utxogate/services/validator"
	"github.com/bsv-blockchain/utxogate/signature"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer

	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"utxogate", "--log-level", "ERROR"}, args...))

	return stdout.String(), err
}

func writeFile(t *testing.T, name string, v interface{}) string {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	return path
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "", "keygen")
	require.NoError(t, err)

	var kp keyPair
	require.NoError(t, json.Unmarshal([]byte(out), &kp))
	assert.Len(t, kp.PrivateKey, 64)
	assert.Len(t, kp.Owner, 66)

	signer, err := signature.NewSecp256k1SignerFromHex(kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kp.Owner, signer.Owner())
}

func TestTemplate(t *testing.T) {
	out, err := run(t, "", "template", "--inputs", "2", "--outputs", "3", "--owner", "alice")
	require.NoError(t, err)

	tx, err := model.NewTransactionFromJSON([]byte(out))
	require.NoError(t, err)

	_, err = uuid.Parse(tx.ID)
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 2)
	require.Len(t, tx.Outputs, 3)
	assert.Equal(t, "alice", tx.Inputs[1].Owner)
	assert.Positive(t, tx.Timestamp)
}

func TestNewTemplate(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tx := newTemplate(0, -1, "", now)
	assert.Empty(t, tx.Inputs)
	assert.Empty(t, tx.Outputs)
	assert.Equal(t, int64(1_700_000_000_000), tx.Timestamp)
	assert.NotEqual(t, newTemplate(0, 0, "", now).ID, tx.ID)
}

func TestSignAndValidate(t *testing.T) {
	alice, err := signature.GenerateSecp256k1Signer()
	require.NoError(t, err)

	utxosPath := writeFile(t, "utxos.json", []*model.UTXO{
		model.NewUTXO("genesis", 0, 70, alice.Owner()),
		model.NewUTXO("genesis", 1, 30, alice.Owner()),
	})

	tx := &model.Transaction{
		ID: "spend",
		Inputs: []model.Input{
			{Reference: model.NewReference("genesis", 0), Owner: alice.Owner()},
			{Reference: model.NewReference("genesis", 1), Owner: alice.Owner()},
		},
		Outputs:   []model.Output{{Amount: 100, Recipient: "bob"}},
		Timestamp: 1_700_000_000_000,
	}

	unsigned, err := tx.JSON()
	require.NoError(t, err)

	signed, err := run(t, string(unsigned), "sign", "--tx", "-", "--key", alice.PrivateKeyHex())
	require.NoError(t, err)

	signedPath := filepath.Join(t.TempDir(), "signed.json")
	require.NoError(t, os.WriteFile(signedPath, []byte(signed), 0o600))

	t.Run("valid", func(t *testing.T) {
		out, err := run(t, "", "validate", "--tx", signedPath, "--utxos", utxosPath, "--commit")
		require.NoError(t, err)

		var result validator.Result
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.True(t, result.Valid)
		assert.Equal(t, "spend", result.TxID)
	})

	t.Run("valid against sqlite", func(t *testing.T) {
		out, err := run(t, "", "--store", "sqlitememory:///cli", "validate", "--tx", signedPath, "--utxos", utxosPath)
		require.NoError(t, err)
		assert.Contains(t, out, `"valid": true`)
	})

	t.Run("valid with csv utxos", func(t *testing.T) {
		csvPath := filepath.Join(t.TempDir(), "utxos.csv")
		csv := "tx_id,output_index,amount,owner\ngenesis,0,70," + alice.Owner() + "\ngenesis,1,30," + alice.Owner() + "\n"
		require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o600))

		out, err := run(t, "", "validate", "--tx", signedPath, "--utxos", csvPath)
		require.NoError(t, err)
		assert.Contains(t, out, `"valid": true`)
	})

	t.Run("unsigned is invalid", func(t *testing.T) {
		unsignedPath := filepath.Join(t.TempDir(), "unsigned.json")
		require.NoError(t, os.WriteFile(unsignedPath, unsigned, 0o600))

		out, err := run(t, "", "validate", "--tx", unsignedPath, "--utxos", utxosPath)
		require.Error(t, err)

		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, exitInvalid, exitErr.ExitCode())

		var result validator.Result
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, []validator.ErrorKind{validator.InvalidSignature, validator.InvalidSignature}, result.Kinds())
	})

	t.Run("no utxos", func(t *testing.T) {
		out, err := run(t, "", "validate", "--tx", signedPath)
		require.Error(t, err)
		assert.Contains(t, out, "UTXO_NOT_FOUND")
	})

	t.Run("sign with a key that owns nothing", func(t *testing.T) {
		other, err := signature.GenerateSecp256k1Signer()
		require.NoError(t, err)

		_, err = run(t, string(unsigned), "sign", "--tx", "-", "--key", other.PrivateKeyHex())
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	})
}

func TestValidateErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "", "validate", "--tx", filepath.Join(t.TempDir(), "nope.json"))
		assert.True(t, errors.Is(err, errors.ErrProcessing))
	})

	t.Run("malformed transaction", func(t *testing.T) {
		_, err := run(t, "{", "validate", "--tx", "-")
		assert.True(t, errors.Is(err, errors.ErrTxDecode))
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := run(t, `{"id":"x"}`, "--store", "nosuch:///", "validate", "--tx", "-")
		assert.True(t, errors.Is(err, errors.ErrConfiguration))
	})

	t.Run("import into memory", func(t *testing.T) {
		_, err := run(t, `[{"utxoId":{"txId":"a","outputIndex":0},"amount":1,"owner":"o"}]`, "import", "--utxos", "-")
		assert.NoError(t, err)
	})
}
