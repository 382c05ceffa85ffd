package signature

import (
	"encoding/hex"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/utxogate/errors"
)

const SchemeSecp256k1 = "secp256k1"

// Secp256k1Verifier verifies hex DER ECDSA signatures over the double sha256 of
// the payload. The owner is a hex encoded public key, compressed or not.
type Secp256k1Verifier struct{}

func NewSecp256k1Verifier() *Secp256k1Verifier {
	return &Secp256k1Verifier{}
}

func (v *Secp256k1Verifier) Verify(payload []byte, signature string, owner string) bool {
	sigBytes, err := hex.DecodeString(signature)
	if err != nil || len(sigBytes) == 0 {
		return false
	}

	pubKeyBytes, err := hex.DecodeString(owner)
	if err != nil || len(pubKeyBytes) == 0 {
		return false
	}

	pubKey, err := bec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}

	sig, err := bec.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}

	return sig.Verify(chainhash.DoubleHashB(payload), pubKey)
}

type Secp256k1Signer struct {
	privateKey *bec.PrivateKey
}

func NewSecp256k1Signer(privateKey *bec.PrivateKey) *Secp256k1Signer {
	return &Secp256k1Signer{privateKey: privateKey}
}

// GenerateSecp256k1Signer creates a signer for a fresh random key.
func GenerateSecp256k1Signer() (*Secp256k1Signer, error) {
	privateKey, err := bec.NewPrivateKey()
	if err != nil {
		return nil, errors.NewProcessingError("failed to generate private key", err)
	}

	return NewSecp256k1Signer(privateKey), nil
}

// NewSecp256k1SignerFromHex creates a signer from a 32 byte hex private key.
func NewSecp256k1SignerFromHex(privateKeyHex string) (*Secp256k1Signer, error) {
	b, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("private key is not hex", err)
	}

	if len(b) != 32 {
		return nil, errors.NewInvalidArgumentError("private key must be 32 bytes, got %d", len(b))
	}

	privateKey, _ := bec.PrivateKeyFromBytes(b)

	return NewSecp256k1Signer(privateKey), nil
}

// Owner returns the hex compressed public key.
func (s *Secp256k1Signer) Owner() string {
	return hex.EncodeToString(s.privateKey.PubKey().Compressed())
}

func (s *Secp256k1Signer) PrivateKeyHex() string {
	return hex.EncodeToString(s.privateKey.Serialize())
}

func (s *Secp256k1Signer) Sign(payload []byte) (string, error) {
	sig, err := s.privateKey.Sign(chainhash.DoubleHashB(payload))
	if err != nil {
		return "", errors.NewProcessingError("failed to sign payload", err)
	}

	return hex.EncodeToString(sig.Serialize()), nil
}
