package signature

import (
	"strings"
	"sync"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/bsv-blockchain/utxogate/settings"
	"github.com/bsv-blockchain/utxogate/ulogger"
)

var (
	schemesMu sync.RWMutex
	schemes   = map[string]func() Verifier{
		SchemeSecp256k1: func() Verifier { return NewSecp256k1Verifier() },
	}
)

// Register makes a verifier available under scheme, replacing any existing one.
func Register(scheme string, newVerifier func() Verifier) {
	schemesMu.Lock()
	defer schemesMu.Unlock()

	schemes[strings.ToLower(scheme)] = newVerifier
}

// NewVerifier returns the verifier registered for scheme.
func NewVerifier(scheme string) (Verifier, error) {
	schemesMu.RLock()
	defer schemesMu.RUnlock()

	newVerifier, ok := schemes[strings.ToLower(scheme)]
	if !ok {
		return nil, errors.NewSignatureSchemeError("unknown signature scheme %q", scheme)
	}

	return newVerifier(), nil
}

// NewVerifierFromSettings returns the configured verifier, wrapped in a
// CachingVerifier unless the cache size is zero.
func NewVerifierFromSettings(logger ulogger.Logger, tSettings *settings.Settings) (Verifier, error) {
	verifier, err := NewVerifier(tSettings.Validator.SignatureScheme)
	if err != nil {
		return nil, err
	}

	if tSettings.Validator.SignatureCacheSize <= 0 {
		logger.Infof("[signature] using %s verifier without cache", tSettings.Validator.SignatureScheme)
		return verifier, nil
	}

	logger.Infof("[signature] using %s verifier with cache of %d entries, ttl %s",
		tSettings.Validator.SignatureScheme, tSettings.Validator.SignatureCacheSize, tSettings.Validator.SignatureCacheTTL)

	return NewCachingVerifier(verifier, tSettings.Validator.SignatureCacheSize, tSettings.Validator.SignatureCacheTTL), nil
}
