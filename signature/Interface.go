// Package signature provides the signature schemes input owners authorise spends with.
package signature

// Verifier checks that signature authorises payload for owner. Implementations
// must be deterministic and free of side effects visible to the caller.
type Verifier interface {
	Verify(payload []byte, signature string, owner string) bool
}

// Signer produces signatures a matching Verifier accepts for Owner().
type Signer interface {
	Owner() string
	Sign(payload []byte) (string, error)
}
