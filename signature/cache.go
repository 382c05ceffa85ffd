package signature

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/cespare/xxhash"
	"github.com/jellydator/ttlcache/v3"
)

type cacheEntry struct {
	payloadHash []byte
	signature   string
	owner       string
	valid       bool
}

func (e cacheEntry) matches(payloadHash []byte, signature, owner string) bool {
	return e.signature == signature && e.owner == owner && bytes.Equal(e.payloadHash, payloadHash)
}

// CachingVerifier remembers the results of an underlying Verifier. Entries are
// bucketed by an xxhash of the inputs and hold the full inputs, so a hash
// collision is a cache miss, never a wrong answer.
type CachingVerifier struct {
	verifier Verifier
	cache    *ttlcache.Cache[uint64, cacheEntry]
	hits     atomic.Uint64
	misses   atomic.Uint64
}

func NewCachingVerifier(verifier Verifier, capacity int, ttl time.Duration) *CachingVerifier {
	cache := ttlcache.New[uint64, cacheEntry](
		ttlcache.WithTTL[uint64, cacheEntry](ttl),
		// nolint:gosec // G115 capacity comes from settings
		ttlcache.WithCapacity[uint64, cacheEntry](uint64(capacity)),
		ttlcache.WithDisableTouchOnHit[uint64, cacheEntry](),
	)

	return &CachingVerifier{
		verifier: verifier,
		cache:    cache,
	}
}

func (c *CachingVerifier) Verify(payload []byte, signature string, owner string) bool {
	payloadHash := chainhash.HashB(payload)
	key := cacheKey(payloadHash, signature, owner)

	if item := c.cache.Get(key); item != nil {
		if entry := item.Value(); entry.matches(payloadHash, signature, owner) {
			c.hits.Add(1)
			return entry.valid
		}
	}

	c.misses.Add(1)

	valid := c.verifier.Verify(payload, signature, owner)

	c.cache.Set(key, cacheEntry{
		payloadHash: payloadHash,
		signature:   signature,
		owner:       owner,
		valid:       valid,
	}, ttlcache.DefaultTTL)

	return valid
}

// Stats returns the number of cache hits and misses so far.
func (c *CachingVerifier) Stats() (hits uint64, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachingVerifier) Len() int {
	return c.cache.Len()
}

func cacheKey(payloadHash []byte, signature, owner string) uint64 {
	b := make([]byte, 0, len(payloadHash)+len(signature)+len(owner)+16)
	b = append(b, payloadHash...)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(signature)))
	b = append(b, signature...)
	b = binary.LittleEndian.AppendUint64(b, uint64(len(owner)))
	b = append(b, owner...)

	return xxhash.Sum64(b)
}
