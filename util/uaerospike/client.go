// Package uaerospike wraps the aerospike client with a connection semaphore and gocore timing stats.
package uaerospike

import (
	"strings"
	"time"

	"github.com/aerospike/aerospike-client-go/v8"
	"github.com/aerospike/aerospike-client-go/v8/types"
	"github.com/ordishs/gocore"
)

const (
	// DefaultConnectionQueueSize is the default size for the connection queue
	// if not specified in the client policy
	DefaultConnectionQueueSize = 128
)

// getConnectionQueueSize returns the connection queue size from the given policy
// or falls back to DefaultConnectionQueueSize if the policy is nil or returns 0
func getConnectionQueueSize(policy *aerospike.ClientPolicy) int {
	if policy != nil && policy.ConnectionQueueSize > 0 {
		return policy.ConnectionQueueSize
	}

	return DefaultConnectionQueueSize
}

// ClientStats holds the statistics for Aerospike operations
type ClientStats struct {
	stat      *gocore.Stat
	batchStat *gocore.Stat
}

func NewClientStats() *ClientStats {
	stat := gocore.NewStat("Aerospike")

	return &ClientStats{
		stat:      stat,
		batchStat: stat.NewStat("Batch").AddRanges(0, 1, 100, 1_000, 10_000, 100_000),
	}
}

// Client is a wrapper around aerospike.Client that provides a semaphore to limit concurrent connections.
type Client struct {
	*aerospike.Client
	connSemaphore chan struct{}
	stats         *ClientStats
}

// NewClientWithPolicyAndHost connects, retrying transient failures unless the
// policy timeout is short enough to indicate a test.
func NewClientWithPolicyAndHost(policy *aerospike.ClientPolicy, hosts ...*aerospike.Host) (*Client, aerospike.Error) {
	var (
		client *aerospike.Client
		err    aerospike.Error
	)

	maxRetries := 3
	retryDelay := 1 * time.Second

	if policy != nil && policy.Timeout > 0 && policy.Timeout <= 200*time.Millisecond {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		client, err = aerospike.NewClientWithPolicyAndHost(policy, hosts...)
		if err == nil {
			break
		}

		isTransientError := err.Matches(
			types.INVALID_NODE_ERROR,
			types.TIMEOUT,
			types.NO_RESPONSE,
			types.NETWORK_ERROR,
			types.SERVER_NOT_AVAILABLE,
			types.NO_AVAILABLE_CONNECTIONS_TO_NODE,
		)

		if !isTransientError {
			break
		}

		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		return nil, err
	}

	return &Client{
		Client:        client,
		connSemaphore: make(chan struct{}, getConnectionQueueSize(policy)),
		stats:         NewClientStats(),
	}, nil
}

func (c *Client) acquire() func() {
	c.connSemaphore <- struct{}{}

	return func() { <-c.connSemaphore }
}

// Put is a wrapper around aerospike.Client.Put that uses semaphore to limit concurrent connections.
func (c *Client) Put(policy *aerospike.WritePolicy, key *aerospike.Key, binMap aerospike.BinMap) aerospike.Error {
	release := c.acquire()
	defer release()

	start := gocore.CurrentTime()
	defer func() {
		c.stats.stat.NewStat("Put").AddTime(start)
	}()

	return c.Client.Put(policy, key, binMap)
}

// Delete is a wrapper around aerospike.Client.Delete that uses semaphore to limit concurrent connections.
func (c *Client) Delete(policy *aerospike.WritePolicy, key *aerospike.Key) (bool, aerospike.Error) {
	release := c.acquire()
	defer release()

	start := gocore.CurrentTime()
	defer func() {
		c.stats.stat.NewStat("Delete").AddTime(start)
	}()

	return c.Client.Delete(policy, key)
}

// Get is a wrapper around aerospike.Client.Get that uses semaphore to limit concurrent connections.
func (c *Client) Get(policy *aerospike.BasePolicy, key *aerospike.Key, binNames ...string) (*aerospike.Record, aerospike.Error) {
	release := c.acquire()
	defer release()

	start := gocore.CurrentTime()
	defer func() {
		c.stats.stat.NewStat("Get: " + strings.Join(binNames, ",")).AddTime(start)
	}()

	return c.Client.Get(policy, key, binNames...)
}

// BatchGet returns one record per key, nil where the key does not exist.
func (c *Client) BatchGet(policy *aerospike.BatchPolicy, keys []*aerospike.Key, binNames ...string) ([]*aerospike.Record, aerospike.Error) {
	release := c.acquire()
	defer release()

	start := gocore.CurrentTime()
	defer func() {
		c.stats.batchStat.AddTimeForRange(start, len(keys))
	}()

	return c.Client.BatchGet(policy, keys, binNames...)
}

func (c *Client) BatchExists(policy *aerospike.BatchPolicy, keys []*aerospike.Key) ([]bool, aerospike.Error) {
	release := c.acquire()
	defer release()

	start := gocore.CurrentTime()
	defer func() {
		c.stats.batchStat.AddTimeForRange(start, len(keys))
	}()

	return c.Client.BatchExists(policy, keys)
}

func (c *Client) GetConnectionQueueSize() int {
	return cap(c.connSemaphore)
}
