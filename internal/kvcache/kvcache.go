// Package kvcache persists the IndexedBlockSet side-index in Redis: for
// each chain, the set of block heights already fully committed. The
// blocks table remains authoritative; this is an optimization a sync pass
// consults to decide what's missing without scanning Postgres.
package kvcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ShardSize bounds each shard to at most this many heights before a new
// shard key is opened.
const ShardSize = 10_000_000

// Client wraps a go-redis client with the shard key scheme the
// IndexedBlockSet uses.
type Client struct {
	redis  *redis.Client
	logger *zap.Logger
}

// New builds a Client from a REDIS_URL-style connection string.
func New(redisURL string, logger *zap.Logger) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kvcache: parse redis url: %w", err)
	}
	return &Client{redis: redis.NewClient(opt), logger: logger}, nil
}

// Ping verifies connectivity at startup.
func (c *Client) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.redis.Close()
}

func shardKey(chain string, shard int64) string {
	return fmt.Sprintf("%s-%d", chain, shard)
}

func shardOf(height int64) int64 {
	return height / ShardSize
}

// IndexedSet is the in-memory, task-local representation of one chain's
// committed heights for the duration of a sync pass. It is loaded once,
// mutated in memory as chunks commit, and saved back wholesale.
type IndexedSet struct {
	chain   string
	heights map[int64]struct{}
}

// NewIndexedSet returns an empty set for chain.
func NewIndexedSet(chain string) *IndexedSet {
	return &IndexedSet{chain: chain, heights: make(map[int64]struct{})}
}

// FromHeights builds a set directly from a known height list, used by the
// repair operation that reconstructs the index from the blocks table.
func FromHeights(chain string, heights []int64) *IndexedSet {
	s := NewIndexedSet(chain)
	for _, h := range heights {
		s.heights[h] = struct{}{}
	}
	return s
}

// Add records height as committed.
func (s *IndexedSet) Add(height int64) {
	s.heights[height] = struct{}{}
}

// Contains reports whether height is already committed.
func (s *IndexedSet) Contains(height int64) bool {
	_, ok := s.heights[height]
	return ok
}

// Heights returns every committed height, sorted ascending.
func (s *IndexedSet) Heights() []int64 {
	out := make([]int64, 0, len(s.heights))
	for h := range s.heights {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of committed heights.
func (s *IndexedSet) Len() int {
	return len(s.heights)
}

// Load reads every shard for chain and returns the union as an IndexedSet.
// A chain with no shard keys yet returns an empty set, not an error.
func (c *Client) Load(ctx context.Context, chain string) (*IndexedSet, error) {
	keys, err := c.matchingKeys(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("kvcache: scan shards for %s: %w", chain, err)
	}

	set := NewIndexedSet(chain)
	for _, key := range keys {
		payload, err := c.redis.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("kvcache: get shard %s: %w", key, err)
		}

		var shardHeights []int64
		if err := json.Unmarshal([]byte(payload), &shardHeights); err != nil {
			return nil, fmt.Errorf("kvcache: decode shard %s: %w", key, err)
		}
		for _, h := range shardHeights {
			set.Add(h)
		}
	}
	return set, nil
}

// Save overwrites every shard a set touches with its full, current
// contents. It never performs an incremental update — the design treats
// the KV cache as a write-through snapshot, not a log.
func (c *Client) Save(ctx context.Context, set *IndexedSet) error {
	byShard := make(map[int64][]int64)
	for _, h := range set.Heights() {
		shard := shardOf(h)
		byShard[shard] = append(byShard[shard], h)
	}

	pipe := c.redis.Pipeline()
	for shard, heights := range byShard {
		payload, err := json.Marshal(heights)
		if err != nil {
			return fmt.Errorf("kvcache: encode shard %d: %w", shard, err)
		}
		pipe.Set(ctx, shardKey(set.chain, shard), payload, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("kvcache: save shards for %s: %w", set.chain, err)
	}
	return nil
}

// Delete removes every shard belonging to chain.
func (c *Client) Delete(ctx context.Context, chain string) error {
	keys, err := c.matchingKeys(ctx, chain)
	if err != nil {
		return fmt.Errorf("kvcache: scan shards for %s: %w", chain, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("kvcache: delete shards for %s: %w", chain, err)
	}
	return nil
}

// matchingKeys scans for every shard key belonging to chain, guarding
// against a prefix collision between e.g. "celo" and "celo-test" by
// requiring the suffix after the chain name to be a bare shard index.
func (c *Client) matchingKeys(ctx context.Context, chain string) ([]string, error) {
	pattern := chain + "-*"
	var matches []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		suffix := strings.TrimPrefix(key, chain+"-")
		if _, err := strconv.ParseInt(suffix, 10, 64); err != nil {
			continue
		}
		matches = append(matches, key)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
