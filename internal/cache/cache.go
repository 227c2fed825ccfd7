// Package cache implements the balance-recovery cache of spec §4.5: a
// bounded TTL map from group-element fingerprints to small integers, seeded
// from a starting range or a CSV file, with read-through resolution.
package cache

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/shieldedcash/zsc-client/internal/apperrors"
	"github.com/shieldedcash/zsc-client/internal/curve"
)

const (
	infinityKey        = "INF"
	defaultTTLSeconds  = 100_000
	defaultMaxKeys     = 200_000
)

// ResolveFunc resolves a cache miss to its plaintext balance, typically the
// discrete-log fallback InvertGBalance.
type ResolveFunc func(p *curve.Point) (uint64, error)

type entry struct {
	value    uint64
	expireAt time.Time
}

// Cache is a process-local, single-threaded-by-convention (but internally
// mutex-guarded, since proof generation and RPC I/O can interleave with
// cache access across goroutines) TTL map.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	maxKeys int
	log     *log.Logger

	hits   uint64
	misses uint64
}

// Stats reports cumulative cache statistics (spec §8 S2/S3).
type Stats struct {
	Hits   uint64
	Misses uint64
	Keys   int
}

// Option configures a new Cache.
type Option func(*Cache)

// WithTTLSeconds overrides the default TTL.
func WithTTLSeconds(seconds int64) Option {
	return func(c *Cache) { c.ttl = time.Duration(seconds) * time.Second }
}

// WithMaxKeys overrides the default hard key-count bound.
func WithMaxKeys(n int) Option {
	return func(c *Cache) { c.maxKeys = n }
}

// WithLogger injects a logger; nil falls back to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     time.Duration(defaultTTLSeconds) * time.Second,
		maxKeys: defaultMaxKeys,
		log:     log.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func keyFor(p *curve.Point) string {
	if p.IsZero() {
		return infinityKey
	}
	coords := p.Serialize()
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(coords[0][2:]))
	h.Write([]byte(coords[1][2:]))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get resolves p's balance, consulting the cache first. On a hit the TTL is
// refreshed. On a miss, resolveMiss is invoked; a successful resolution is
// inserted (subject to the key-count cap) before being returned.
func (c *Cache) Get(p *curve.Point, resolveMiss ResolveFunc) (uint64, error) {
	key := keyFor(p)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if time.Now().Before(e.expireAt) {
			e.expireAt = time.Now().Add(c.ttl)
			c.entries[key] = e
			c.hits++
			c.mu.Unlock()
			return e.value, nil
		}
		delete(c.entries, key)
	}
	c.misses++
	c.mu.Unlock()

	v, err := resolveMiss(p)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if len(c.entries) < c.maxKeys {
		c.entries[key] = entry{value: v, expireAt: time.Now().Add(c.ttl)}
	}
	c.mu.Unlock()

	return v, nil
}

// Stats reports current cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Keys: len(c.entries)}
}

// PopulateBalanceRange inserts g·start, g·(start+1), ..., g·(start+count-1),
// stopping silently once the key-count cap is reached.
func (c *Cache) PopulateBalanceRange(start, count uint64) {
	for i := uint64(0); i < count; i++ {
		v := start + i
		p := curve.MulGenerator(curve.ScalarFromUint64(v))
		key := keyFor(p)

		c.mu.Lock()
		if len(c.entries) >= c.maxKeys {
			c.mu.Unlock()
			return
		}
		c.entries[key] = entry{value: v, expireAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
	}
}

// DelBalanceRange removes the entries PopulateBalanceRange would have
// inserted for the same (start, count).
func (c *Cache) DelBalanceRange(start, count uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := uint64(0); i < count; i++ {
		v := start + i
		p := curve.MulGenerator(curve.ScalarFromUint64(v))
		delete(c.entries, keyFor(p))
	}
}

var (
	csvKeyRe = regexp.MustCompile(`^0x[0-9a-f]{64}$`)
)

// PopulateCacheFromFile streams a CSV file with header "key,value" (spec
// §6), skipping malformed or excess rows silently. Missing or unreadable
// files fail with a storage-failure error.
func (c *Cache) PopulateCacheFromFile(csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return apperrors.StorageFailure("cache-file-not-found", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil || len(header) < 2 || header[0] != "key" || header[1] != "value" {
		return apperrors.StorageFailure("file-not-well-formed", csvPath, err)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.log.Printf("cache: skipping malformed CSV row in %s: %v", csvPath, err)
			continue
		}
		if len(row) < 2 {
			continue
		}
		key := row[0]
		if !csvKeyRe.MatchString(key) {
			continue
		}
		// The seed format is <u32>: reject anything non-numeric, negative,
		// or with trailing garbage rather than letting Sscanf silently
		// accept a malformed prefix like "5x".
		value64, err := strconv.ParseUint(row[1], 10, 32)
		if err != nil {
			c.log.Printf("cache: skipping malformed CSV value in %s: %q", csvPath, row[1])
			continue
		}
		value := value64

		c.mu.Lock()
		if len(c.entries) >= c.maxKeys {
			c.mu.Unlock()
			break
		}
		c.entries[key[2:]] = entry{value: value, expireAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
	}
	return nil
}

// InvertGBalance is the discrete-log fallback of spec §4.5: it iterates
// acc = 0, acc += g up to curve.BMax steps looking for acc == target.
func InvertGBalance(target *curve.Point) (uint64, error) {
	acc := curve.Zero()
	g := curve.Generator()
	if acc.Equal(target) {
		return 0, nil
	}
	for i := uint64(1); i <= curve.BMax; i++ {
		acc = acc.Add(g)
		if acc.Equal(target) {
			return i, nil
		}
	}
	return 0, apperrors.CryptoFailure("cannot-invert", "discrete log search exceeded BMax", nil)
}
