package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Entry is the result of a Lookup. Generation is the namespace generation
// observed by the lookup; callers must pass it back to Get and Set so that
// everything derived from one evaluation lands in the same generation.
type Entry struct {
	Generation int64
	Value      string
	Found      bool
}

// Namespace is a group of expiring string entries that can be flushed as a whole.
// Flush bumps the generation; entries written under an older generation are
// never returned again and age out through their TTL.
type Namespace interface {
	Lookup(ctx context.Context, key string) (Entry, error)
	Get(ctx context.Context, gen int64, key string) (string, bool, error)
	Set(ctx context.Context, gen int64, key, value string, ttl time.Duration) error
	Flush(ctx context.Context) error
}

// seedGeneration loads the generation into gen, creating it from the server
// clock in microseconds when the key is missing. A re-created generation is
// ahead of the lost one unless flushes outpaced one per microsecond, so
// entries written before the key was lost stay unreachable.
const seedGeneration = `
local gen = redis.call('GET', KEYS[1])
if not gen then
	local t = redis.call('TIME')
	gen = t[1] .. string.format('%06d', tonumber(t[2]))
	redis.call('SET', KEYS[1], gen)
end
`

// lookupScript reads the generation and the entry under it in one round trip.
// The data key depends on the generation read here, so it cannot be declared
// in KEYS; hash-tagged keys keep it in the same cluster slot as KEYS[1].
var lookupScript = redis.NewScript(seedGeneration + `
local val = redis.call('GET', ARGV[1] .. ':' .. gen .. ':' .. ARGV[2])
if not val then
	return {gen}
end
return {gen, val}
`)

// flushScript bumps the generation, seeding it first when it was evicted
var flushScript = redis.NewScript(seedGeneration + `
return redis.call('INCR', KEYS[1])
`)

// RedisNamespace stores entries under "{<prefix>}:<generation>:<key>" and the
// generation under "{<prefix>}:gen". The braces are a cluster hash tag.
//
// The generation key has no TTL. Run Redis with maxmemory-policy noeviction or
// one of the volatile-* policies so only expiring data keys are evicted.
type RedisNamespace struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisNamespace creates a namespace rooted at prefix
func NewRedisNamespace(rdb *redis.Client, prefix string) *RedisNamespace {
	return &RedisNamespace{rdb: rdb, prefix: "{" + prefix + "}"}
}

func (n *RedisNamespace) genKey() string {
	return n.prefix + ":gen"
}

func (n *RedisNamespace) dataKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", n.prefix, gen, key)
}

// Lookup implements Namespace
func (n *RedisNamespace) Lookup(ctx context.Context, key string) (Entry, error) {
	res, err := lookupScript.Run(ctx, n.rdb, []string{n.genKey()}, n.prefix, key).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to execute lookup script: %w", err)
	}
	return parseLookup(res)
}

func parseLookup(res interface{}) (Entry, error) {
	parts, ok := res.([]interface{})
	if !ok || len(parts) == 0 {
		return Entry{}, fmt.Errorf("unexpected result type from Redis: %T", res)
	}
	genStr, ok := parts[0].(string)
	if !ok {
		return Entry{}, fmt.Errorf("unexpected generation type from Redis: %T", parts[0])
	}
	gen, err := strconv.ParseInt(genStr, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid generation %q: %w", genStr, err)
	}
	entry := Entry{Generation: gen}
	if len(parts) > 1 {
		val, ok := parts[1].(string)
		if !ok {
			return Entry{}, fmt.Errorf("unexpected value type from Redis: %T", parts[1])
		}
		entry.Value = val
		entry.Found = true
	}
	return entry, nil
}

// Get implements Namespace
func (n *RedisNamespace) Get(ctx context.Context, gen int64, key string) (string, bool, error) {
	val, err := n.rdb.Get(ctx, n.dataKey(gen, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

// Set implements Namespace
func (n *RedisNamespace) Set(ctx context.Context, gen int64, key, value string, ttl time.Duration) error {
	if err := n.rdb.Set(ctx, n.dataKey(gen, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Flush implements Namespace
func (n *RedisNamespace) Flush(ctx context.Context) error {
	if err := flushScript.Run(ctx, n.rdb, []string{n.genKey()}).Err(); err != nil {
		return fmt.Errorf("failed to flush namespace %s: %w", n.prefix, err)
	}
	return nil
}
