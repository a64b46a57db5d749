package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 7 * 24 * time.Hour

// CachedProvider wraps a Provider with a Redis read-through cache. Cache
// failures are logged and fall back to the inner provider; they never fail
// an embedding call.
type CachedProvider struct {
	inner  Provider
	client *redis.Client
}

// NewRedisCache connects to Redis and wraps the inner provider. The
// connection is verified with a ping before use.
func NewRedisCache(ctx context.Context, redisURL string, inner Provider) (*CachedProvider, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &CachedProvider{inner: inner, client: client}, nil
}

func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.inner.Model(), text)
	if vec, ok := c.get(ctx, key); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, vec)
	return vec, nil
}

func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	var misses []string
	var missIdx []int
	for i, t := range texts {
		if vec, ok := c.get(ctx, cacheKey(c.inner.Model(), t)); ok {
			vecs[i] = vec
			continue
		}
		misses = append(misses, t)
		missIdx = append(missIdx, i)
	}
	if len(misses) == 0 {
		return vecs, nil
	}
	fresh, err := c.inner.EmbedBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	for j, vec := range fresh {
		vecs[missIdx[j]] = vec
		c.put(ctx, cacheKey(c.inner.Model(), misses[j]), vec)
	}
	return vecs, nil
}

func (c *CachedProvider) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedProvider) Model() string { return c.inner.Model() }

func (c *CachedProvider) Close() error {
	if err := c.client.Close(); err != nil {
		log.Printf("[embedding] failed to close Redis client: %v", err)
	}
	return c.inner.Close()
}

func (c *CachedProvider) get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[embedding] cache read failed: %v", err)
		}
		return nil, false
	}
	vec, err := decodeVector(raw)
	if err != nil {
		log.Printf("[embedding] dropping corrupt cache entry %s: %v", key, err)
		c.client.Del(ctx, key)
		return nil, false
	}
	return vec, true
}

func (c *CachedProvider) put(ctx context.Context, key string, vec []float32) {
	if err := c.client.Set(ctx, key, encodeVector(vec), cacheTTL).Err(); err != nil {
		log.Printf("[embedding] cache write failed: %v", err)
	}
}

// cacheKey derives a stable key from the model name and the exact input
// text, so a model change never serves stale vectors.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, not a multiple of 4", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}
