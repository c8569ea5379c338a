package ensemble

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
)

// Method selects how detectors are grouped into buckets.
type Method string

const (
	// MethodStatic groups detectors into contiguous buckets of equal size, in
	// input order.
	MethodStatic Method = "static"

	// MethodDynamic shuffles the detectors and cuts them into buckets of
	// random, non-zero size.
	MethodDynamic Method = "dynamic"
)

func (m Method) String() string { return string(m) }

// ParseMethod accepts "static" or "dynamic", case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodStatic, MethodDynamic:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown bucket method %q", ErrConfiguration, s)
}

// BucketConfig holds the bucketing parameters shared by AverageOfMaximum and
// MaximumOfAverage.
type BucketConfig struct {
	Buckets   int
	Method    Method
	Bootstrap bool
	rng       *rand.Rand
}

// BucketOption customizes a BucketConfig.
type BucketOption func(*BucketConfig)

func WithBuckets(n int) BucketOption {
	return func(c *BucketConfig) {
		c.Buckets = n
	}
}

func WithMethod(m Method) BucketOption {
	return func(c *BucketConfig) {
		c.Method = m
	}
}

// WithBootstrap draws bucket members with replacement instead of
// partitioning the detectors.
func WithBootstrap(bootstrap bool) BucketOption {
	return func(c *BucketConfig) {
		c.Bootstrap = bootstrap
	}
}

// WithRand sets the random source used by dynamic bucketing and bootstrap
// sampling. The ensembler serializes access to it.
func WithRand(r *rand.Rand) BucketOption {
	return func(c *BucketConfig) {
		c.rng = r
	}
}

// WithSeed makes randomized bucketing reproducible.
func WithSeed(seed uint64) BucketOption {
	return func(c *BucketConfig) {
		c.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

func DefaultBucketConfig() BucketConfig {
	return BucketConfig{
		Buckets:   DefaultBuckets,
		Method:    DefaultMethod,
		Bootstrap: DefaultBootstrap,
	}
}

func (c BucketConfig) validate() error {
	if c.Buckets <= 0 {
		return fmt.Errorf("%w: n_buckets must be positive, got %d", ErrConfiguration, c.Buckets)
	}
	if c.Buckets > MaxBuckets {
		return fmt.Errorf("%w: n_buckets %d exceeds the limit of %d", ErrConfiguration, c.Buckets, MaxBuckets)
	}
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return err
	}
	return nil
}

func (c BucketConfig) randomized() bool {
	return c.Bootstrap || c.Method == MethodDynamic
}

// bucketer turns a detector count into bucket membership lists.
type bucketer struct {
	cfg BucketConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func newBucketer(opts []BucketOption) (*bucketer, error) {
	cfg := DefaultBucketConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Method, _ = ParseMethod(string(cfg.Method))

	rng := cfg.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	cfg.rng = nil
	return &bucketer{cfg: cfg, rng: rng}, nil
}

// plan returns, for n detectors, the detector indices belonging to each
// bucket. Every returned bucket is non-empty.
func (b *bucketer) plan(n int) ([][]int, error) {
	k := b.cfg.Buckets
	if !b.cfg.Bootstrap && k > n {
		return nil, fmt.Errorf("%w: n_buckets %d exceeds %d detectors", ErrConfiguration, k, n)
	}

	if !b.cfg.randomized() {
		return staticBuckets(n, k)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.cfg.Bootstrap:
		return bootstrapBuckets(b.rng, n, k, b.cfg.Method), nil
	default:
		return dynamicBuckets(b.rng, n, k), nil
	}
}

func staticBuckets(n, k int) ([][]int, error) {
	if n%k != 0 {
		return nil, fmt.Errorf("%w: %d detectors cannot be split into %d equal static buckets",
			ErrConfiguration, n, k)
	}
	size := n / k
	buckets := make([][]int, k)
	for i := range buckets {
		bucket := make([]int, size)
		for j := range bucket {
			bucket[j] = i*size + j
		}
		buckets[i] = bucket
	}
	return buckets, nil
}

func dynamicBuckets(rng *rand.Rand, n, k int) [][]int {
	perm := rng.Perm(n)

	// k-1 distinct cut points in [1, n-1] give k non-empty segments.
	cuts := rng.Perm(n - 1)[:k-1]
	for i := range cuts {
		cuts[i]++
	}
	slices.Sort(cuts)

	buckets := make([][]int, 0, k)
	start := 0
	for _, cut := range append(cuts, n) {
		buckets = append(buckets, perm[start:cut])
		start = cut
	}
	return buckets
}

func bootstrapBuckets(rng *rand.Rand, n, k int, method Method) [][]int {
	buckets := make([][]int, k)
	for i := range buckets {
		size := max(1, n/k)
		if method == MethodDynamic {
			size = 1 + rng.IntN(n)
		}
		bucket := make([]int, size)
		for j := range bucket {
			bucket[j] = rng.IntN(n)
		}
		buckets[i] = bucket
	}
	return buckets
}

func gather(scores []float64, idx []int, dst []float64) []float64 {
	dst = dst[:0]
	for _, i := range idx {
		dst = append(dst, scores[i])
	}
	return dst
}
