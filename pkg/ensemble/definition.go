package ensemble

import (
	"fmt"
	"strings"
)

// Definition is the declarative form of an ensembler, as found in config
// files and request bodies. Fields that do not apply to Kind are ignored.
// Buckets is nil when unset; an explicit zero is rejected, not defaulted.
type Definition struct {
	Kind      Kind      `json:"kind" yaml:"kind"`
	Weights   []float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	Buckets   *int      `json:"n_buckets,omitempty" yaml:"n_buckets,omitempty"`
	Method    Method    `json:"method,omitempty" yaml:"method,omitempty"`
	Bootstrap bool      `json:"bootstrap,omitempty" yaml:"bootstrap,omitempty"`
	// Seed fixes the random source of randomized bucketing. Zero leaves it
	// unseeded.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// NBuckets returns a pointer to n for Definition.Buckets.
func NBuckets(n int) *int { return &n }

// ParseKind accepts the kind names plus a few long-form aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "avg", "mean":
		return KindAverage, nil
	case "max", "maximum", "maximization":
		return KindMax, nil
	case "median":
		return KindMedian, nil
	case "aom", "average_of_maximum":
		return KindAverageOfMaximum, nil
	case "moa", "maximum_of_average":
		return KindMaximumOfAverage, nil
	}
	return "", fmt.Errorf("%w: unknown ensembler kind %q", ErrConfiguration, s)
}

// Validate checks the parameters that can be checked without knowing the
// detector count.
func (d Definition) Validate() error {
	_, err := New(d)
	return err
}

func (d Definition) bucketOptions() ([]BucketOption, error) {
	opts := []BucketOption{WithBootstrap(d.Bootstrap)}
	if d.Buckets != nil {
		opts = append(opts, WithBuckets(*d.Buckets))
	}
	if d.Method != "" {
		m, err := ParseMethod(string(d.Method))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithMethod(m))
	}
	if d.Seed != 0 {
		opts = append(opts, WithSeed(d.Seed))
	}
	return opts, nil
}

// New builds the ensembler described by d.
func New(d Definition) (ScoreEnsembler, error) {
	kind, err := ParseKind(string(d.Kind))
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindAverage:
		return NewAverage(d.Weights)
	case KindMax:
		return NewMax(), nil
	case KindMedian:
		return NewMedian(), nil
	}

	opts, err := d.bucketOptions()
	if err != nil {
		return nil, err
	}
	if kind == KindAverageOfMaximum {
		return NewAverageOfMaximum(opts...)
	}
	return NewMaximumOfAverage(opts...)
}
