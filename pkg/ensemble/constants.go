package ensemble

const (
	DefaultBuckets   = 5
	DefaultMethod    = MethodStatic
	DefaultBootstrap = false

	// MaxBuckets bounds n_buckets, including bootstrap where it may exceed
	// the detector count.
	MaxBuckets = 4096
)
