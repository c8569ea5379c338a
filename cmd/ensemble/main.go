// Command ensemble combines a stream of per-detector score vectors, one JSON
// array per line, into one score per line.
//
//	printf '[0.1,0.9,0.5,0.3]\n' | go run ./cmd/ensemble --kind median
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ensemble/internal/config"
	"github.com/tensorplex-labs/ensemble/internal/metrics"
	"github.com/tensorplex-labs/ensemble/internal/stream"
	"github.com/tensorplex-labs/ensemble/internal/utils/logger"
	"github.com/tensorplex-labs/ensemble/pkg/client"
	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

var (
	name      = flag.String("name", "", "configured ensembler to use (default from ENSEMBLE_DEFAULT)")
	kind      = flag.String("kind", "", "inline ensembler kind: average, max, median, aom, moa")
	weights   = flag.String("weights", "", "comma separated detector weights for average")
	buckets   = flag.Int("buckets", ensemble.DefaultBuckets, "number of buckets for aom and moa")
	method    = flag.String("method", string(ensemble.DefaultMethod), "bucketing method: static or dynamic")
	bootstrap = flag.Bool("bootstrap", ensemble.DefaultBootstrap, "draw bucket members with replacement")
	seed      = flag.Uint64("seed", 0, "seed for randomized bucketing (0 draws a random seed)")
	format    = flag.String("format", string(stream.FormatPlain), "output format: plain or json")
	input     = flag.String("in", "-", "input file, - for stdin; zstd input is detected")
	output    = flag.String("out", "-", "output file, - for stdout")
	remote    = flag.String("remote", "", "scoring server base URL; combine remotely instead of in process")
	promFile  = flag.String("metrics-file", "", "write Prometheus metrics of the run to this file (textfile collector format)")
)

func main() {
	logger.Init()
	defer logger.Logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensemble failed")
	}
}

func run(ctx context.Context) error {
	cfg, catalog, err := config.Load(ctx)
	if err != nil {
		return err
	}

	inline, err := inlineDefinition()
	if err != nil {
		return err
	}

	var e ensemble.ScoreEnsembler
	if *remote != "" {
		c, err := client.New(client.Config{
			Timeout:         cfg.ClientTimeout,
			RetryMax:        cfg.ClientRetryMax,
			ZstdCompression: true,
		})
		if err != nil {
			return err
		}
		defer c.Close()
		e = client.NewRemote(ctx, c, *remote, *name, inline)
	} else {
		def := inline
		if def == nil {
			found, err := catalog.Lookup(*name)
			if err != nil {
				return err
			}
			def = &found
		}
		if e, err = ensemble.New(*def); err != nil {
			return err
		}
	}

	in, err := openInput(*input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, closeOut, err := openOutput(*output)
	if err != nil {
		return err
	}
	defer closeOut()

	log.Info().
		Str("kind", string(e.Kind())).
		Str("in", *input).
		Str("out", *output).
		Msg("Combining score stream")

	opts := []stream.RunnerOption{stream.WithFormat(stream.Format(*format))}
	registry := prometheus.NewRegistry()
	if *promFile != "" {
		opts = append(opts, stream.WithMetrics(metrics.NewWithRegistry(registry)))
	}

	_, err = stream.NewRunner(e, opts...).Run(ctx, in, out)

	if *promFile != "" {
		if writeErr := prometheus.WriteToTextfile(*promFile, registry); writeErr != nil {
			log.Error().Err(writeErr).Str("file", *promFile).Msg("failed to write metrics")
		}
	}
	return err
}

// inlineDefinition builds a definition from the flags, or returns nil when
// no --kind was given.
func inlineDefinition() (*ensemble.Definition, error) {
	if *kind == "" {
		return nil, nil
	}
	k, err := ensemble.ParseKind(*kind)
	if err != nil {
		return nil, err
	}
	m, err := ensemble.ParseMethod(*method)
	if err != nil {
		return nil, err
	}
	w, err := parseWeights(*weights)
	if err != nil {
		return nil, err
	}

	def := &ensemble.Definition{
		Kind:      k,
		Weights:   w,
		Buckets:   buckets,
		Method:    m,
		Bootstrap: *bootstrap,
		Seed:      *seed,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func parseWeights(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	w := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: weight %q: %w", ensemble.ErrConfiguration, f, err)
		}
		w = append(w, v)
	}
	return w, nil
}

type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (f fileReader) Close() error {
	f.ReadCloser.Close()
	return f.file.Close()
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return stream.NewDecompressingReader(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := stream.NewDecompressingReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fileReader{ReadCloser: r, file: f}, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
