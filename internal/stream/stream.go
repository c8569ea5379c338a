// Package stream runs an ensembler over a stream of score vectors, one
// timestep per line.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ensemble/internal/metrics"
	"github.com/tensorplex-labs/ensemble/internal/utils/logger"
	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

// ErrMalformedLine reports a line that is not a JSON array of numbers.
var ErrMalformedLine = errors.New("malformed score line")

const maxLineSize = 1024 * 1024

// Format selects how combined scores are written.
type Format string

const (
	// FormatPlain writes one decimal score per line.
	FormatPlain Format = "plain"
	// FormatJSON writes one {"line":n,"score":x} object per line.
	FormatJSON Format = "json"
)

// Stats summarizes a run.
type Stats struct {
	Lines    int           `json:"lines"`
	Combined int           `json:"combined"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

type jsonRecord struct {
	Line  int     `json:"line"`
	Score float64 `json:"score"`
}

// Runner feeds each score vector read from the input to an ensembler.
type Runner struct {
	ensembler ensemble.ScoreEnsembler
	format    Format
}

type RunnerOption func(*Runner)

func WithFormat(f Format) RunnerOption {
	return func(r *Runner) {
		r.format = f
	}
}

// WithMetrics records every combine call of the run on m.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.ensembler = metrics.Instrument(r.ensembler, m)
	}
}

func NewRunner(e ensemble.ScoreEnsembler, opts ...RunnerOption) *Runner {
	r := &Runner{ensembler: e, format: FormatPlain}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads one JSON array of scores per line from in and writes one combined
// score per line to out. Blank lines are skipped. The first line that cannot
// be parsed or combined stops the run; scores already written stay written.
// Cancelling ctx stops the run between lines.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	start := time.Now()
	var stats Stats

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	w := bufio.NewWriter(out)

	finish := func(err error) (Stats, error) {
		if flushErr := w.Flush(); err == nil && flushErr != nil {
			err = fmt.Errorf("failed to flush output: %w", flushErr)
		}
		stats.Duration = time.Since(start)
		logger.Sugar().Infow("Stream finished",
			"kind", r.ensembler.Kind(),
			"lines", stats.Lines,
			"combined", stats.Combined,
			"skipped", stats.Skipped,
			"duration", stats.Duration,
			"error", err)
		return stats, err
	}

	var scores []float64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		stats.Lines++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			stats.Skipped++
			continue
		}

		scores = scores[:0]
		if err := sonic.Unmarshal(line, &scores); err != nil {
			return finish(fmt.Errorf("line %d: %w: %w", stats.Lines, ErrMalformedLine, err))
		}

		score, err := r.ensembler.Combine(scores)
		if err != nil {
			return finish(fmt.Errorf("line %d: %w", stats.Lines, err))
		}

		if err := r.write(w, stats.Lines, score); err != nil {
			return finish(err)
		}
		stats.Combined++

		log.Trace().Int("line", stats.Lines).Int("detectors", len(scores)).Float64("score", score).Msg("Combined scores")
	}
	if err := scanner.Err(); err != nil {
		return finish(fmt.Errorf("failed to read input: %w", err))
	}
	return finish(nil)
}

func (r *Runner) write(w *bufio.Writer, line int, score float64) error {
	var buf []byte
	switch r.format {
	case FormatJSON:
		b, err := sonic.Marshal(jsonRecord{Line: line, Score: score})
		if err != nil {
			return fmt.Errorf("failed to marshal score: %w", err)
		}
		buf = b
	default:
		buf = strconv.AppendFloat(nil, score, 'g', -1, 64)
	}
	buf = append(buf, '\n')
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write score: %w", err)
	}
	return nil
}
