package server

import (
	"fmt"

	"github.com/tensorplex-labs/ensemble/internal/config"
	"github.com/tensorplex-labs/ensemble/internal/metrics"
	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

// catalogEnsemblers holds one long-lived ensembler per configured name so
// seeded random sources advance across requests instead of restarting.
type catalogEnsemblers struct {
	catalog    *config.Catalog
	ensemblers map[string]ensemble.ScoreEnsembler
	metrics    *metrics.Metrics
}

func newCatalogEnsemblers(catalog *config.Catalog, m *metrics.Metrics) (*catalogEnsemblers, error) {
	built := make(map[string]ensemble.ScoreEnsembler, len(catalog.Definitions))
	for name, def := range catalog.Definitions {
		e, err := ensemble.New(def)
		if err != nil {
			return nil, fmt.Errorf("ensembler %q: %w", name, err)
		}
		built[name] = metrics.Instrument(e, m)
	}
	return &catalogEnsemblers{catalog: catalog, ensemblers: built, metrics: m}, nil
}

// resolve picks the ensembler for a request: an inline definition wins, then
// the named entry, then the default.
func (c *catalogEnsemblers) resolve(name string, inline *ensemble.Definition) (ensemble.ScoreEnsembler, error) {
	if inline != nil {
		e, err := ensemble.New(*inline)
		if err != nil {
			return nil, err
		}
		return metrics.Instrument(e, c.metrics), nil
	}

	if name == "" {
		name = c.catalog.Default
	}
	e, ok := c.ensemblers[name]
	if !ok {
		return nil, fmt.Errorf("%w: no ensembler named %q", ensemble.ErrConfiguration, name)
	}
	return e, nil
}
