package config

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

// EnsembleFile is the YAML file listing named ensemblers.
//
//	default: robust
//	ensemblers:
//	  robust:
//	    kind: median
//	  peaks:
//	    kind: aom
//	    n_buckets: 2
type EnsembleFile struct {
	Default    string                         `yaml:"default"`
	Ensemblers map[string]ensemble.Definition `yaml:"ensemblers"`
}

// builtinEnsemblers are always available, one per kind with default
// parameters.
func builtinEnsemblers() map[string]ensemble.Definition {
	return map[string]ensemble.Definition{
		"average": {Kind: ensemble.KindAverage},
		"max":     {Kind: ensemble.KindMax},
		"median":  {Kind: ensemble.KindMedian},
		"aom":     {Kind: ensemble.KindAverageOfMaximum},
		"moa":     {Kind: ensemble.KindMaximumOfAverage},
	}
}

// Catalog is the set of named ensembler definitions available to the
// server and the CLI.
type Catalog struct {
	Default     string
	Definitions map[string]ensemble.Definition
}

// Lookup returns the definition registered under name, or the default one
// when name is empty.
func (c *Catalog) Lookup(name string) (ensemble.Definition, error) {
	if name == "" {
		name = c.Default
	}
	def, ok := c.Definitions[name]
	if !ok {
		return ensemble.Definition{}, fmt.Errorf("%w: no ensembler named %q", ensemble.ErrConfiguration, name)
	}
	return def, nil
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Definitions))
	for name := range c.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadEnsembleFile parses and validates a YAML ensembler file.
func LoadEnsembleFile(path string) (*EnsembleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ensembler file %s: %w", path, err)
	}

	var file EnsembleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ensembler file: %w", err)
	}

	for name, def := range file.Ensemblers {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("ensembler %q: %w", name, err)
		}
	}
	return &file, nil
}

// NewCatalog merges the builtin definitions with the ones in the configured
// file. File entries win over builtins with the same name.
func NewCatalog(cfg EnsembleEnvConfig) (*Catalog, error) {
	catalog := &Catalog{
		Default:     cfg.Default,
		Definitions: builtinEnsemblers(),
	}

	if cfg.ConfigFile != "" {
		file, err := LoadEnsembleFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		for name, def := range file.Ensemblers {
			catalog.Definitions[name] = def
		}
		if file.Default != "" {
			catalog.Default = file.Default
		}
		log.Info().
			Str("file", cfg.ConfigFile).
			Int("ensemblers", len(file.Ensemblers)).
			Msg("Loaded ensembler definitions")
	}

	if _, err := catalog.Lookup(""); err != nil {
		return nil, fmt.Errorf("default ensembler: %w", err)
	}
	return catalog, nil
}

// Load reads .env (when present), the environment and the ensembler file.
func Load(ctx context.Context) (*AppConfig, *Catalog, error) {
	LoadDotEnv()

	cfg, err := LoadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	catalog, err := NewCatalog(cfg.EnsembleEnvConfig)
	if err != nil {
		return nil, nil, err
	}
	return cfg, catalog, nil
}
