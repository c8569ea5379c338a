// Package api holds the request and response types of the scoring service.
// Routes are named after the request type, e.g. POST /CombineRequest.
package api

import "github.com/tensorplex-labs/ensemble/pkg/ensemble"

// StdResponse represents the standardized response envelope
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// CombineRequest asks for the combined score of one timestep. Either Name
// selects a configured ensembler or Ensembler describes one inline; with
// neither the server default is used.
type CombineRequest struct {
	Name      string               `json:"name,omitempty"`
	Ensembler *ensemble.Definition `json:"ensembler,omitempty"`
	Scores    []float64            `json:"scores"`
}

type CombineResponse struct {
	Score float64       `json:"score"`
	Kind  ensemble.Kind `json:"kind"`
}

// CombineBatchRequest combines several timesteps with the same ensembler.
// Every row must have the same length.
type CombineBatchRequest struct {
	Name      string               `json:"name,omitempty"`
	Ensembler *ensemble.Definition `json:"ensembler,omitempty"`
	Rows      [][]float64          `json:"rows"`
}

type CombineBatchResponse struct {
	Scores []float64     `json:"scores"`
	Kind   ensemble.Kind `json:"kind"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type EnsemblersResponse struct {
	Default string                         `json:"default"`
	Named   map[string]ensemble.Definition `json:"named"`
}

const (
	HealthRoute     = "/health"
	MetricsRoute    = "/metrics"
	EnsemblersRoute = "/ensemblers"
)
