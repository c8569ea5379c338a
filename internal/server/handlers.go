package server

import (
	"maps"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ensemble/pkg/api"
	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

func (s *Server) handleCombine(_ *fiber.Ctx, req api.CombineRequest) (api.CombineResponse, error) {
	e, err := s.catalog.resolve(req.Name, req.Ensembler)
	if err != nil {
		return api.CombineResponse{}, err
	}

	score, err := ensemble.TransformPartial(e, req.Scores)
	if err != nil {
		return api.CombineResponse{}, err
	}

	log.Debug().
		Str("kind", e.Kind().String()).
		Int("detectors", len(req.Scores)).
		Float64("score", score).
		Msg("Combined scores")
	return api.CombineResponse{Score: score, Kind: e.Kind()}, nil
}

func (s *Server) handleCombineBatch(_ *fiber.Ctx, req api.CombineBatchRequest) (api.CombineBatchResponse, error) {
	e, err := s.catalog.resolve(req.Name, req.Ensembler)
	if err != nil {
		return api.CombineBatchResponse{}, err
	}

	scores, err := ensemble.CombineRows(e, req.Rows)
	if err != nil {
		return api.CombineBatchResponse{}, err
	}

	log.Debug().
		Str("kind", e.Kind().String()).
		Int("rows", len(req.Rows)).
		Msg("Combined score rows")
	return api.CombineBatchResponse{Scores: scores, Kind: e.Kind()}, nil
}

func (s *Server) handleEnsemblers(c *fiber.Ctx) error {
	return c.JSON(createResponse(api.EnsemblersResponse{
		Default: s.catalog.catalog.Default,
		Named:   maps.Clone(s.catalog.catalog.Definitions),
	}, nil))
}
