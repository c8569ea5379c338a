// Package server exposes the ensemblers over HTTP.
package server

import (
	"context"
	"reflect"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ensemble/internal/config"
	"github.com/tensorplex-labs/ensemble/internal/metrics"
	"github.com/tensorplex-labs/ensemble/pkg/api"
)

// Options carries the optional collaborators of a Server.
type Options struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewServer creates the scoring server and registers its routes. A nil
// serverConfig uses the defaults.
func NewServer(serverConfig *config.ServerEnvConfig, catalog *config.Catalog, opts Options) (*Server, error) {
	cfg := config.ServerEnvConfig{
		Host:      DefaultServerHost,
		Port:      DefaultServerPort,
		BodyLimit: DefaultBodyLimit,
	}
	if serverConfig != nil {
		cfg = *serverConfig
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	ensemblers, err := newCatalogEnsemblers(catalog, opts.Metrics)
	if err != nil {
		return nil, err
	}

	codec, err := newZstdCodec(cfg.BodyLimit, api.HealthRoute, api.MetricsRoute)
	if err != nil {
		return nil, err
	}

	log.Info().
		Any("serverConfig", cfg).
		Strs("ensemblers", catalog.Names()).
		Str("default", catalog.Default).
		Msg("Server configuration loaded")

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             cfg.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Next:  acceptsZstd,
		Level: compress.LevelBestSpeed,
	}))

	server := &Server{
		App:     app,
		config:  &cfg,
		catalog: ensemblers,
		zstd:    codec,
	}

	app.Use(codec.Handler)

	app.Get(api.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(createResponse(api.HealthResponse{Status: "ok"}, nil))
	})
	app.Get(api.EnsemblersRoute, server.handleEnsemblers)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get(api.MetricsRoute, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	ServeRoute(server, server.handleCombine)
	ServeRoute(server, server.handleCombineBatch)

	return server, nil
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := statusFor(err)

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// ServeRoute registers POST /<request type name> for handler.
func ServeRoute[Req, Resp any](s *Server, handler RouteHandler[Req, Resp]) {
	var zero Req
	route := "/" + reflect.TypeOf(zero).Name()

	s.App.Post(route, func(c *fiber.Ctx) error {
		var req Req
		if err := c.BodyParser(&req); err != nil {
			log.Error().
				Err(err).
				Str("route", route).
				Msg("Failed to parse request body")
			return c.Status(fiber.StatusBadRequest).
				JSON(createResponse(map[string]any{}, err))
		}

		resp, err := handler(c, req)
		if err != nil {
			code := statusFor(err)
			log.Warn().
				Err(err).
				Int("status_code", code).
				Str("route", route).
				Msg("Handler returned error")
			var zero Resp
			return c.Status(code).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

// Start listens on the configured address until the app is shut down.
func (s *Server) Start() error {
	addr := s.config.Address()
	log.Info().Str("address", addr).Msg("Server starting")
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.App.ShutdownWithContext(ctx)
	s.zstd.Close()
	return err
}
