package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/ensemble/internal/config"
)

const (
	// Server defaults
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8888
	DefaultBodyLimit  = 4 * 1024 * 1024 // 4MB
)

type Server struct {
	App     *fiber.App
	config  *config.ServerEnvConfig
	catalog *catalogEnsemblers
	zstd    *zstdCodec
}

// RouteHandler is a generic handler function type
type RouteHandler[Req, Resp any] func(*fiber.Ctx, Req) (Resp, error)
