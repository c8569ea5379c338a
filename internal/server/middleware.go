package server

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

func acceptsZstd(c *fiber.Ctx) bool {
	return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd")
}

// zstdCodec holds one encoder and decoder shared by all requests. EncodeAll
// and DecodeAll are safe for concurrent use.
type zstdCodec struct {
	encoder    *zstd.Encoder
	decoder    *zstd.Decoder
	skipRoutes []string
}

// newZstdCodec bounds decompressed request bodies to maxBody bytes, the same
// limit fiber applies to plain bodies.
func newZstdCodec(maxBody int, skipRoutes ...string) (*zstdCodec, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		decoder.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &zstdCodec{encoder: encoder, decoder: decoder, skipRoutes: skipRoutes}, nil
}

func (z *zstdCodec) Close() {
	z.decoder.Close()
	if err := z.encoder.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close zstd encoder")
	}
}

// Handler decompresses zstd request bodies and compresses responses for
// clients that accept zstd. Skipped routes pass through untouched.
func (z *zstdCodec) Handler(c *fiber.Ctx) error {
	if slices.Contains(z.skipRoutes, c.Path()) {
		return c.Next()
	}

	if err := z.decodeRequest(c); err != nil {
		log.Warn().Err(err).Str("path", c.Path()).Msg("Rejected zstd request body")
		return c.Status(fiber.StatusBadRequest).JSON(createResponse(map[string]any{}, err))
	}

	if err := c.Next(); err != nil {
		return err
	}

	if acceptsZstd(c) {
		z.encodeResponse(c)
	}
	return nil
}

func (z *zstdCodec) decodeRequest(c *fiber.Ctx) error {
	if !strings.EqualFold(c.Get(fiber.HeaderContentEncoding), "zstd") {
		return nil
	}
	body := c.Body()
	if len(body) == 0 {
		return nil
	}

	decoded, err := z.decoder.DecodeAll(body, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress zstd data: %w", err)
	}
	c.Request().SetBody(decoded)
	c.Request().Header.Del(fiber.HeaderContentEncoding)

	log.Trace().Int("compressed_size", len(body)).Int("size", len(decoded)).Msg("Request body decompressed")
	return nil
}

func (z *zstdCodec) encodeResponse(c *fiber.Ctx) {
	body := c.Response().Body()
	if len(body) == 0 {
		return
	}

	compressed := z.encoder.EncodeAll(body, nil)
	c.Response().SetBody(compressed)
	c.Set(fiber.HeaderContentEncoding, "zstd")
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(compressed)))

	log.Trace().Int("original_size", len(body)).Int("compressed_size", len(compressed)).Msg("Response body compressed")
}
