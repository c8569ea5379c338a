// Package client calls the scoring server.
package client

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/ensemble/pkg/api"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
)

// Config configures a Client. Zero values fall back to the defaults.
type Config struct {
	Timeout         time.Duration
	RetryMax        int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	ZstdCompression bool
}

// ResponseError is returned when the server answers with an error envelope
// or a non-2xx status.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.StatusCode, e.Message)
}

type Client struct {
	config      Config
	restyClient *resty.Client
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// New creates a client. Requests that fail with a connection error, 429 or a
// 5xx status are retried following go-retryablehttp's default policy and
// backoff.
func New(config Config) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RetryMax < 0 {
		config.RetryMax = 0
	}
	if config.RetryWaitMin == 0 {
		config.RetryWaitMin = DefaultRetryWaitMin
	}
	if config.RetryWaitMax == 0 {
		config.RetryWaitMax = DefaultRetryWaitMax
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetRetryCount(config.RetryMax).
		SetRetryWaitTime(config.RetryWaitMin).
		SetRetryMaxWaitTime(config.RetryWaitMax).
		AddRetryCondition(retryCondition).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			return retryablehttp.DefaultBackoff(config.RetryWaitMin, config.RetryWaitMax, r.Request.Attempt, r.RawResponse), nil
		})

	client := &Client{
		config:      config,
		restyClient: restyClient,
	}

	if config.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		client.decoder = decoder
	}
	return client, nil
}

func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return err != nil
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(r.Request.Context(), r.RawResponse, err)
	return retry
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// Combine asks the server at baseURL for the combined score of one timestep.
func (c *Client) Combine(ctx context.Context, baseURL string, req api.CombineRequest) (api.CombineResponse, error) {
	return send[api.CombineRequest, api.CombineResponse](ctx, c, baseURL, req)
}

// CombineBatch asks the server at baseURL to combine several timesteps.
func (c *Client) CombineBatch(ctx context.Context, baseURL string, req api.CombineBatchRequest) (api.CombineBatchResponse, error) {
	return send[api.CombineBatchRequest, api.CombineBatchResponse](ctx, c, baseURL, req)
}

// send posts req to the route named after its type and unwraps the
// StdResponse envelope.
func send[Req, Resp any](ctx context.Context, c *Client, baseURL string, req Req) (Resp, error) {
	var zero Resp
	endpoint := strings.TrimSuffix(baseURL, "/") + "/" + reflect.TypeOf(req).Name()

	body, err := sonic.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal request: %w", err)
	}

	r := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")

	if c.encoder != nil {
		body = c.encoder.EncodeAll(body, nil)
		r.SetHeader("Content-Encoding", "zstd").SetHeader("Accept-Encoding", "zstd")
	}

	log.Trace().Str("endpoint", endpoint).Int("body_size", len(body)).Msg("Sending request")

	resp, err := r.SetBody(body).Post(endpoint)
	if err != nil {
		return zero, fmt.Errorf("failed to make request: %w", err)
	}

	responseBody := resp.Body()
	if c.decoder != nil && resp.Header().Get("Content-Encoding") == "zstd" {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return zero, fmt.Errorf("failed to decompress response: %w", err)
		}
		responseBody = decompressed
	}

	var envelope api.StdResponse[Resp]
	if err := sonic.Unmarshal(responseBody, &envelope); err != nil {
		if resp.IsError() {
			return zero, &ResponseError{StatusCode: resp.StatusCode(), Message: string(responseBody)}
		}
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if envelope.Error != nil {
		return zero, &ResponseError{StatusCode: resp.StatusCode(), Message: *envelope.Error}
	}
	if resp.IsError() {
		return zero, &ResponseError{StatusCode: resp.StatusCode(), Message: string(responseBody)}
	}
	return envelope.Body, nil
}
