package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tensorplex-labs/ensemble/pkg/api"
	"github.com/tensorplex-labs/ensemble/pkg/ensemble"
)

// createResponse creates a StdResponse with the given body and error
func createResponse[T any](body T, err error) api.StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return api.StdResponse[T]{
			Body:  body,
			Error: &errMsg,
		}
	}
	return api.StdResponse[T]{
		Body:  body,
		Error: nil,
	}
}

// statusFor maps ensembling errors caused by the caller to 400.
func statusFor(err error) int {
	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, ensemble.ErrConfiguration), errors.Is(err, ensemble.ErrInputShape):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
