package serverutils

import (
	"errors"

	"literature-search-be/pkg/smartsearch"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by later handlers into the
// JSON error envelope with a status chosen from the error's type.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		body := ErrorBodyFor(err)
		return ctx.Status(body.Code).JSON(body)
	}
}

// ErrorBodyFor classifies err.
func ErrorBodyFor(err error) ErrorBody {
	var (
		validationErrs validator.ValidationErrors
		fiberErr       *fiber.Error
		invalid        *smartsearch.ValidationError
	)

	switch {
	case errors.As(err, &validationErrs):
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Errors = toFieldErrors(validationErrs)
		return body
	case errors.As(err, &invalid):
		body := ErrorResponse(fiber.StatusBadRequest, err.Error())
		body.Errors = []FieldError{{Field: invalid.Field, Message: invalid.Message}}
		return body
	case smartsearch.IsPrecondition(err), smartsearch.IsDuplicateQuery(err), smartsearch.IsStale(err):
		return ErrorResponse(fiber.StatusConflict, err.Error())
	case smartsearch.IsGateway(err):
		return ErrorResponse(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &fiberErr):
		return ErrorResponse(fiberErr.Code, fiberErr.Message)
	}
	return ErrorResponse(fiber.StatusInternalServerError, err.Error())
}
