package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/revenue-scorer/internal/analyzer"
	"github.com/insightdelivered/revenue-scorer/internal/extractor"
	"github.com/insightdelivered/revenue-scorer/internal/kyc"
	"github.com/insightdelivered/revenue-scorer/internal/oracle"
	"github.com/insightdelivered/revenue-scorer/internal/parser"
)

// Error codes returned in the "code" field of failed responses.
const (
	CodeNoExtractableData = "NO_EXTRACTABLE_DATA"
	CodeUnsupportedFile   = "UNSUPPORTED_FILE"
	CodeBadRequest        = "BAD_REQUEST"
	CodeBusy              = "ANALYSIS_IN_PROGRESS"
	CodeRateLimited       = "RATE_LIMITED"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeAmountOverflow    = "AMOUNT_OVERFLOW"
	CodePublishFailed     = "PUBLISH_FAILED"
	CodeInternal          = "INTERNAL"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func writeError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

// apiError is a request error with a fixed status and code.
type apiError struct {
	status int
	code   string
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &apiError{status: fiber.StatusBadRequest, code: CodeBadRequest, msg: msg}
}

// statusFor maps domain errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.code
	}
	switch {
	case errors.Is(err, parser.ErrNoExtractableData), errors.Is(err, extractor.ErrUnreadablePDF):
		return fiber.StatusUnprocessableEntity, CodeNoExtractableData
	case errors.Is(err, oracle.ErrAmountOverflow):
		return fiber.StatusUnprocessableEntity, CodeAmountOverflow
	case errors.Is(err, extractor.ErrUnsupportedType):
		return fiber.StatusUnsupportedMediaType, CodeUnsupportedFile
	case errors.Is(err, analyzer.ErrBusy):
		return fiber.StatusTooManyRequests, CodeBusy
	case errors.Is(err, kyc.ErrNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, kyc.ErrInvalidTransition), errors.Is(err, kyc.ErrDuplicate):
		return fiber.StatusConflict, CodeConflict
	case errors.Is(err, kyc.ErrInvalid):
		return fiber.StatusBadRequest, CodeBadRequest
	}
	return fiber.StatusInternalServerError, CodeInternal
}

func fail(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	return writeError(c, status, code, err.Error())
}

// errorHandler renders errors that escape handlers (unknown routes, body
// limit, recovered panics) in the same JSON shape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := CodeBadRequest
		switch fe.Code {
		case fiber.StatusNotFound:
			code = CodeNotFound
		case fiber.StatusInternalServerError:
			code = CodeInternal
		}
		return writeError(c, fe.Code, code, fe.Message)
	}
	return writeError(c, fiber.StatusInternalServerError, CodeInternal, err.Error())
}
