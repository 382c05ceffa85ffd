package httpimpl

import (
	"net/http"

	"github.com/bsv-blockchain/utxogate/errors"
	"github.com/labstack/echo/v4"
)

// errorResponse is the body of every error answer.
type errorResponse struct {
	Status int32  `json:"status"`
	Code   int32  `json:"code"`
	Err    string `json:"error"`
}

// sendError writes err as JSON. Code is the ERR code of err when it has one.
func sendError(c echo.Context, status int, err error) error {
	code := int32(errors.ERR_UNKNOWN)

	var uErr *errors.Error
	if errors.As(err, &uErr) {
		code = int32(uErr.Code())
	}

	prometheusValidatorHTTPErrors.WithLabelValues(errors.ERR(code).Enum()).Inc()

	return c.JSON(status, &errorResponse{
		// nolint:gosec // G115 http status codes fit
		Status: int32(status),
		Code:   code,
		Err:    err.Error(),
	})
}

// decodeStatus is 413 when the body limit cut a request of unknown length short
// while it was being decoded, 400 for any other decode failure.
func decodeStatus(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusBadRequest
}
