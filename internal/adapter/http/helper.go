package http

import (
	"errors"
	"net/http"

	"peerfund-service/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

// writeDomainError maps lifecycle errors onto HTTP codes:
// missing loan → 404, business-rule rejections → 400, the rest → 500.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loan.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrInvalidTransition), errors.Is(err, loan.ErrExceedsPrincipal):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
