package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/server/http/dto"
)

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		validation *domainErrors.ValidationError
		transition *domainErrors.TransitionError
		invalid    *domainErrors.InvalidPayloadError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: validation.Reason, Field: validation.Field})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: invalid.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: transition.Error()})
	case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, domainErrors.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}
