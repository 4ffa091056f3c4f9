package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
)

// maxCallbackBody bounds gateway callback bodies.
const maxCallbackBody = 1 << 20

// CallbackHandler receives asynchronous gateway notifications.
type CallbackHandler struct {
	facade CallbackFacade
}

// NewCallbackHandler constructs CallbackHandler.
func NewCallbackHandler(facade CallbackFacade) *CallbackHandler {
	return &CallbackHandler{facade: facade}
}

// Handle handles POST /payments/callback/:gateway. The body is always the
// acknowledgement the gateway expects; the status tells it whether to retry.
func (h *CallbackHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	out, err := h.facade.Reconcile(c.Request.Context(), c.Param("gateway"), payload)

	status := http.StatusOK
	var (
		invalid    *domainErrors.InvalidPayloadError
		validation *domainErrors.ValidationError
	)
	switch {
	case err == nil:
	case errors.As(err, &invalid), errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrAttemptNotFound):
		status = http.StatusNotFound
	default:
		_ = c.Error(err)
		status = http.StatusInternalServerError
	}

	if len(out.Ack.Body) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, out.Ack.ContentType, out.Ack.Body)
}
