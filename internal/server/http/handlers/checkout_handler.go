package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/orderpay/internal/server/http/dto"
	"github.com/polkiloo/orderpay/internal/usecase"
)

// CheckoutHandler serves order creation, payment initiation and tracking.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// CreateOrder handles POST /api/orders.
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cmd := usecase.CreateOrderCommand{
		Currency:          req.Currency,
		Subtotal:          req.Subtotal,
		DiscountAmount:    req.DiscountAmount,
		DeliveryFee:       req.DeliveryFee,
		AdditionalCharges: req.AdditionalCharges,
		Items:             make([]usecase.CreateOrderItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, usecase.CreateOrderItem{
			ProviderProductRef: it.ProviderProductRef,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
		})
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/orders/"+order.Number+"/tracking")
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// InitiatePayment handles POST /api/orders/:number/payments. Declines and
// gateway outages are reported in the body with status 200.
func (h *CheckoutHandler) InitiatePayment(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.facade.InitiatePayment(c.Request.Context(), usecase.InitiatePaymentCommand{
		OrderNumber: c.Param("number"),
		Gateway:     req.Gateway,
		Variant:     req.Variant,
		PayerPhone:  req.PayerPhone,
		ReturnURL:   req.ReturnURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInitiationResponse(res))
}

// RetryPayment handles POST /api/orders/:number/payments/:reference/retry.
func (h *CheckoutHandler) RetryPayment(c *gin.Context) {
	var req dto.RetryPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	res, err := h.facade.RetryPayment(c.Request.Context(), usecase.RetryPaymentCommand{
		OrderNumber:       c.Param("number"),
		PreviousReference: c.Param("reference"),
		Gateway:           req.Gateway,
		Variant:           req.Variant,
		PayerPhone:        req.PayerPhone,
		ReturnURL:         req.ReturnURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInitiationResponse(res))
}

// Tracking handles GET /api/orders/:number/tracking.
func (h *CheckoutHandler) Tracking(c *gin.Context) {
	view, err := h.facade.Tracking(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TrackingResponse{
		OrderNumber: view.OrderNumber,
		Status:      string(view.Status),
		Events:      toEventResponses(view.Events),
	})
}
