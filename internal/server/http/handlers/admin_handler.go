package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/server/http/dto"
	"github.com/polkiloo/orderpay/internal/usecase"
)

// AdminHandler exposes the ledger and drives stage changes.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Order handles GET /admin/orders/:number.
func (h *AdminHandler) Order(c *gin.Context) {
	order, err := h.facade.Order(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Payments handles GET /admin/orders/:number/payments.
func (h *AdminHandler) Payments(c *gin.Context) {
	payments, err := h.facade.OrderPayments(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toPaymentResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

// Timeline handles GET /admin/orders/:number/timeline.
func (h *AdminHandler) Timeline(c *gin.Context) {
	events, err := h.facade.Timeline(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponses(events))
}

// Payment handles GET /admin/payments/:reference.
func (h *AdminHandler) Payment(c *gin.Context) {
	payment, err := h.facade.Payment(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(*payment))
}

// Stage handles POST /admin/orders/:number/stage.
func (h *AdminHandler) Stage(c *gin.Context) {
	h.transition(c, nil)
}

// ItemStage handles POST /admin/orders/:number/items/:item/stage.
func (h *AdminHandler) ItemStage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("item"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "item id must be numeric", Field: "item"})
		return
	}
	h.transition(c, &id)
}

func (h *AdminHandler) transition(c *gin.Context, itemID *int64) {
	var req dto.StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	stage := model.Stage(strings.ToUpper(strings.TrimSpace(req.Stage)))
	if !stage.Valid() {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown stage", Field: "stage"})
		return
	}

	order, err := h.facade.Transition(c.Request.Context(), usecase.StageCommand{
		OrderNumber: c.Param("number"),
		ItemID:      itemID,
		Stage:       stage,
		Note:        lifecycle.Note{Location: req.Location, Description: req.Description, Visible: req.Visible},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Milestone handles POST /admin/orders/:number/milestones.
func (h *AdminHandler) Milestone(c *gin.Context) {
	var req dto.MilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ev, err := h.facade.RecordMilestone(c.Request.Context(), usecase.MilestoneCommand{
		OrderNumber: c.Param("number"),
		ItemID:      req.ItemID,
		Note:        lifecycle.Note{Location: req.Location, Description: req.Description, Visible: req.Visible},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEventResponses([]model.TrackingEvent{ev})[0])
}
