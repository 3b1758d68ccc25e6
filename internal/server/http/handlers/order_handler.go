package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/dto"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders. A repeated payment reference returns the
// existing order with 200 instead of 201.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if !bindBody(c, &req, true) {
		return
	}
	order, created, err := h.facade.ConfirmPayment(c.Request.Context(), CurrentUserID(c), usecase.PaymentConfirmation{
		OfferID:           req.OfferID,
		PaymentReference:  req.PaymentReference,
		ShippingAddressID: req.ShippingAddressID,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.OrderResponse{Order: order, Created: created})
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	var status *model.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := model.OrderStatus(raw)
		status = &s
	}
	orders, err := h.facade.Orders(c.Request.Context(), CurrentUserID(c), roleQuery(c), status)
	if err != nil {
		WriteError(c, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.respond(c)(h.facade.Order(c.Request.Context(), CurrentUserID(c), id))
}

// UpdateProduction handles PATCH /api/orders/:id/production.
func (h *OrderHandler) UpdateProduction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductionRequest
	if !bindBody(c, &req, true) {
		return
	}
	updates := make([]model.StepUpdate, 0, len(req.Steps))
	for _, s := range req.Steps {
		updates = append(updates, model.StepUpdate{Name: s.Name, Status: model.StepStatus(s.Status), Notes: s.Notes})
	}
	h.respond(c)(h.facade.UpdateProduction(c.Request.Context(), CurrentUserID(c), id, updates))
}

// AdvanceStatus handles POST /api/orders/:id/status.
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AdvanceStatusRequest
	if !bindBody(c, &req, true) {
		return
	}
	h.respond(c)(h.facade.AdvanceOrder(c.Request.Context(), CurrentUserID(c), id, model.OrderStatus(req.Status)))
}

// Ship handles POST /api/orders/:id/ship.
func (h *OrderHandler) Ship(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ShipOrderRequest
	if !bindBody(c, &req, true) {
		return
	}
	h.respond(c)(h.facade.ShipOrder(c.Request.Context(), CurrentUserID(c), id, usecase.ShipmentInput{
		Carrier:           req.Carrier,
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
	}))
}

// Delivered handles POST /api/orders/:id/delivered.
func (h *OrderHandler) Delivered(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.respond(c)(h.facade.ReportDelivered(c.Request.Context(), CurrentUserID(c), id))
}

// Confirm handles POST /api/orders/:id/confirm.
func (h *OrderHandler) Confirm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ConfirmReceiptRequest
	if !bindBody(c, &req, false) {
		return
	}
	h.respond(c)(h.facade.ConfirmReceipt(c.Request.Context(), CurrentUserID(c), id, req.Rating, req.Review))
}

// Dispute handles POST /api/orders/:id/dispute.
func (h *OrderHandler) Dispute(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindBody(c, &req, true) {
		return
	}
	h.respond(c)(h.facade.OpenDispute(c.Request.Context(), CurrentUserID(c), id, req.Reason))
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindBody(c, &req, false) {
		return
	}
	h.respond(c)(h.facade.CancelOrder(c.Request.Context(), CurrentUserID(c), id, req.Reason))
}

func (h *OrderHandler) respond(c *gin.Context) func(*model.Order, error) {
	return func(order *model.Order, err error) {
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
