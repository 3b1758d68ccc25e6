package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/payment"
)

const maxWebhookBody = 1 << 20

// PaymentHandler receives gateway callbacks.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Webhook handles POST /api/payments/webhook. The gateway only needs a 2xx to
// stop retrying, so ignored events are acknowledged too.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid_body", "cannot read body")
		return
	}
	order, handled, err := h.facade.PaymentWebhook(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader))
	if err != nil {
		WriteError(c, err)
		return
	}
	if !handled {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "orderId": order.ID})
}
