package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/dto"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// OfferHandler manages negotiation endpoints.
type OfferHandler struct {
	facade OfferFacade
}

// NewOfferHandler constructs OfferHandler.
func NewOfferHandler(facade OfferFacade) *OfferHandler {
	return &OfferHandler{facade: facade}
}

// Create handles POST /api/offers.
func (h *OfferHandler) Create(c *gin.Context) {
	var req dto.CreateOfferRequest
	if !bindBody(c, &req, true) {
		return
	}
	offer, err := h.facade.CreateOffer(c.Request.Context(), CurrentUserID(c), usecase.CreateOfferInput{
		CatalogItemID: req.CatalogItemID,
		Price:         req.Price,
		Measurements:  req.Measurements,
		Notes:         req.Notes,
		TryOnImageURL: req.TryOnImageURL,
		Deadline:      req.Deadline,
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// List handles GET /api/offers.
func (h *OfferHandler) List(c *gin.Context) {
	var status *model.OfferStatus
	if raw := c.Query("status"); raw != "" {
		s := model.OfferStatus(raw)
		status = &s
	}
	offers, err := h.facade.Offers(c.Request.Context(), CurrentUserID(c), roleQuery(c), status)
	if err != nil {
		WriteError(c, err)
		return
	}
	if offers == nil {
		offers = []model.Offer{}
	}
	c.JSON(http.StatusOK, offers)
}

// Get handles GET /api/offers/:id.
func (h *OfferHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.respond(c)(h.facade.Offer(c.Request.Context(), CurrentUserID(c), id))
}

// Counter handles POST /api/offers/:id/counter.
func (h *OfferHandler) Counter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CounterOfferRequest
	if !bindBody(c, &req, true) {
		return
	}
	h.respond(c)(h.facade.CounterOffer(c.Request.Context(), CurrentUserID(c), id, req.Price, req.Notes))
}

// Accept handles POST /api/offers/:id/accept.
func (h *OfferHandler) Accept(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.respond(c)(h.facade.AcceptOffer(c.Request.Context(), CurrentUserID(c), id))
}

// Reject handles POST /api/offers/:id/reject.
func (h *OfferHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.RejectOfferRequest
	if !bindBody(c, &req, false) {
		return
	}
	h.respond(c)(h.facade.RejectOffer(c.Request.Context(), CurrentUserID(c), id, req.Notes))
}

// Withdraw handles POST /api/offers/:id/withdraw.
func (h *OfferHandler) Withdraw(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.respond(c)(h.facade.WithdrawOffer(c.Request.Context(), CurrentUserID(c), id))
}

func (h *OfferHandler) respond(c *gin.Context) func(*model.Offer, error) {
	return func(offer *model.Offer, err error) {
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, offer)
	}
}
