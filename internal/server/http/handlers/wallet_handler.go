package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/server/http/dto"
)

// WalletHandler exposes wallet balance, history, withdrawals and fee previews.
type WalletHandler struct {
	facade WalletFacade
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(facade WalletFacade) *WalletHandler {
	return &WalletHandler{facade: facade}
}

// Summary handles GET /api/wallet.
func (h *WalletHandler) Summary(c *gin.Context) {
	wallet, err := h.facade.Wallet(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// Transactions handles GET /api/wallet/transactions.
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, ok := limitQuery(c)
	if !ok {
		return
	}
	txs, err := h.facade.WalletTransactions(c.Request.Context(), CurrentUserID(c), limit)
	if err != nil {
		WriteError(c, err)
		return
	}
	if txs == nil {
		txs = []model.WalletTransaction{}
	}
	c.JSON(http.StatusOK, txs)
}

// Withdraw handles POST /api/wallet/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if !bindBody(c, &req, true) {
		return
	}
	tx, err := h.facade.Withdraw(c.Request.Context(), CurrentUserID(c), req.Amount)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Verify handles GET /api/wallet/verify.
func (h *WalletHandler) Verify(c *gin.Context) {
	audit, err := h.facade.VerifyWallet(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, audit)
}

// FeePreview handles GET /api/fees/preview for the calling designer.
func (h *WalletHandler) FeePreview(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		badRequest(c, "invalid_amount", "amount must be a decimal number")
		return
	}
	breakdown, err := h.facade.PreviewFee(c.Request.Context(), CurrentUserID(c), amount)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}
