package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/layer-3/clearport/adapters/signer"
	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
)

// TransferService is the slice of the engine the HTTP layer needs.
type TransferService interface {
	Transfer(ctx context.Context, signer ports.Signer, amount decimal.Decimal, sender, receiver string) (*core.SettledTransfer, error)
	Balances(ctx context.Context, signer ports.Signer, wallet string) ([]core.Balance, error)
}

// TransferHandlers contains HTTP handlers for the transfer endpoints
type TransferHandlers struct {
	service       TransferService
	store         ports.Store
	defaultSigner ports.Signer
}

// NewTransferHandlers creates new transfer handlers. defaultSigner backs
// requests that do not carry their own private key; it may be nil.
func NewTransferHandlers(service TransferService, store ports.Store, defaultSigner ports.Signer) *TransferHandlers {
	return &TransferHandlers{
		service:       service,
		store:         store,
		defaultSigner: defaultSigner,
	}
}

// TransferRequest is the POST /transfer body
type TransferRequest struct {
	Amount     string `json:"amount" binding:"required"`
	Sender     string `json:"sender"`
	Receiver   string `json:"receiver"`
	PrivateKey string `json:"privateKey"`
}

// Transfer handles the transfer request
func (h *TransferHandlers) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "amount is required"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid amount"})
		return
	}

	signingIdentity := h.defaultSigner
	if req.PrivateKey != "" {
		signingIdentity, err = signer.NewFromHex(req.PrivateKey)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid private key"})
			return
		}
	}
	if signingIdentity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "a private key is required"})
		return
	}

	result, err := h.service.Transfer(c.Request.Context(), signingIdentity, amount, req.Sender, req.Receiver)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrConfiguration) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// TransferStatus returns a persisted transfer record by id
func (h *TransferHandlers) TransferStatus(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "transfer history is not enabled"})
		return
	}

	record, err := h.store.GetTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "transfer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}

// Balances returns a wallet's ledger balances
func (h *TransferHandlers) Balances(c *gin.Context) {
	if h.defaultSigner == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "no signing identity configured"})
		return
	}

	balances, err := h.service.Balances(c.Request.Context(), h.defaultSigner, c.Param("address"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": balances})
}

// Health is the liveness probe
func (h *TransferHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
