// handlers.go: ledger request handlers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	goerrors "errors"
	"net/http"
	"time"

	"github.com/agilira/fortis"
	"github.com/agilira/fortis/internal/ledger"
	"github.com/gin-gonic/gin"
)

// CreateAccountRequest represents the request payload for creating an account
type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Currency string `json:"currency"`
}

// AddTransactionRequest represents the request payload for adding a transaction
type AddTransactionRequest struct {
	Amount     int64     `json:"amount" binding:"required"`
	Category   string    `json:"category"`
	Note       string    `json:"note"`
	OccurredAt time.Time `json:"occurredAt"`
}

// InvalidateRequest represents the request payload for dropping cache keys
type InvalidateRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// CreateAccount handles POST /api/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.repo.CreateAccount(c.Request.Context(), req.Name, req.Currency)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// GetAccount handles GET /api/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.repo.Account(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ListTransactions handles GET /api/accounts/:id/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	txns, err := h.repo.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns, "count": len(txns)})
}

// AddTransaction handles POST /api/accounts/:id/transactions
func (h *Handler) AddTransaction(c *gin.Context) {
	var req AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.repo.AddTransaction(c.Request.Context(), c.Param("id"), ledger.NewTransaction{
		Amount:     req.Amount,
		Category:   req.Category,
		Note:       req.Note,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// GetBalance handles GET /api/accounts/:id/balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.repo.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// DeleteTransaction handles DELETE /api/transactions/:id
func (h *Handler) DeleteTransaction(c *gin.Context) {
	if err := h.repo.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CacheStats handles GET /api/cache/stats
func (h *Handler) CacheStats(c *gin.Context) {
	cache := h.repo.Cache()
	stats := cache.Stats()
	settings := cache.Settings()
	c.JSON(http.StatusOK, gin.H{
		"size":           stats.Size,
		"maxSize":        stats.MaxSize,
		"hits":           stats.Hits,
		"misses":         stats.Misses,
		"evictions":      stats.Evictions,
		"expirations":    stats.Expirations,
		"hitRate":        stats.HitRate,
		"evictionPolicy": settings.EvictionPolicy.String(),
		"defaultTtl":     settings.DefaultTTL.String(),
	})
}

// InvalidateCache handles POST /api/cache/invalidate
func (h *Handler) InvalidateCache(c *gin.Context) {
	var req InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.repo.Invalidate(req.Pattern)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("cache invalidated", "pattern", req.Pattern, "removed", removed)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// BreakerState handles GET /api/breaker
func (h *Handler) BreakerState(c *gin.Context) {
	s := h.repo.Breaker().Snapshot()
	body := gin.H{
		"name":             s.Name,
		"state":            s.State.String(),
		"failures":         s.Failures,
		"failureThreshold": s.FailureThreshold,
		"halfOpenCalls":    s.HalfOpenCalls,
		"halfOpenMaxCalls": s.HalfOpenMaxCalls,
		"timeout":          s.Timeout.String(),
	}
	if !s.LastFailure.IsZero() {
		body["lastFailure"] = s.LastFailure.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

// fail writes err with the status matching its classification.
func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	body := gin.H{"error": err.Error()}
	if code := fortis.GetErrorCode(err); code != "" {
		body["code"] = string(code)
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, body)
}

// StatusFor maps a failure to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case ledger.IsNotFound(err):
		return http.StatusNotFound
	case ledger.IsInvalidInput(err), fortis.IsValidationError(err):
		return http.StatusBadRequest
	case fortis.GetErrorCode(err) == fortis.ErrCodeCircuitOpen,
		fortis.GetErrorCode(err) == fortis.ErrCodeFallbackFailed:
		return http.StatusServiceUnavailable
	}

	var ae *fortis.AppError
	if !goerrors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case fortis.KindValidation:
		return http.StatusBadRequest
	case fortis.KindSecurity:
		return http.StatusForbidden
	case fortis.KindNetwork:
		return http.StatusGatewayTimeout
	case fortis.KindStorage, fortis.KindBusinessLogic:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
