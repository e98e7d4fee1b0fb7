// routes.go: HTTP surface for the ledger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"net/http"

	"github.com/agilira/fortis"
	"github.com/agilira/fortis/internal/ledger"
	"github.com/gin-gonic/gin"
)

// Handler serves the ledger API.
type Handler struct {
	repo   *ledger.Repository
	logger fortis.Logger
}

// NewHandler creates a handler over repo. A nil logger discards output.
func NewHandler(repo *ledger.Repository, logger fortis.Logger) *Handler {
	if logger == nil {
		logger = fortis.NoOpLogger{}
	}
	return &Handler{repo: repo, logger: logger}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"breaker": h.repo.Breaker().State().String(),
		})
	})

	api := r.Group("/api")
	{
		api.POST("/accounts", h.CreateAccount)
		api.GET("/accounts/:id", h.GetAccount)
		api.GET("/accounts/:id/transactions", h.ListTransactions)
		api.POST("/accounts/:id/transactions", h.AddTransaction)
		api.GET("/accounts/:id/balance", h.GetBalance)
		api.DELETE("/transactions/:id", h.DeleteTransaction)

		api.GET("/cache/stats", h.CacheStats)
		api.POST("/cache/invalidate", h.InvalidateCache)
		api.GET("/breaker", h.BreakerState)
	}

	return r
}
