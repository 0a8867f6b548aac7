package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/cart"
	"github.com/MikeMC777/markethub/internal/httpx"
)

type cartLineRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
}

func (r cartLineRequest) key() cart.LineKey {
	return cart.LineKey{ProductID: r.ProductID, VariantID: r.VariantID}
}

func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		view, err := svc.Get(c.Request.Context(), id.UserID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func addCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		view, err := svc.Add(c.Request.Context(), id.UserID, req.key(), req.Quantity)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func updateCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		view, err := svc.Update(c.Request.Context(), id.UserID, req.key(), req.Quantity)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func removeCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		view, err := svc.Remove(c.Request.Context(), id.UserID, req.key())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func clearCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		view, err := svc.Clear(c.Request.Context(), id.UserID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
