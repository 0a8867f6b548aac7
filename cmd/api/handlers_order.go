package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/httpx"
	"github.com/MikeMC777/markethub/internal/order"
	"github.com/MikeMC777/markethub/internal/user"
)

// checkoutResponse carries every committed order id; when a later shop's
// partition failed the earlier orders still stand, so both are reported.
func writeCheckoutResult(c *gin.Context, res *order.CheckoutResult) {
	if res.Err == nil {
		c.JSON(http.StatusCreated, res)
		return
	}
	c.JSON(apperr.Status(res.Err), gin.H{
		"order_ids": res.OrderIDs,
		"error":     apperr.Message(res.Err),
	})
}

func checkoutHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		res, err := svc.CheckoutFromCart(c.Request.Context(), id.UserID, req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		writeCheckoutResult(c, res)
	}
}

func directCheckoutHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.DirectCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		res, err := svc.CheckoutDirect(c.Request.Context(), id.UserID, req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		writeCheckoutResult(c, res)
	}
}

func listMyOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		items, err := svc.ListMine(c.Request.Context(), id.UserID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		userID := id.UserID
		if id.Role == user.RoleAdmin {
			userID = ""
		}
		detail, err := svc.GetDetail(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func editOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.EditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		o, err := svc.Edit(c.Request.Context(), id.UserID, c.Param("id"), req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func cancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if err := svc.Cancel(c.Request.Context(), id.UserID, c.Param("id")); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listShopOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if id.ShopID == "" {
			httpx.Error(c, apperr.Forbiddenf("no shop for this account"))
			return
		}
		items, err := svc.ListByShop(c.Request.Context(), id.ShopID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func updateOrderStatusHandler(svc *order.Service) gin.HandlerFunc {
	type request struct {
		Status string `json:"status" binding:"required"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		orderID := c.Param("id")
		if id.Role != user.RoleAdmin {
			o, err := svc.Get(c.Request.Context(), orderID)
			if err != nil {
				httpx.Error(c, err)
				return
			}
			if o.ShopID != id.ShopID {
				httpx.Error(c, apperr.NotFoundf("order not found"))
				return
			}
		}
		if err := svc.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listAllOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		items, err := svc.ListAll(c.Request.Context(), limit, offset)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
	}
}
