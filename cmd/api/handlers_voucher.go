package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/httpx"
	"github.com/MikeMC777/markethub/internal/user"
	"github.com/MikeMC777/markethub/internal/voucher"
)

// sellerScope is empty for admins, who manage global vouchers.
func sellerScope(c *gin.Context) string {
	id := httpx.CallerIdentity(c)
	if id.Role == user.RoleAdmin {
		return ""
	}
	return id.ShopID
}

func listVouchersHandler(svc *voucher.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context(), sellerScope(c))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func createVoucherHandler(svc *voucher.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in voucher.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		v, err := svc.Create(c.Request.Context(), id.UserID, sellerScope(c), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func updateVoucherHandler(svc *voucher.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in voucher.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		v, err := svc.Update(c.Request.Context(), sellerScope(c), c.Param("id"), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func deleteVoucherHandler(svc *voucher.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), sellerScope(c), c.Param("id")); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// lookupVoucherHandler lets buyers check a voucher code before checkout.
func lookupVoucherHandler(svc *voucher.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Lookup(c.Request.Context(), c.Param("code"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}
