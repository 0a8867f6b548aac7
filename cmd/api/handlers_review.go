package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/httpx"
	"github.com/MikeMC777/markethub/internal/review"
)

func createReviewHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req review.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		rv, err := svc.Create(c.Request.Context(), id.UserID, id.ShopID, req)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, rv)
	}
}

func listReviewsHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListByProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func deleteReviewHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if err := svc.Delete(c.Request.Context(), id.UserID, id.Role, c.Param("id")); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
