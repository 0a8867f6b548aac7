package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/analytics"
	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/httpx"
)

func adminStatsHandler(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.AdminStats(c.Request.Context())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func shopDashboardHandler(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if id.ShopID == "" {
			httpx.Error(c, apperr.Forbiddenf("no shop for this account"))
			return
		}
		dash, err := svc.ShopDashboard(c.Request.Context(), id.ShopID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	}
}
