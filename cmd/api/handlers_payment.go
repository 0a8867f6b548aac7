package main

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/httpx"
	"github.com/MikeMC777/markethub/internal/payment"
)

func codPaymentHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		p, err := svc.MockPay(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func onlinePaymentHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		p, err := svc.ProcessOnline(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func createMomoHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		payURL, err := svc.CreateMomo(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pay_url": payURL})
	}
}

func createVNPayHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		payURL, err := svc.CreateVNPay(c.Request.Context(), id.UserID, c.Param("id"), c.ClientIP())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pay_url": payURL})
	}
}

func createPayOSHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		checkoutURL, err := svc.CreatePayOS(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"checkout_url": checkoutURL})
	}
}

func listPaymentsHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		items, err := svc.ListByOrder(c.Request.Context(), id.UserID, id.ShopID, id.Role, c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func momoIPNHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ipn payment.MomoIPN
		if err := c.ShouldBindJSON(&ipn); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		if err := svc.HandleMomoIPN(c.Request.Context(), ipn); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

func vnpayReturnHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := make(map[string]string)
		for k, vs := range c.Request.URL.Query() {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}
		if err := svc.HandleVNPayCallback(c.Request.Context(), params); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

func payosWebhookHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Numbers stay as json.Number so the checksum is recomputed over
		// the gateway's exact rendering.
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		var hook payment.PayOSWebhook
		if err := dec.Decode(&hook); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		if err := svc.HandlePayOSWebhook(c.Request.Context(), hook); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}
