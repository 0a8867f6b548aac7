package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/httpx"
	"github.com/MikeMC777/markethub/internal/user"
)

func registerHandler(repo user.Repository) gin.HandlerFunc {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		hash, err := user.HashPassword(req.Password)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		u := &user.User{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         user.RoleBuyer,
			CreatedAt:    time.Now(),
		}
		if err := repo.Create(c.Request.Context(), u); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

func meHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		u, err := repo.GetByID(c.Request.Context(), id.UserID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func listAddressesHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		out, err := repo.ListAddresses(c.Request.Context(), id.UserID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func createAddressHandler(repo user.Repository) gin.HandlerFunc {
	type request struct {
		RecipientName string `json:"recipient_name" binding:"required"`
		Phone         string `json:"phone" binding:"required"`
		AddressLine   string `json:"address_line" binding:"required"`
		City          string `json:"city" binding:"required"`
		District      string `json:"district"`
		Ward          string `json:"ward"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		a := &user.ShippingAddress{
			ID:            uuid.NewString(),
			UserID:        id.UserID,
			RecipientName: req.RecipientName,
			Phone:         req.Phone,
			AddressLine:   req.AddressLine,
			City:          req.City,
			District:      req.District,
			Ward:          req.Ward,
			CreatedAt:     time.Now(),
		}
		if err := repo.CreateAddress(c.Request.Context(), a); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func deleteAddressHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if err := repo.DeleteAddress(c.Request.Context(), c.Param("id"), id.UserID); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
