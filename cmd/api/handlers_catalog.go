package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/catalog"
	"github.com/MikeMC777/markethub/internal/httpx"
)

func listProductsHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := catalog.Query{
			ShopID:     c.Query("shop_id"),
			CategoryID: c.Query("category_id"),
			Q:          c.Query("q"),
			Status:     catalog.StatusOnSale,
			Limit:      limit,
			Offset:     offset,
		}
		var err error
		if q.MinPrice, err = priceParam(c, "min_price"); err != nil {
			httpx.Error(c, err)
			return
		}
		if q.MaxPrice, err = priceParam(c, "max_price"); err != nil {
			httpx.Error(c, err)
			return
		}
		items, err := svc.ListProducts(c.Request.Context(), q)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "limit": q.Limit, "offset": q.Offset})
	}
}

func priceParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Validationf("%s is not a number", name)
	}
	return &d, nil
}

// listSellerProductsHandler lists the caller's own products in any
// lifecycle state, unlike the public listing which shows onSale only.
func listSellerProductsHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := catalog.Query{
			ShopID: id.ShopID,
			Status: c.Query("status"),
			Limit:  limit,
			Offset: offset,
		}
		items, err := svc.ListProducts(c.Request.Context(), q)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "limit": q.Limit, "offset": q.Offset})
	}
}

func getProductHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := svc.GetProductDetail(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func createProductHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		p, err := svc.CreateProduct(c.Request.Context(), id.ShopID, in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.ProductInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		p, err := svc.UpdateProduct(c.Request.Context(), id.ShopID, c.Param("id"), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func deleteProductHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if err := svc.DeleteProduct(c.Request.Context(), id.ShopID, c.Param("id")); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func reviewProductHandler(svc *catalog.Service) gin.HandlerFunc {
	type request struct {
		Approve bool `json:"approve"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		if err := svc.ReviewProduct(c.Request.Context(), c.Param("id"), req.Approve); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func addProductImageHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.ImageInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		img, err := svc.AddProductImage(c.Request.Context(), id.ShopID, c.Param("id"), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, img)
	}
}

func createVariantHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.VariantInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		v, err := svc.CreateVariant(c.Request.Context(), id.ShopID, c.Param("id"), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func updateVariantHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.VariantInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		v, err := svc.UpdateVariant(c.Request.Context(), id.ShopID, c.Param("id"), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func deleteVariantHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.CallerIdentity(c)
		if err := svc.DeleteVariant(c.Request.Context(), id.ShopID, c.Param("id")); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func applyShopHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.ShopInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		id := httpx.CallerIdentity(c)
		shop, err := svc.ApplyShop(c.Request.Context(), id.UserID, in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, shop)
	}
}

func reviewShopHandler(svc *catalog.Service) gin.HandlerFunc {
	type request struct {
		Approve bool `json:"approve"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		if err := svc.ReviewShop(c.Request.Context(), c.Param("id"), req.Approve); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func getShopHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := svc.GetShop(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func listShopsHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListShops(c.Request.Context(), c.Query("status"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func listCategoriesHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func createCategoryHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.CategoryInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		cat, err := svc.CreateCategory(c.Request.Context(), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}

func updateCategoryHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.CategoryInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, apperr.Validationf("invalid body: %v", err))
			return
		}
		cat, err := svc.UpdateCategory(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cat)
	}
}

func deleteCategoryHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
