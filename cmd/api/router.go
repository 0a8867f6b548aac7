package main

import (
	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/markethub/internal/analytics"
	"github.com/MikeMC777/markethub/internal/cart"
	"github.com/MikeMC777/markethub/internal/catalog"
	"github.com/MikeMC777/markethub/internal/config"
	"github.com/MikeMC777/markethub/internal/httpx"
	"github.com/MikeMC777/markethub/internal/order"
	"github.com/MikeMC777/markethub/internal/payment"
	"github.com/MikeMC777/markethub/internal/review"
	"github.com/MikeMC777/markethub/internal/user"
	"github.com/MikeMC777/markethub/internal/voucher"
)

type deps struct {
	cfg      config.Config
	users    user.Repository
	catalog  *catalog.Service
	cart     *cart.Service
	vouchers *voucher.Service
	orders   *order.Service
	payments *payment.Service
	reviews  *review.Service
	stats    *analytics.Service
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	// public catalog
	r.GET("/products", listProductsHandler(d.catalog))
	r.GET("/products/:id", getProductHandler(d.catalog))
	r.GET("/products/:id/reviews", listReviewsHandler(d.reviews))
	r.GET("/shops", listShopsHandler(d.catalog))
	r.GET("/shops/:id", getShopHandler(d.catalog))
	r.GET("/categories", listCategoriesHandler(d.catalog))

	r.POST("/register", registerHandler(d.users))

	// gateway callbacks authenticate by signature, not by JWT
	r.POST("/payments/momo/ipn", momoIPNHandler(d.payments))
	r.GET("/payments/vnpay/return", vnpayReturnHandler(d.payments))
	r.POST("/payments/payos/webhook", payosWebhookHandler(d.payments))

	auth := r.Group("/", httpx.Auth(d.cfg.JWTSecret))
	{
		auth.GET("/me", meHandler(d.users))
		auth.GET("/me/addresses", listAddressesHandler(d.users))
		auth.POST("/me/addresses", createAddressHandler(d.users))
		auth.DELETE("/me/addresses/:id", deleteAddressHandler(d.users))

		auth.GET("/cart", getCartHandler(d.cart))
		auth.POST("/cart/items", addCartItemHandler(d.cart))
		auth.PUT("/cart/items", updateCartItemHandler(d.cart))
		auth.DELETE("/cart/items", removeCartItemHandler(d.cart))
		auth.DELETE("/cart", clearCartHandler(d.cart))

		auth.GET("/vouchers/:code", lookupVoucherHandler(d.vouchers))
		auth.POST("/checkout", checkoutHandler(d.orders))
		auth.POST("/checkout/direct", directCheckoutHandler(d.orders))
		auth.GET("/orders", listMyOrdersHandler(d.orders))
		auth.GET("/orders/:id", getOrderHandler(d.orders))
		auth.PATCH("/orders/:id", editOrderHandler(d.orders))
		auth.POST("/orders/:id/cancel", cancelOrderHandler(d.orders))

		auth.GET("/orders/:id/payments", listPaymentsHandler(d.payments))
		auth.POST("/orders/:id/payments/cod", codPaymentHandler(d.payments))
		auth.POST("/orders/:id/payments/online", onlinePaymentHandler(d.payments))
		auth.POST("/orders/:id/payments/momo", createMomoHandler(d.payments))
		auth.POST("/orders/:id/payments/vnpay", createVNPayHandler(d.payments))
		auth.POST("/orders/:id/payments/payos", createPayOSHandler(d.payments))

		auth.POST("/reviews", createReviewHandler(d.reviews))
		auth.DELETE("/reviews/:id", deleteReviewHandler(d.reviews))

		auth.POST("/shops", applyShopHandler(d.catalog))
	}

	seller := auth.Group("/seller", httpx.RequireRole(user.RoleSeller, user.RoleAdmin))
	{
		seller.GET("/products", listSellerProductsHandler(d.catalog))
		seller.POST("/products", createProductHandler(d.catalog))
		seller.PUT("/products/:id", updateProductHandler(d.catalog))
		seller.DELETE("/products/:id", deleteProductHandler(d.catalog))
		seller.POST("/products/:id/images", addProductImageHandler(d.catalog))
		seller.POST("/products/:id/variants", createVariantHandler(d.catalog))
		seller.PUT("/variants/:id", updateVariantHandler(d.catalog))
		seller.DELETE("/variants/:id", deleteVariantHandler(d.catalog))

		seller.GET("/orders", listShopOrdersHandler(d.orders))
		seller.PATCH("/orders/:id/status", updateOrderStatusHandler(d.orders))

		seller.GET("/vouchers", listVouchersHandler(d.vouchers))
		seller.POST("/vouchers", createVoucherHandler(d.vouchers))
		seller.PUT("/vouchers/:id", updateVoucherHandler(d.vouchers))
		seller.DELETE("/vouchers/:id", deleteVoucherHandler(d.vouchers))

		seller.GET("/dashboard", shopDashboardHandler(d.stats))
	}

	admin := auth.Group("/admin", httpx.RequireRole(user.RoleAdmin))
	{
		admin.GET("/stats", adminStatsHandler(d.stats))
		admin.GET("/orders", listAllOrdersHandler(d.orders))
		admin.POST("/products/:id/review", reviewProductHandler(d.catalog))
		admin.POST("/shops/:id/review", reviewShopHandler(d.catalog))
		admin.POST("/categories", createCategoryHandler(d.catalog))
		admin.PUT("/categories/:id", updateCategoryHandler(d.catalog))
		admin.DELETE("/categories/:id", deleteCategoryHandler(d.catalog))
	}

	return r
}
