package routes

import (
	"storefront-service/common/middleware"
	"storefront-service/controllers"
	auth "storefront-service/middleware"
	"storefront-service/models"

	"github.com/gin-gonic/gin"
)

// Controllers groups every handler the service exposes.
type Controllers struct {
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Promos   *controllers.PromoController
	Orders   *controllers.OrderController
	Feedback *controllers.FeedbackController
}

// RateLimits configures the per-IP limiters on public write endpoints.
type RateLimits struct {
	PerMinute int
	Burst     int
}

// RegisterRoutes sets up all storefront routes. Authenticate must already be installed on r.
func RegisterRoutes(r *gin.Engine, c Controllers, limits RateLimits) {
	if limits.PerMinute <= 0 {
		limits.PerMinute = 30
	}
	if limits.Burst <= 0 {
		limits.Burst = 5
	}

	products := r.Group("/products")
	products.GET("", c.Products.GetProducts)
	products.GET("/:id", c.Products.GetProduct)
	productAdmin := products.Group("", auth.RequireCapability(models.CapProducts))
	productAdmin.POST("", c.Products.CreateProduct)
	productAdmin.PUT("/:id", c.Products.UpdateProduct)
	productAdmin.DELETE("/:id", c.Products.DeleteProduct)

	cartRoutes := r.Group("/cart", auth.RequireAuth())
	cartRoutes.GET("", c.Cart.GetCart)
	cartRoutes.POST("/items", c.Cart.AddItem)
	cartRoutes.DELETE("/items/:product_id", c.Cart.RemoveItem)
	cartRoutes.DELETE("", c.Cart.ClearCart)
	cartRoutes.POST("/reconcile", c.Cart.Reconcile)
	cartRoutes.GET("/summary", c.Cart.Summary)

	promos := r.Group("/promos")
	promos.POST("/validate", middleware.RateLimitMiddleware(limits.PerMinute, limits.Burst), c.Promos.ValidatePromo)
	promoAdmin := promos.Group("", auth.RequireCapability(models.CapPromos))
	promoAdmin.POST("", c.Promos.CreatePromo)
	promoAdmin.GET("", c.Promos.ListPromos)
	promoAdmin.DELETE("/:code", c.Promos.DeletePromo)

	orders := r.Group("/orders")
	orders.POST("", c.Orders.CreateOrder)
	orders.GET("/mine", auth.RequireAuth(), c.Orders.GetMyOrders)
	orders.GET("/:order_id", auth.RequireAuth(), c.Orders.GetOrderByID)
	orders.GET("", auth.RequireCapability(models.CapOrdersRead), c.Orders.GetAllOrders)
	orderAdmin := orders.Group("", auth.RequireCapability(models.CapOrdersWrite))
	orderAdmin.PATCH("/:order_id/status", c.Orders.UpdateOrderStatus)
	orderAdmin.PATCH("/:order_id/shipping", c.Orders.UpdateShippingInfo)
	orderAdmin.DELETE("/:order_id", c.Orders.DeleteOrder)

	feedback := r.Group("/feedback")
	feedback.POST("", middleware.RateLimitMiddleware(limits.PerMinute, limits.Burst), c.Feedback.SubmitFeedback)
	feedback.GET("", auth.RequireCapability(models.CapFeedback), c.Feedback.ListAll)
	feedback.GET("/product/:product_id", c.Feedback.ListByProduct)
	feedback.GET("/order/:order_id", c.Feedback.ListByOrder)
	feedback.POST("/:product_id/:feedback_id/reply", auth.RequireCapability(models.CapFeedback), c.Feedback.Reply)
	feedback.PATCH("/:product_id/:feedback_id", auth.RequireAuth(), c.Feedback.Edit)
	feedback.DELETE("/:product_id/:feedback_id", auth.RequireAuth(), c.Feedback.Delete)
}
