package controllers

import (
	"net/http"

	"storefront-service/middleware"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// CartController serves the caller's server-held cart. Every route sits behind RequireAuth.
type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

func cartUser(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// GetCart returns the current cart for a user
func (cc *CartController) GetCart(c *gin.Context) {
	userID, ok := cartUser(c)
	if !ok {
		return
	}

	cart, svcErr := cc.cartService.GetCart(c.Request.Context(), userID)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart, "item_count": cart.TotalItemCount()})
}

// AddItem adds quantity of a product to the cart
func (cc *CartController) AddItem(c *gin.Context) {
	userID, ok := cartUser(c)
	if !ok {
		return
	}
	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cart, svcErr := cc.cartService.AddItem(c.Request.Context(), userID, &req)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart, "item_count": cart.TotalItemCount()})
}

// RemoveItem decrements a product by one, or drops it entirely with ?all=true
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, ok := cartUser(c)
	if !ok {
		return
	}
	productID, ok := intParam(c, "product_id")
	if !ok {
		return
	}

	cart, svcErr := cc.cartService.RemoveItem(c.Request.Context(), userID, productID, c.Query("all") == "true")
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart, "item_count": cart.TotalItemCount()})
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	userID, ok := cartUser(c)
	if !ok {
		return
	}

	if svcErr := cc.cartService.ClearCart(c.Request.Context(), userID); svcErr != nil {
		respondError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// Reconcile folds a client-held cart into the server cart
func (cc *CartController) Reconcile(c *gin.Context) {
	userID, ok := cartUser(c)
	if !ok {
		return
	}
	var req services.ReconcileCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cart, svcErr := cc.cartService.Reconcile(c.Request.Context(), userID, req.Cart)
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart, "item_count": cart.TotalItemCount()})
}

// Summary prices the cart for the caller's country or currency
func (cc *CartController) Summary(c *gin.Context) {
	userID, ok := cartUser(c)
	if !ok {
		return
	}

	summary, svcErr := cc.cartService.Summary(c.Request.Context(), userID,
		c.Query("country"), c.Query("currency"), c.Query("promo_code"))
	if svcErr != nil {
		respondError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, summary)
}
