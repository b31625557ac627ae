package controllers

import (
	"net/http"
	"strings"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry checkout without creating a second order.
const IdempotencyKeyHeader = "Idempotency-Key"

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// CreateOrder handles checkout for guests and signed-in customers
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	in := services.CreateOrderInput{
		Request:        req,
		IdempotencyKey: strings.TrimSpace(ctx.GetHeader(IdempotencyKeyHeader)),
	}
	if userID, err := middleware.GetUserID(ctx); err == nil {
		in.UserID = &userID
	}

	order, svcErr := oc.orderService.CreateOrder(ctx.Request.Context(), in)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetMyOrders returns paginated orders for the authenticated user
func (oc *OrderController) GetMyOrders(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)

	result, svcErr := oc.orderService.ListUserOrders(ctx.Request.Context(), userID, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetAllOrders returns paginated orders for all users
func (oc *OrderController) GetAllOrders(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	result, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetOrderByID looks an order up by its human-readable id for its owner or order staff
func (oc *OrderController) GetOrderByID(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), actor, ctx.Param("order_id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus moves an order along the status machine
func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	order, svcErr := oc.orderService.UpdateOrderStatus(ctx.Request.Context(), ctx.Param("order_id"), req.Status)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateShippingInfo merges the supplied shipping fields into the order
func (oc *OrderController) UpdateShippingInfo(ctx *gin.Context) {
	var patch models.ShippingInfoPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		badRequest(ctx, err)
		return
	}

	order, svcErr := oc.orderService.UpdateShippingInfo(ctx.Request.Context(), ctx.Param("order_id"), &patch)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder removes an order and its items
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	if svcErr := oc.orderService.DeleteOrder(ctx.Request.Context(), ctx.Param("order_id")); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
