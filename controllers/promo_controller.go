package controllers

import (
	"net/http"

	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// PromoController handles HTTP requests for promo code operations.
type PromoController struct {
	promoService services.PromoService
}

// NewPromoController creates a new PromoController.
func NewPromoController(promoService services.PromoService) *PromoController {
	return &PromoController{promoService: promoService}
}

// ValidatePromo handles POST /promos/validate.
func (pc *PromoController) ValidatePromo(ctx *gin.Context) {
	var req models.ValidatePromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	resp, svcErr := pc.promoService.ValidatePromo(ctx.Request.Context(), req.Code)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// CreatePromo handles POST /promos.
func (pc *PromoController) CreatePromo(ctx *gin.Context) {
	var req models.CreatePromoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	promo, svcErr := pc.promoService.CreatePromo(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"promo": promo})
}

// ListPromos handles GET /promos.
func (pc *PromoController) ListPromos(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	promos, meta, svcErr := pc.promoService.ListPromos(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"promos": promos, "meta": meta})
}

// DeletePromo handles DELETE /promos/:code.
func (pc *PromoController) DeletePromo(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Promo code is required"})
		return
	}

	if svcErr := pc.promoService.DeletePromo(ctx.Request.Context(), code); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Promo code deleted"})
}
