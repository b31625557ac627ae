package controllers

import (
	"net/http"

	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// ProductController serves the catalog.
type ProductController struct {
	productService services.ProductService
}

func NewProductController(productService services.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// GetProducts handles GET /products?country=&currency=.
func (pc *ProductController) GetProducts(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	resp, svcErr := pc.productService.ListProducts(ctx.Request.Context(), ctx.Query("country"), ctx.Query("currency"), page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}

	view, svcErr := pc.productService.GetProduct(ctx.Request.Context(), id, ctx.Query("country"), ctx.Query("currency"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"product": view})
}

// CreateProduct handles POST /products.
func (pc *ProductController) CreateProduct(ctx *gin.Context) {
	var req models.ProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	product, svcErr := pc.productService.CreateProduct(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /products/:id.
func (pc *ProductController) UpdateProduct(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	var req models.ProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	product, svcErr := pc.productService.UpdateProduct(ctx.Request.Context(), id, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles DELETE /products/:id.
func (pc *ProductController) DeleteProduct(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}

	if svcErr := pc.productService.DeleteProduct(ctx.Request.Context(), id); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
