package controllers_test

import (
	"context"
	"net/http"
	"testing"

	apperrors "storefront-service/common/errors"
	"storefront-service/controllers"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupProductRouter(svc services.ProductService) *gin.Engine {
	r := gin.New()
	pc := controllers.NewProductController(svc)
	r.GET("/products", pc.GetProducts)
	r.GET("/products/:id", pc.GetProduct)
	r.POST("/products", pc.CreateProduct)
	r.PUT("/products/:id", pc.UpdateProduct)
	r.DELETE("/products/:id", pc.DeleteProduct)
	return r
}

func TestController_GetProduct(t *testing.T) {
	svc := &mockProductService{
		getFn: func(_ context.Context, id int, country, _ string) (*models.ProductView, *apperrors.Error) {
			if id != 7 {
				return nil, apperrors.NotFound("product not found")
			}
			assert.Equal(t, "PK", country)
			return &models.ProductView{ID: 7, Currency: models.CurrencyPKR, NewPrice: 7000}, nil
		},
	}
	r := setupProductRouter(svc)

	w := performRequest(r, http.MethodGet, "/products/7?country=PK", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	product := decode(w)["product"].(map[string]interface{})
	assert.Equal(t, "PKR", product["currency"])

	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodGet, "/products/8?country=PK", nil).Code)
	assert.Equal(t, http.StatusBadRequest, performRequest(r, http.MethodGet, "/products/zero", nil).Code)
}

func TestController_ListProducts(t *testing.T) {
	svc := &mockProductService{
		listFn: func(_ context.Context, country, currency string, page, limit int) (*services.ProductListResponse, *apperrors.Error) {
			assert.Equal(t, "EUR", currency)
			return &services.ProductListResponse{Products: []models.ProductView{{ID: 1}}, Meta: services.MetaData{Page: page, Limit: limit, Total: 1}}, nil
		},
	}
	w := performRequest(setupProductRouter(svc), http.MethodGet, "/products?currency=EUR", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(w)["products"], 1)
}

func TestController_ProductAdmin(t *testing.T) {
	svc := &mockProductService{
		createFn: func(_ context.Context, req *models.ProductRequest) (*models.Product, *apperrors.Error) {
			if _, ok := req.Prices[models.CurrencyUSD]; !ok {
				return nil, apperrors.Validation("a USD price is required")
			}
			return &models.Product{ID: 12, Name: req.Name}, nil
		},
		updateFn: func(_ context.Context, id int, req *models.ProductRequest) (*models.Product, *apperrors.Error) {
			return &models.Product{ID: id, Name: req.Name}, nil
		},
		deleteFn: func(_ context.Context, id int) *apperrors.Error {
			return apperrors.Internal("Failed to delete product images", nil)
		},
	}
	r := setupProductRouter(svc)

	body := gin.H{"name": "Kurta", "category": "kurtas", "prices": gin.H{"USD": gin.H{"old_price": 40, "new_price": 32}}}
	w := performRequest(r, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	noUSD := gin.H{"name": "Kurta", "category": "kurtas", "prices": gin.H{"EUR": gin.H{"new_price": 30}}}
	assert.Equal(t, http.StatusBadRequest, performRequest(r, http.MethodPost, "/products", noUSD).Code)

	badImage := gin.H{"name": "Kurta", "category": "kurtas", "images": []string{"not a url"}, "prices": gin.H{"USD": gin.H{"new_price": 1}}}
	assert.Equal(t, http.StatusBadRequest, performRequest(r, http.MethodPost, "/products", badImage).Code)

	w = performRequest(r, http.MethodPut, "/products/12", body)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusInternalServerError, performRequest(r, http.MethodDelete, "/products/12", nil).Code)
}
