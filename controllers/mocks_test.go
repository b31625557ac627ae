package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"storefront-service/cart"
	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock OrderService ---

type mockOrderService struct {
	createFn   func(ctx context.Context, in services.CreateOrderInput) (*models.Order, *apperrors.Error)
	getFn      func(ctx context.Context, actor models.Actor, orderID string) (*models.Order, *apperrors.Error)
	listFn     func(ctx context.Context, page, limit int) (*services.OrderResponse, *apperrors.Error)
	listMineFn func(ctx context.Context, userID string, page, limit int) (*services.OrderResponse, *apperrors.Error)
	statusFn   func(ctx context.Context, orderID, status string) (*models.Order, *apperrors.Error)
	shippingFn func(ctx context.Context, orderID string, patch *models.ShippingInfoPatch) (*models.Order, *apperrors.Error)
	deleteFn   func(ctx context.Context, orderID string) *apperrors.Error
}

func (m *mockOrderService) CreateOrder(ctx context.Context, in services.CreateOrderInput) (*models.Order, *apperrors.Error) {
	return m.createFn(ctx, in)
}
func (m *mockOrderService) GetOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, *apperrors.Error) {
	return m.getFn(ctx, actor, orderID)
}
func (m *mockOrderService) ListOrders(ctx context.Context, page, limit int) (*services.OrderResponse, *apperrors.Error) {
	return m.listFn(ctx, page, limit)
}
func (m *mockOrderService) ListUserOrders(ctx context.Context, userID string, page, limit int) (*services.OrderResponse, *apperrors.Error) {
	return m.listMineFn(ctx, userID, page, limit)
}
func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, *apperrors.Error) {
	return m.statusFn(ctx, orderID, status)
}
func (m *mockOrderService) UpdateShippingInfo(ctx context.Context, orderID string, patch *models.ShippingInfoPatch) (*models.Order, *apperrors.Error) {
	return m.shippingFn(ctx, orderID, patch)
}
func (m *mockOrderService) DeleteOrder(ctx context.Context, orderID string) *apperrors.Error {
	return m.deleteFn(ctx, orderID)
}

// --- Mock PromoService ---

type mockPromoService struct {
	validateFn func(ctx context.Context, code string) (*models.PromoValidation, *apperrors.Error)
	createFn   func(ctx context.Context, req *models.CreatePromoRequest) (*models.PromoCode, *apperrors.Error)
	listFn     func(ctx context.Context, page, limit int) ([]models.PromoCode, services.MetaData, *apperrors.Error)
	deleteFn   func(ctx context.Context, code string) *apperrors.Error
}

func (m *mockPromoService) ValidatePromo(ctx context.Context, code string) (*models.PromoValidation, *apperrors.Error) {
	return m.validateFn(ctx, code)
}
func (m *mockPromoService) CreatePromo(ctx context.Context, req *models.CreatePromoRequest) (*models.PromoCode, *apperrors.Error) {
	return m.createFn(ctx, req)
}
func (m *mockPromoService) ListPromos(ctx context.Context, page, limit int) ([]models.PromoCode, services.MetaData, *apperrors.Error) {
	return m.listFn(ctx, page, limit)
}
func (m *mockPromoService) DeletePromo(ctx context.Context, code string) *apperrors.Error {
	return m.deleteFn(ctx, code)
}

// --- Mock FeedbackService ---

type mockFeedbackService struct {
	submitFn    func(ctx context.Context, req *models.SubmitFeedbackRequest) (*models.FeedbackView, *apperrors.Error)
	replyFn     func(ctx context.Context, actor models.Actor, productID int, feedbackID, reply string) (*models.FeedbackView, *apperrors.Error)
	editFn      func(ctx context.Context, actor models.Actor, productID int, feedbackID string, req *models.EditFeedbackRequest) (*models.FeedbackView, *apperrors.Error)
	deleteFn    func(ctx context.Context, actor models.Actor, productID int, feedbackID string) *apperrors.Error
	byProductFn func(ctx context.Context, productID int) ([]models.FeedbackEntry, *apperrors.Error)
	byOrderFn   func(ctx context.Context, orderID string) ([]models.FeedbackView, *apperrors.Error)
	listFn      func(ctx context.Context, page, limit int) ([]models.FeedbackView, services.MetaData, *apperrors.Error)
}

func (m *mockFeedbackService) SubmitFeedback(ctx context.Context, req *models.SubmitFeedbackRequest) (*models.FeedbackView, *apperrors.Error) {
	return m.submitFn(ctx, req)
}
func (m *mockFeedbackService) ReplyFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID, reply string) (*models.FeedbackView, *apperrors.Error) {
	return m.replyFn(ctx, actor, productID, feedbackID, reply)
}
func (m *mockFeedbackService) EditFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID string, req *models.EditFeedbackRequest) (*models.FeedbackView, *apperrors.Error) {
	return m.editFn(ctx, actor, productID, feedbackID, req)
}
func (m *mockFeedbackService) DeleteFeedback(ctx context.Context, actor models.Actor, productID int, feedbackID string) *apperrors.Error {
	return m.deleteFn(ctx, actor, productID, feedbackID)
}
func (m *mockFeedbackService) ListByProduct(ctx context.Context, productID int) ([]models.FeedbackEntry, *apperrors.Error) {
	return m.byProductFn(ctx, productID)
}
func (m *mockFeedbackService) ListByOrder(ctx context.Context, orderID string) ([]models.FeedbackView, *apperrors.Error) {
	return m.byOrderFn(ctx, orderID)
}
func (m *mockFeedbackService) ListAll(ctx context.Context, page, limit int) ([]models.FeedbackView, services.MetaData, *apperrors.Error) {
	return m.listFn(ctx, page, limit)
}

// --- Mock CartService ---

type mockCartService struct {
	getFn       func(ctx context.Context, userID string) (cart.Cart, *apperrors.Error)
	addFn       func(ctx context.Context, userID string, req *services.AddCartItemRequest) (cart.Cart, *apperrors.Error)
	removeFn    func(ctx context.Context, userID string, productID int, removeAll bool) (cart.Cart, *apperrors.Error)
	clearFn     func(ctx context.Context, userID string) *apperrors.Error
	reconcileFn func(ctx context.Context, userID string, client cart.Cart) (cart.Cart, *apperrors.Error)
	summaryFn   func(ctx context.Context, userID, country, currency, promoCode string) (*services.CartSummary, *apperrors.Error)
}

func (m *mockCartService) GetCart(ctx context.Context, userID string) (cart.Cart, *apperrors.Error) {
	return m.getFn(ctx, userID)
}
func (m *mockCartService) AddItem(ctx context.Context, userID string, req *services.AddCartItemRequest) (cart.Cart, *apperrors.Error) {
	return m.addFn(ctx, userID, req)
}
func (m *mockCartService) RemoveItem(ctx context.Context, userID string, productID int, removeAll bool) (cart.Cart, *apperrors.Error) {
	return m.removeFn(ctx, userID, productID, removeAll)
}
func (m *mockCartService) ClearCart(ctx context.Context, userID string) *apperrors.Error {
	return m.clearFn(ctx, userID)
}
func (m *mockCartService) Reconcile(ctx context.Context, userID string, client cart.Cart) (cart.Cart, *apperrors.Error) {
	return m.reconcileFn(ctx, userID, client)
}
func (m *mockCartService) Summary(ctx context.Context, userID, country, currency, promoCode string) (*services.CartSummary, *apperrors.Error) {
	return m.summaryFn(ctx, userID, country, currency, promoCode)
}

// --- Mock ProductService ---

type mockProductService struct {
	getFn    func(ctx context.Context, id int, country, currency string) (*models.ProductView, *apperrors.Error)
	listFn   func(ctx context.Context, country, currency string, page, limit int) (*services.ProductListResponse, *apperrors.Error)
	createFn func(ctx context.Context, req *models.ProductRequest) (*models.Product, *apperrors.Error)
	updateFn func(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, *apperrors.Error)
	deleteFn func(ctx context.Context, id int) *apperrors.Error
}

func (m *mockProductService) GetProduct(ctx context.Context, id int, country, currency string) (*models.ProductView, *apperrors.Error) {
	return m.getFn(ctx, id, country, currency)
}
func (m *mockProductService) ListProducts(ctx context.Context, country, currency string, page, limit int) (*services.ProductListResponse, *apperrors.Error) {
	return m.listFn(ctx, country, currency, page, limit)
}
func (m *mockProductService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, *apperrors.Error) {
	return m.createFn(ctx, req)
}
func (m *mockProductService) UpdateProduct(ctx context.Context, id int, req *models.ProductRequest) (*models.Product, *apperrors.Error) {
	return m.updateFn(ctx, id, req)
}
func (m *mockProductService) DeleteProduct(ctx context.Context, id int) *apperrors.Error {
	return m.deleteFn(ctx, id)
}

// --- Helpers ---

// withActor stands in for middleware.Authenticate.
func withActor(actor *models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set("userID", actor.UserID)
			c.Set("role", string(actor.Role))
			c.Set("actor", *actor)
		}
		c.Next()
	}
}

func performRequest(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func strPtr(s string) *string { return &s }
