package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-service/cart"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func strPtr(s string) *string { return &s }

// --- Orders ---

type mockOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	creates  int
	forceErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*models.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.forceErr != nil {
		return m.forceErr
	}
	if _, exists := m.orders[o.OrderID]; exists {
		return repository.ErrDuplicateOrderID
	}
	if o.IdempotencyKey != nil {
		for _, existing := range m.orders {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey {
				return repository.ErrDuplicateOrderID
			}
		}
	}
	o.ID = uuid.New()
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepo) put(o *models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.OrderID] = o
}

func (m *mockOrderRepo) FindByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) FindByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) sorted(filter func(*models.Order) bool) []models.Order {
	var out []models.Order
	for _, o := range m.orders {
		if filter(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

func page[T any](items []T, p, limit int) []T {
	start := (p - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (m *mockOrderRepo) FindAll(_ context.Context, p, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(*models.Order) bool { return true })
	return page(all, p, limit), int64(len(all)), nil
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID string, p, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mine := m.sorted(func(o *models.Order) bool { return o.OwnedBy(userID) })
	return page(mine, p, limit), int64(len(mine)), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.OrderID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.OrderStatus = o.OrderStatus
	stored.DeliveredAt = o.DeliveredAt
	return nil
}

func (m *mockOrderRepo) UpdateShippingInfo(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.OrderID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.ShippingInfo = o.ShippingInfo
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.orders, orderID)
	return nil
}

// --- Products ---

type mockProductRepo struct {
	mu       sync.Mutex
	products map[int]*models.Product
	nextID   int
}

func newMockProductRepo(products ...*models.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[int]*models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *mockProductRepo) FindByID(_ context.Context, id int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) FindByIDs(_ context.Context, ids []int) (map[int]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]*models.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockProductRepo) List(_ context.Context, visibleOnly bool, limit, skip int) ([]*models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Product
	for _, p := range m.products {
		if !visibleOnly || p.Visible {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if skip >= len(all) {
		return []*models.Product{}, total, nil
	}
	all = all[skip:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; ok {
		return repository.ErrProductExists
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) NextID(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

func shirt(id int, usd float64) *models.Product {
	return &models.Product{
		ID:        id,
		Name:      "Linen shirt",
		Category:  "shirts",
		Images:    []string{"https://cdn.example.com/p/shirt.jpg"},
		Colors:    []models.Variant{{Value: "red", Available: true}, {Value: "green", Available: false}},
		Sizes:     []models.Variant{{Value: "M", Available: true}},
		Visible:   true,
		Available: true,
		Prices: map[models.CurrencyCode]models.PricePair{
			models.CurrencyUSD: {OldPrice: usd + 5, NewPrice: usd},
			models.CurrencyPKR: {OldPrice: usd * 300, NewPrice: usd * 280},
		},
	}
}

// --- Promo codes ---

type mockPromoRepo struct {
	promos map[string]*models.PromoCode
}

func newMockPromoRepo(promos ...*models.PromoCode) *mockPromoRepo {
	m := &mockPromoRepo{promos: make(map[string]*models.PromoCode)}
	for _, p := range promos {
		m.promos[p.Code] = p
	}
	return m
}

func (m *mockPromoRepo) Create(_ context.Context, p *models.PromoCode) error {
	p.Code = strings.ToUpper(p.Code)
	if _, ok := m.promos[p.Code]; ok {
		return repository.ErrDuplicateCode
	}
	p.ID = uuid.New()
	m.promos[p.Code] = p
	return nil
}

func (m *mockPromoRepo) FindByCode(_ context.Context, code string) (*models.PromoCode, error) {
	p, ok := m.promos[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockPromoRepo) FindAll(_ context.Context, p, limit int) ([]models.PromoCode, int64, error) {
	var all []models.PromoCode
	for _, promo := range m.promos {
		all = append(all, *promo)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, p, limit), int64(len(all)), nil
}

func (m *mockPromoRepo) Delete(_ context.Context, code string) error {
	code = strings.ToUpper(code)
	if _, ok := m.promos[code]; !ok {
		return repository.ErrNotFound
	}
	delete(m.promos, code)
	return nil
}

func activePromo(code string, percent float64) *models.PromoCode {
	return &models.PromoCode{
		ID:              uuid.New(),
		Code:            code,
		DiscountPercent: percent,
		ExpiresAt:       time.Now().Add(24 * time.Hour),
		Active:          true,
	}
}

// --- Feedback ---

type mockFeedbackRepo struct {
	mu   sync.Mutex
	docs map[int]*models.ProductFeedback
}

func newMockFeedbackRepo() *mockFeedbackRepo {
	return &mockFeedbackRepo{docs: make(map[int]*models.ProductFeedback)}
}

func (m *mockFeedbackRepo) AppendEntry(_ context.Context, productID int, e models.FeedbackEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[productID]
	if !ok {
		doc = &models.ProductFeedback{ProductID: productID}
		m.docs[productID] = doc
	}
	for _, existing := range doc.Feedbacks {
		if existing.OrderID == e.OrderID {
			return repository.ErrDuplicateFeedback
		}
	}
	doc.Feedbacks = append(doc.Feedbacks, e)
	return nil
}

func (m *mockFeedbackRepo) FindByProduct(_ context.Context, productID int) (*models.ProductFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *doc
	cp.Feedbacks = append([]models.FeedbackEntry(nil), doc.Feedbacks...)
	return &cp, nil
}

func (m *mockFeedbackRepo) FindByOrder(_ context.Context, orderID string) ([]models.FeedbackView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := []models.FeedbackView{}
	for pid, doc := range m.docs {
		for _, e := range doc.Feedbacks {
			if e.OrderID == orderID {
				views = append(views, models.FeedbackView{ProductID: pid, FeedbackEntry: e})
			}
		}
	}
	return views, nil
}

func (m *mockFeedbackRepo) FindAll(_ context.Context, p, limit int) ([]models.FeedbackView, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.FeedbackView
	for pid, doc := range m.docs {
		for _, e := range doc.Feedbacks {
			all = append(all, models.FeedbackView{ProductID: pid, FeedbackEntry: e})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, p, limit), int64(len(all)), nil
}

func (m *mockFeedbackRepo) UpdateEntry(_ context.Context, productID int, e models.FeedbackEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[productID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range doc.Feedbacks {
		if doc.Feedbacks[i].ID == e.ID {
			doc.Feedbacks[i] = e
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockFeedbackRepo) DeleteEntry(_ context.Context, productID int, feedbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[productID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range doc.Feedbacks {
		if doc.Feedbacks[i].ID == feedbackID {
			doc.Feedbacks = append(doc.Feedbacks[:i], doc.Feedbacks[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Carts ---

type mockCartRepo struct {
	carts map[string]cart.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]cart.Cart)}
}

func (m *mockCartRepo) GetCart(_ context.Context, userID string) (cart.Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		return cart.New(), nil
	}
	cp := cart.New()
	for k, v := range c {
		cp[k] = v
	}
	return cp, nil
}

func (m *mockCartRepo) SaveCart(_ context.Context, userID string, c cart.Cart) error {
	if len(c) == 0 {
		delete(m.carts, userID)
		return nil
	}
	m.carts[userID] = c
	return nil
}

func (m *mockCartRepo) DeleteCart(_ context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

// --- Publishers ---

type mockEvents struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (m *mockEvents) PublishOrderEvent(_ context.Context, e models.OrderEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{counts: make(map[string]int)}
}

func (m *mockMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return m.err
}

func (m *mockMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
