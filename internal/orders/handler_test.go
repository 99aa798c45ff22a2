package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/auth"
	"github.com/rmachado/storefront/internal/domain"
)

// fakeOrderStore mirrors the repository's workflow semantics in memory:
// per-product stock flip with all-or-nothing rollback and total check.
type fakeOrderStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	orders   map[string]*domain.Order
}

func newFakeOrderStore(products ...*domain.Product) *fakeOrderStore {
	s := &fakeOrderStore{
		products: map[string]*domain.Product{},
		orders:   map[string]*domain.Order{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeOrderStore) Place(_ context.Context, accountID string, items []domain.OrderRequestItem,
	addr domain.Address, declaredTotal decimal.Decimal, paymentIntentID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	var flipped []*domain.Product
	rollback := func() {
		for _, p := range flipped {
			p.Stock = domain.StockIn
			p.DeriveStatus()
		}
	}

	lineItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		p, ok := s.products[item.ProductID]
		if !ok {
			rollback()
			return nil, fmt.Errorf("product not found: %s: %w", item.ProductID, domain.ErrNotFound)
		}
		if p.Stock == domain.StockOut {
			rollback()
			return nil, fmt.Errorf("product is out of stock: %s: %w", p.Name, domain.ErrConflict)
		}
		p.Stock = domain.StockOut
		p.DeriveStatus()
		flipped = append(flipped, p)

		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lineItems = append(lineItems, domain.OrderItem{
			ProductID: p.ID, Quantity: item.Quantity, UnitPrice: p.Price, Product: p,
		})
	}

	if !domain.TotalsMatch(declaredTotal, total) {
		rollback()
		return nil, fmt.Errorf("total amount mismatch: %w", domain.ErrConflict)
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		Items:           lineItems,
		TotalAmount:     total,
		PaymentStatus:   domain.PaymentCompleted,
		PaymentIntentID: paymentIntentID,
		ShippingAddress: addr,
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id], nil
}

func (s *fakeOrderStore) ListByAccount(_ context.Context, accountID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Order{}
	for _, o := range s.orders {
		if o.AccountID == accountID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func testProduct(name, price string) *domain.Product {
	p, _ := decimal.NewFromString(price)
	return &domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Price:       p,
		Description: name,
		Stock:       domain.StockIn,
		Status:      domain.StockIn,
	}
}

func testAccount() *domain.Account {
	return &domain.Account{ID: uuid.New().String(), Email: "buyer@example.com", Role: domain.RoleUser}
}

func newOrderHandler(store OrderStore) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, nil, logger, true)
}

func postOrder(t *testing.T, h *Handler, acct *domain.Account, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if acct != nil {
		req = req.WithContext(auth.WithAccount(req.Context(), acct))
	}
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	return rec
}

func TestHandleCreate(t *testing.T) {
	t.Run("places order and flips stock", func(t *testing.T) {
		product := testProduct("Mug", "25.00")
		store := newFakeOrderStore(product)
		h := newOrderHandler(store)

		body := fmt.Sprintf(`{
			"products":[{"productId":%q,"quantity":2}],
			"shippingAddress":{"name":"A B","line1":"1 Main St","city":"Springfield","state":"IL","postalCode":"62701","country":"US"},
			"totalAmount":50.00,
			"paymentIntentId":"pi_123"
		}`, product.ID)

		rec := postOrder(t, h, testAccount(), body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Success bool         `json:"success"`
			Order   domain.Order `json:"order"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.Success {
			t.Error("expected success envelope")
		}
		if !resp.Order.TotalAmount.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected total 50, got %s", resp.Order.TotalAmount)
		}
		if resp.Order.PaymentStatus != domain.PaymentCompleted {
			t.Errorf("expected completed, got %s", resp.Order.PaymentStatus)
		}
		if product.Stock != domain.StockOut {
			t.Error("expected product flipped out of stock")
		}
		if len(resp.Order.Items) != 1 || resp.Order.Items[0].Product == nil {
			t.Error("expected line items expanded with product detail")
		}
	})

	t.Run("invalid structures fail with 400 before any mutation", func(t *testing.T) {
		product := testProduct("Mug", "25.00")
		store := newFakeOrderStore(product)
		h := newOrderHandler(store)

		bodies := []string{
			`{"totalAmount":50.00}`,
			`{"products":[],"totalAmount":0}`,
			fmt.Sprintf(`{"products":[{"productId":%q,"quantity":0}],"totalAmount":0}`, product.ID),
			fmt.Sprintf(`{"products":[{"productId":%q,"quantity":-1}],"totalAmount":0}`, product.ID),
			`{"products":[{"quantity":1}],"totalAmount":0}`,
			`garbage`,
		}
		for _, body := range bodies {
			rec := postOrder(t, h, testAccount(), body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: expected 400, got %d", body, rec.Code)
			}
		}
		if product.Stock != domain.StockIn {
			t.Error("invalid requests must not mutate stock")
		}
		if len(store.orders) != 0 {
			t.Error("invalid requests must not create orders")
		}
	})

	t.Run("unknown product fails with 404 and no order", func(t *testing.T) {
		store := newFakeOrderStore()
		h := newOrderHandler(store)

		rec := postOrder(t, h, testAccount(), `{"products":[{"productId":"missing","quantity":1}],"totalAmount":1}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if len(store.orders) != 0 {
			t.Error("no order must be created")
		}
	})

	t.Run("out-of-stock product fails with 409 and no order", func(t *testing.T) {
		product := testProduct("Mug", "25.00")
		product.Stock = domain.StockOut
		product.DeriveStatus()
		store := newFakeOrderStore(product)
		h := newOrderHandler(store)

		body := fmt.Sprintf(`{"products":[{"productId":%q,"quantity":1}],"totalAmount":25.00}`, product.ID)
		rec := postOrder(t, h, testAccount(), body)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(store.orders) != 0 {
			t.Error("no order must be created")
		}
	})

	t.Run("total mismatch fails with 409 and rolls back stock", func(t *testing.T) {
		product := testProduct("Mug", "25.00")
		store := newFakeOrderStore(product)
		h := newOrderHandler(store)

		body := fmt.Sprintf(`{"products":[{"productId":%q,"quantity":2}],"totalAmount":45.00}`, product.ID)
		rec := postOrder(t, h, testAccount(), body)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		if product.Stock != domain.StockIn {
			t.Error("failed order must leave stock untouched")
		}
		if len(store.orders) != 0 {
			t.Error("no order must be created")
		}
	})

	t.Run("tolerates a 0.01 total gap", func(t *testing.T) {
		product := testProduct("Mug", "25.00")
		store := newFakeOrderStore(product)
		h := newOrderHandler(store)

		body := fmt.Sprintf(`{"products":[{"productId":%q,"quantity":2}],"totalAmount":50.01}`, product.ID)
		rec := postOrder(t, h, testAccount(), body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unauthenticated request fails with 401", func(t *testing.T) {
		h := newOrderHandler(newFakeOrderStore())

		rec := postOrder(t, h, nil, `{"products":[{"productId":"p","quantity":1}],"totalAmount":1}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestHandleGet(t *testing.T) {
	product := testProduct("Mug", "25.00")
	store := newFakeOrderStore(product)
	h := newOrderHandler(store)

	owner := testAccount()
	order, err := store.Place(context.Background(), owner.ID,
		[]domain.OrderRequestItem{{ProductID: product.ID, Quantity: 1}},
		domain.Address{}, decimal.NewFromInt(25), "pi_1")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	get := func(acct *domain.Account, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil)
		req.SetPathValue("id", id)
		req = req.WithContext(auth.WithAccount(req.Context(), acct))
		rec := httptest.NewRecorder()
		h.HandleGet(rec, req)
		return rec
	}

	t.Run("owner can fetch", func(t *testing.T) {
		rec := get(owner, order.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("another account gets 403", func(t *testing.T) {
		rec := get(testAccount(), order.ID)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("unknown order gets 404", func(t *testing.T) {
		rec := get(owner, "missing")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleMyOrders(t *testing.T) {
	p1 := testProduct("Mug", "10.00")
	p2 := testProduct("Hat", "15.00")
	store := newFakeOrderStore(p1, p2)
	h := newOrderHandler(store)

	owner := testAccount()
	other := testAccount()

	if _, err := store.Place(context.Background(), owner.ID,
		[]domain.OrderRequestItem{{ProductID: p1.ID, Quantity: 1}},
		domain.Address{}, decimal.NewFromInt(10), "pi_a"); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if _, err := store.Place(context.Background(), other.ID,
		[]domain.OrderRequestItem{{ProductID: p2.ID, Quantity: 1}},
		domain.Address{}, decimal.NewFromInt(15), "pi_b"); err != nil {
		t.Fatalf("place order: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)
	req = req.WithContext(auth.WithAccount(req.Context(), owner))
	rec := httptest.NewRecorder()
	h.HandleMyOrders(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Orders) != 1 {
		t.Fatalf("expected only the owner's order, got %d", len(resp.Orders))
	}
	if resp.Orders[0].AccountID != owner.ID {
		t.Error("listed order belongs to another account")
	}
}
