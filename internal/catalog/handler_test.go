package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/domain"
)

type fakeProductStore struct {
	products map[string]*domain.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[string]*domain.Product{}}
}

func (s *fakeProductStore) List(context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	return s.products[id], nil
}

func (s *fakeProductStore) Create(_ context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()
	p.DeriveStatus()
	s.products[p.ID] = p
	return nil
}

func (s *fakeProductStore) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if _, ok := s.products[p.ID]; !ok {
		return nil, nil
	}
	p.DeriveStatus()
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeProductStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

func newCatalogHandler(t *testing.T, store ProductStore) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, NewImageStore(t.TempDir()), logger, true)
}

func productForm(t *testing.T, fields map[string]string, imageName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("fake-image-bytes")); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleGet(t *testing.T) {
	store := newFakeProductStore()
	p := &domain.Product{Name: "Mug", Description: "A mug", Price: decimal.NewFromFloat(9.99), Stock: domain.StockIn}
	_ = store.Create(context.Background(), p)
	h := newCatalogHandler(t, store)

	t.Run("returns product", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+p.ID, nil)
		req.SetPathValue("id", p.ID)
		rec := httptest.NewRecorder()

		h.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()

		h.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleCreate(t *testing.T) {
	t.Run("creates product from multipart form", func(t *testing.T) {
		store := newFakeProductStore()
		h := newCatalogHandler(t, store)

		body, contentType := productForm(t, map[string]string{
			"name":        "Mug",
			"price":       "9.99",
			"description": "A mug",
			"stock":       "in_stock",
		}, "mug.png")

		req := httptest.NewRequest(http.MethodPost, "/api/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		h.HandleCreate(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Product domain.Product `json:"product"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Product.ImageURL == "" {
			t.Error("expected stored image path")
		}
		if resp.Product.Status != domain.StockIn {
			t.Errorf("expected derived status in_stock, got %s", resp.Product.Status)
		}
	})

	t.Run("rejects non-image upload", func(t *testing.T) {
		h := newCatalogHandler(t, newFakeProductStore())

		body, contentType := productForm(t, map[string]string{
			"name": "Mug", "price": "9.99", "description": "A mug",
		}, "payload.exe")

		req := httptest.NewRequest(http.MethodPost, "/api/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		h.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects missing image", func(t *testing.T) {
		h := newCatalogHandler(t, newFakeProductStore())

		body, contentType := productForm(t, map[string]string{
			"name": "Mug", "price": "9.99", "description": "A mug",
		}, "")

		req := httptest.NewRequest(http.MethodPost, "/api/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		h.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects bad price", func(t *testing.T) {
		h := newCatalogHandler(t, newFakeProductStore())

		body, contentType := productForm(t, map[string]string{
			"name": "Mug", "price": "free", "description": "A mug",
		}, "mug.png")

		req := httptest.NewRequest(http.MethodPost, "/api/products", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		h.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleUpdate(t *testing.T) {
	store := newFakeProductStore()
	p := &domain.Product{Name: "Mug", Description: "A mug", Price: decimal.NewFromFloat(9.99), Stock: domain.StockIn, ImageURL: "/uploads/old.png"}
	_ = store.Create(context.Background(), p)
	h := newCatalogHandler(t, store)

	t.Run("keeps image when none uploaded", func(t *testing.T) {
		body, contentType := productForm(t, map[string]string{
			"name": "Big Mug", "price": "12.50", "description": "A bigger mug", "stock": "out_of_stock",
		}, "")

		req := httptest.NewRequest(http.MethodPut, "/api/products/"+p.ID, body)
		req.Header.Set("Content-Type", contentType)
		req.SetPathValue("id", p.ID)
		rec := httptest.NewRecorder()

		h.HandleUpdate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Product domain.Product `json:"product"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Product.ImageURL != "/uploads/old.png" {
			t.Errorf("expected old image kept, got %s", resp.Product.ImageURL)
		}
		if resp.Product.Status != domain.StockOut {
			t.Errorf("expected status re-derived to out_of_stock, got %s", resp.Product.Status)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		body, contentType := productForm(t, map[string]string{
			"name": "Mug", "price": "9.99", "description": "A mug",
		}, "")

		req := httptest.NewRequest(http.MethodPut, "/api/products/nope", body)
		req.Header.Set("Content-Type", contentType)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()

		h.HandleUpdate(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleDelete(t *testing.T) {
	store := newFakeProductStore()
	p := &domain.Product{Name: "Mug", Description: "A mug", Price: decimal.NewFromFloat(9.99), Stock: domain.StockIn}
	_ = store.Create(context.Background(), p)
	h := newCatalogHandler(t, store)

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID, nil)
	req.SetPathValue("id", p.ID)
	rec := httptest.NewRecorder()

	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID, nil)
	req.SetPathValue("id", p.ID)
	rec = httptest.NewRecorder()

	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}
