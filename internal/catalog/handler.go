package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/auth"
	"github.com/rmachado/storefront/internal/domain"
)

// ProductStore is the catalog persistence surface the handlers need.
type ProductStore interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	store  ProductStore
	images *ImageStore
	logger *slog.Logger
	dev    bool
}

func NewHandler(store ProductStore, images *ImageStore, logger *slog.Logger, dev bool) *Handler {
	return &Handler{
		store:  store,
		images: images,
		logger: logger,
		dev:    dev,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context())
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	api.OK(w, h.logger, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	if product == nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("product not found: %w", domain.ErrNotFound))
		return
	}
	api.OK(w, h.logger, http.StatusOK, map[string]any{"product": product})
}

// HandleCreate creates a product from a multipart form. Admin only; the
// image part is required.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid multipart form: %w", domain.ErrInvalidInput))
		return
	}

	product, err := h.productFromForm(r)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	_, fh, err := r.FormFile("image")
	if err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("product image is required: %w", domain.ErrInvalidInput))
		return
	}
	imageURL, err := h.images.Save(fh)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	product.ImageURL = imageURL

	if acct, ok := auth.AccountFrom(r.Context()); ok {
		product.CreatedBy = acct.ID
	}

	if err := domain.ValidateProduct(product); err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	if err := h.store.Create(r.Context(), product); err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	api.OK(w, h.logger, http.StatusCreated, map[string]any{"product": product})
}

// HandleUpdate overwrites a product from a multipart form; a new image is
// optional and the old path is kept when none is sent.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid multipart form: %w", domain.ErrInvalidInput))
		return
	}

	existing, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	if existing == nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("product not found: %w", domain.ErrNotFound))
		return
	}

	product, err := h.productFromForm(r)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	product.ID = existing.ID
	product.CreatedBy = existing.CreatedBy
	product.ImageURL = existing.ImageURL

	if _, fh, err := r.FormFile("image"); err == nil {
		imageURL, err := h.images.Save(fh)
		if err != nil {
			api.Fail(w, h.logger, h.dev, err)
			return
		}
		product.ImageURL = imageURL
	}

	if err := domain.ValidateProduct(product); err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	updated, err := h.store.Update(r.Context(), product)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	if updated == nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("product not found: %w", domain.ErrNotFound))
		return
	}

	h.logger.Info("product updated", "product_id", updated.ID)
	api.OK(w, h.logger, http.StatusOK, map[string]any{"product": updated})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	if !deleted {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("product not found: %w", domain.ErrNotFound))
		return
	}

	h.logger.Info("product deleted", "product_id", r.PathValue("id"))
	api.OK(w, h.logger, http.StatusOK, map[string]any{"message": "product deleted"})
}

func (h *Handler) productFromForm(r *http.Request) (*domain.Product, error) {
	priceStr := strings.TrimSpace(r.FormValue("price"))
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", priceStr, domain.ErrInvalidInput)
	}

	stock := domain.StockStatus(r.FormValue("stock"))
	if stock == "" {
		stock = domain.StockIn
	}

	return &domain.Product{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Price:       price,
		Description: strings.TrimSpace(r.FormValue("description")),
		Stock:       stock,
	}, nil
}
