package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rmachado/storefront/internal/domain"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, price, description, image_url, stock, status, created_by, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	var createdBy sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.ImageURL,
		&p.Stock, &p.Status, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = createdBy.String
	return p, nil
}

// nullIfEmpty maps the zero string to NULL for nullable uuid columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns every product, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	p.DeriveStatus()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, description, image_url, stock, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, p.ID, p.Name, p.Price, p.Description, p.ImageURL, p.Stock, p.Status, nullIfEmpty(p.CreatedBy), p.CreatedAt)
	return err
}

// Update overwrites the mutable fields. Returns nil, nil when the product
// does not exist.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if uuid.Validate(p.ID) != nil {
		return nil, nil
	}
	p.DeriveStatus()

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, description = $4, image_url = $5,
		    stock = $6, status = $7, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Price, p.Description, p.ImageURL, p.Stock, p.Status)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, p.ID)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// MarkOutOfStock flips a product out of stock only if it is still in
// stock, so repeated calls are no-ops. Used by the webhook reconciler.
func (r *ProductRepository) MarkOutOfStock(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = $2, status = $2, updated_at = NOW()
		WHERE id = $1 AND stock = $3
	`, id, domain.StockOut, domain.StockIn)
	return err
}
