package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, account_id, total_amount, payment_status, payment_intent_id,
	ship_name, ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(&o.ID, &o.AccountID, &o.TotalAmount, &o.PaymentStatus, &o.PaymentIntentID,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Line1, &o.ShippingAddress.Line2,
		&o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Place runs the whole order-placement workflow in one transaction: each
// product is re-priced from the catalog and its stock flag flipped with a
// conditional update, the declared total is checked against the computed
// one, and the order plus line-item snapshots are inserted. Any failure
// rolls the entire thing back, so a rejected order never leaves products
// flipped. Two concurrent orders for the same product cannot both commit:
// the second conditional update matches zero rows and fails with a
// conflict.
func (r *OrderRepository) Place(ctx context.Context, accountID string, items []domain.OrderRequestItem,
	addr domain.Address, declaredTotal decimal.Decimal, paymentIntentID string) (*domain.Order, error) {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	total := decimal.Zero
	lineItems := make([]domain.OrderItem, 0, len(items))

	for _, item := range items {
		if uuid.Validate(item.ProductID) != nil {
			return nil, fmt.Errorf("product not found: %s: %w", item.ProductID, domain.ErrNotFound)
		}
		product := &domain.Product{}
		err := tx.QueryRowContext(ctx, `
			SELECT id, name, price, description, image_url, stock, status, created_at, updated_at
			FROM products
			WHERE id = $1
		`, item.ProductID).Scan(&product.ID, &product.Name, &product.Price, &product.Description,
			&product.ImageURL, &product.Stock, &product.Status,
			&product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("product not found: %s: %w", item.ProductID, domain.ErrNotFound)
			}
			return nil, err
		}

		if product.Stock == domain.StockOut {
			return nil, fmt.Errorf("product is out of stock: %s: %w", product.Name, domain.ErrConflict)
		}

		// Single-unit-per-product stock model: any purchase exhausts the
		// item. The stock = in_stock guard makes the flip a compare-and-swap
		// so a concurrent order that got here first wins.
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = $2, status = $2, updated_at = NOW()
			WHERE id = $1 AND stock = $3
		`, product.ID, domain.StockOut, domain.StockIn)
		if err != nil {
			return nil, err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			return nil, fmt.Errorf("product is out of stock: %s: %w", product.Name, domain.ErrConflict)
		}

		product.Stock = domain.StockOut
		product.Status = domain.StockOut

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lineItems = append(lineItems, domain.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Product:   product,
		})
	}

	if !domain.TotalsMatch(declaredTotal, total) {
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
		CreatedAt:       time.Now().UTC(),
	}
	order.UpdatedAt = order.CreatedAt

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, account_id, total_amount, payment_status, payment_intent_id,
			ship_name, ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, order.ID, order.AccountID, order.TotalAmount, order.PaymentStatus, order.PaymentIntentID,
		addr.FullName, addr.Line1, addr.Line2, addr.City, addr.State, addr.PostalCode, addr.Country,
		order.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, li := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), order.ID, li.ProductID, li.Quantity, li.UnitPrice)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}

// GetByID loads an order with its line items, each expanded with the
// current catalog record when the product still exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

// ListByAccount returns an account's orders, newest first, items expanded.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE account_id = $1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	var orderIDs []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// CompleteByIntent reconciles a provider "payment succeeded" event: the
// order referenced by the intent is marked completed and its products
// flipped out of stock. Every statement is conditional, so replaying the
// same event changes nothing. Returns nil, nil when no order holds the
// intent reference.
func (r *OrderRepository) CompleteByIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var orderID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE payment_intent_id = $1
	`, paymentIntentID).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status <> $2
	`, orderID, domain.PaymentCompleted)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET stock = $2, status = $2, updated_at = NOW()
		WHERE stock = $3 AND id IN (SELECT product_id FROM order_items WHERE order_id = $1)
	`, orderID, domain.StockOut, domain.StockIn)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
		       p.id, p.name, p.price, p.description, p.image_url, p.stock, p.status, p.created_by, p.created_at, p.updated_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		var (
			pID, pName, pDesc, pImage, pCreatedBy sql.NullString
			pStock, pStatus                       sql.NullString
			pPrice                                decimal.NullDecimal
			pCreatedAt, pUpdatedAt                sql.NullTime
		)

		err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&pID, &pName, &pPrice, &pDesc, &pImage, &pStock, &pStatus, &pCreatedBy, &pCreatedAt, &pUpdatedAt)
		if err != nil {
			return nil, err
		}

		// product is NULL if it was deleted after the order; the snapshot
		// still stands on its own
		if pID.Valid {
			item.Product = &domain.Product{
				ID:          pID.String,
				Name:        pName.String,
				Price:       pPrice.Decimal,
				Description: pDesc.String,
				ImageURL:    pImage.String,
				Stock:       domain.StockStatus(pStock.String),
				Status:      domain.StockStatus(pStatus.String),
				CreatedBy:   pCreatedBy.String,
				CreatedAt:   pCreatedAt.Time,
				UpdatedAt:   pUpdatedAt.Time,
			}
		}

		items[orderID] = append(items[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
