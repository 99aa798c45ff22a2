// Command seed creates the initial admin account and a few sample
// products. Safe to run repeatedly: existing rows are left untouched.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/auth"
	"github.com/rmachado/storefront/internal/domain"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(context.Background(), logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	_ = godotenv.Load()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		return fmt.Errorf("POSTGRES_URL environment variable is required")
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
	`, uuid.New().String(), adminEmail, hash, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("insert admin account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.Info("admin account already exists", "email", adminEmail)
	} else {
		logger.Info("admin account created", "email", adminEmail)
	}

	samples := []struct {
		name        string
		description string
		price       string
		image       string
	}{
		{"Canvas Tote Bag", "Heavy-duty cotton tote with interior pocket.", "24.00", "/uploads/sample-tote.jpg"},
		{"Ceramic Pour-Over Set", "Dripper and carafe for a slow morning brew.", "58.50", "/uploads/sample-pourover.jpg"},
		{"Linen Throw Blanket", "Stonewashed linen, generously sized.", "89.00", "/uploads/sample-throw.jpg"},
	}

	for _, s := range samples {
		res, err := db.ExecContext(ctx, `
			INSERT INTO products (id, name, description, price, image_url, stock, status)
			SELECT $1, $2, $3, $4, $5, $6, $7
			WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $2)
		`, uuid.New().String(), s.name, s.description, decimal.RequireFromString(s.price), s.image, domain.StockIn, domain.StockIn)
		if err != nil {
			return fmt.Errorf("insert product %q: %w", s.name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			logger.Info("sample product created", "name", s.name)
		}
	}

	logger.Info("seed complete")
	return nil
}
