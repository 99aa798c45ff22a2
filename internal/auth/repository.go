package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rmachado/storefront/internal/domain"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	acct := &domain.Account{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`, email).Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.Role, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return acct, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}
	acct := &domain.Account{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id).Scan(&acct.ID, &acct.Email, &acct.PasswordHash, &acct.Role, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return acct, nil
}

func (r *AccountRepository) Create(ctx context.Context, acct *domain.Account) error {
	acct.ID = uuid.New().String()
	acct.CreatedAt = time.Now().UTC()
	acct.UpdatedAt = acct.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, acct.ID, acct.Email, acct.PasswordHash, acct.Role, acct.CreatedAt)
	return err
}
