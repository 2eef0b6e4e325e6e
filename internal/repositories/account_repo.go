package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/formgate/internal/database"
	"github.com/BradenHooton/formgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `user_id, password, user_name, role, account_locked, del_flg, created_at, updated_at`

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var a models.Account
	err := scanner.Scan(
		&a.UserID, &a.Password, &a.UserName, &a.Role,
		&a.Locked, &a.Deleted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

// FindByUserID returns models.ErrNotFound for unknown IDs. Deleted and locked
// accounts are returned; the caller decides how to treat them.
func (r *AccountRepository) FindByUserID(ctx context.Context, userID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE user_id = $1`

	account, err := scanAccountRow(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", userID, err)
	}
	return account, nil
}

// Create inserts a new account. Returns models.ErrConflict for a taken ID.
func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO users (user_id, password, user_name, role, account_locked, del_flg)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		a.UserID, a.Password, a.UserName, a.Role, a.Locked, a.Deleted,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create account %s: %w", a.UserID, database.MapPostgresError(err))
	}
	return nil
}

// UpdatePassword replaces the stored hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password = $2, updated_at = NOW() WHERE user_id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("update password %s: %w", userID, database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password %s: %w", userID, models.ErrNotFound)
	}
	return nil
}
