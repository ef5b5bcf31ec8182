package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/genails/server/database"
	"github.com/genails/server/models"
	"github.com/genails/server/pkg"
)

type sqliteCreditsRepo struct {
	db database.TxQuerier
}

// NewSQLiteCreditsRepo, constructor.
// Redemption transaction'ında *sql.Tx ile de oluşturulabilir.
func NewSQLiteCreditsRepo(db database.TxQuerier) CreditsRepository {
	return &sqliteCreditsRepo{db: db}
}

func (r *sqliteCreditsRepo) GetBalance(ctx context.Context, userID string) (*models.CreditsBalance, error) {
	query := `SELECT user_id, credits, updated_at
              FROM credits_balances WHERE user_id = ?`

	balance := &models.CreditsBalance{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&balance.UserID, &balance.Credits, &balance.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credits balance: %w", err)
	}

	return balance, nil
}

func (r *sqliteCreditsRepo) InsertBalance(ctx context.Context, userID string, amount int) error {
	query := `INSERT INTO credits_balances (user_id, credits) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, userID, amount); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: credits balance already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert credits balance: %w", err)
	}

	return nil
}

// AddCredits, upsert ile atomik artırma yapar.
// Satır yoksa amount ile açılır — davet göndermeden önce hiç kredisi
// olmayan bir referrer da ödülünü alabilir.
func (r *sqliteCreditsRepo) AddCredits(ctx context.Context, userID string, amount int) error {
	query := `INSERT INTO credits_balances (user_id, credits) VALUES (?, ?)
              ON CONFLICT(user_id) DO UPDATE SET
                  credits = credits + excluded.credits,
                  updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}

	return nil
}

// Spend, koşullu UPDATE ile atomik düşme yapar.
// WHERE credits >= amount koşulu sayesinde bakiye hiçbir zaman negatife
// düşemez; etkilenen satır yoksa bakiye yetersiz (veya satır yok) demektir.
func (r *sqliteCreditsRepo) Spend(ctx context.Context, userID string, amount int) error {
	query := `UPDATE credits_balances
              SET credits = credits - ?, updated_at = CURRENT_TIMESTAMP
              WHERE user_id = ? AND credits >= ?`

	result, err := r.db.ExecContext(ctx, query, amount, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to spend credits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrInsufficientCredits
	}

	return nil
}
