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

type sqliteDesignRepo struct {
	db database.TxQuerier
}

// NewSQLiteDesignRepo, constructor.
func NewSQLiteDesignRepo(db database.TxQuerier) DesignRepository {
	return &sqliteDesignRepo{db: db}
}

func (r *sqliteDesignRepo) Create(ctx context.Context, design *models.Design) error {
	query := `
		INSERT INTO designs (id, user_id, photo_url, prompt, shared)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		design.ID, design.UserID, design.PhotoURL, design.Prompt, design.Shared,
	).Scan(&design.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}

	return nil
}

func (r *sqliteDesignRepo) GetByID(ctx context.Context, id string) (*models.Design, error) {
	query := `
		SELECT id, user_id, photo_url, preview_url, prompt, shared, created_at
		FROM designs WHERE id = ?`

	design := &models.Design{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&design.ID, &design.UserID, &design.PhotoURL, &design.PreviewURL,
		&design.Prompt, &design.Shared, &design.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get design: %w", err)
	}

	return design, nil
}

func (r *sqliteDesignRepo) ListByUser(ctx context.Context, userID string) ([]models.Design, error) {
	query := `
		SELECT id, user_id, photo_url, preview_url, prompt, shared, created_at
		FROM designs WHERE user_id = ?
		ORDER BY created_at DESC`

	return r.scanDesigns(ctx, query, userID)
}

func (r *sqliteDesignRepo) ListShared(ctx context.Context, limit int) ([]models.Design, error) {
	query := `
		SELECT id, user_id, photo_url, preview_url, prompt, shared, created_at
		FROM designs WHERE shared = 1
		ORDER BY created_at DESC
		LIMIT ?`

	return r.scanDesigns(ctx, query, limit)
}

func (r *sqliteDesignRepo) SetPreviewURL(ctx context.Context, id string, previewURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE designs SET preview_url = ? WHERE id = ?`, previewURL, id)
	if err != nil {
		return fmt.Errorf("failed to set preview url: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteDesignRepo) Update(ctx context.Context, design *models.Design) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE designs SET prompt = ?, shared = ? WHERE id = ?`,
		design.Prompt, design.Shared, design.ID)
	if err != nil {
		return fmt.Errorf("failed to update design: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteDesignRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM designs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

// scanDesigns, ortak satır tarama yardımcısı.
func (r *sqliteDesignRepo) scanDesigns(ctx context.Context, query string, args ...any) ([]models.Design, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query designs: %w", err)
	}
	defer rows.Close()

	var designs []models.Design
	for rows.Next() {
		var d models.Design
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.PhotoURL, &d.PreviewURL,
			&d.Prompt, &d.Shared, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan design: %w", err)
		}
		designs = append(designs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate designs: %w", err)
	}

	return designs, nil
}
