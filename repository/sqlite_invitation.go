// Package repository — InvitationRepository'nin SQLite implementasyonu.
//
// invitations:      code (PK), owner_user_id, created_at
// invitation_uses:  invitation_code (UNIQUE), used_by_user_id,
//                   referrer_user_id, created_at
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

type sqliteInvitationRepo struct {
	db database.TxQuerier
}

// NewSQLiteInvitationRepo, constructor.
// Redemption transaction'ında *sql.Tx ile de oluşturulabilir.
func NewSQLiteInvitationRepo(db database.TxQuerier) InvitationRepository {
	return &sqliteInvitationRepo{db: db}
}

func (r *sqliteInvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `INSERT INTO invitations (code, owner_user_id)
              VALUES (?, ?)
              RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		invitation.Code, invitation.OwnerUserID,
	).Scan(&invitation.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// 16 hex karakterlik rastgele kodda pratik olarak imkansız,
			// yine de anlamlı bir hata döndür
			return fmt.Errorf("%w: invitation code collision", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

func (r *sqliteInvitationRepo) GetByCode(ctx context.Context, code string) (*models.Invitation, error) {
	query := `SELECT code, owner_user_id, created_at
              FROM invitations WHERE code = ?`

	invitation := &models.Invitation{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&invitation.Code, &invitation.OwnerUserID, &invitation.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return invitation, nil
}

// ListByOwner, kullanıcının kodlarını LEFT JOIN ile kullanım bilgisi
// ekleyerek döner. used_by NULL ise kod henüz redeem edilmemiştir.
func (r *sqliteInvitationRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]models.InvitationWithUse, error) {
	query := `SELECT i.code, i.owner_user_id, i.created_at,
                     u.used_by_user_id, u.created_at
              FROM invitations i
              LEFT JOIN invitation_uses u ON u.invitation_code = i.code
              WHERE i.owner_user_id = ?
              ORDER BY i.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.InvitationWithUse
	for rows.Next() {
		var inv models.InvitationWithUse
		if err := rows.Scan(
			&inv.Code, &inv.OwnerUserID, &inv.CreatedAt,
			&inv.UsedBy, &inv.UsedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invitations: %w", err)
	}

	return invitations, nil
}

func (r *sqliteInvitationRepo) GetUse(ctx context.Context, code string) (*models.InvitationUse, error) {
	query := `SELECT invitation_code, used_by_user_id, referrer_user_id, created_at
              FROM invitation_uses WHERE invitation_code = ?`

	use := &models.InvitationUse{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&use.InvitationCode, &use.UsedByUserID, &use.ReferrerUserID, &use.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation use: %w", err)
	}

	return use, nil
}

func (r *sqliteInvitationRepo) RecordUse(ctx context.Context, use *models.InvitationUse) error {
	query := `INSERT INTO invitation_uses (invitation_code, used_by_user_id, referrer_user_id)
              VALUES (?, ?, ?)
              RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		use.InvitationCode, use.UsedByUserID, use.ReferrerUserID,
	).Scan(&use.CreatedAt)
	if err != nil {
		// Eşzamanlı iki redemption'da ikisi de ön kontrolü geçebilir —
		// constraint ihlali alan taraf otoriter cevabı (already used) döner.
		if isUniqueViolation(err) {
			return pkg.ErrCodeAlreadyUsed
		}
		return fmt.Errorf("failed to record invitation use: %w", err)
	}

	return nil
}
