// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContactRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewContactRepository(pool *pgxpool.Pool, logger *slog.Logger) *ContactRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ContactRepository{
		pool:   pool,
		logger: logger,
	}
}

// UpsertContact stores the address for a project, replacing any previous one.
func (r *ContactRepository) UpsertContact(ctx context.Context, params domain.SaveContactParams) (domain.ContactInfo, error) {
	var info domain.ContactInfo
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contact_info (project_id, gmail_address)
		VALUES ($1, $2)
		ON CONFLICT (project_id) DO UPDATE
		SET gmail_address = EXCLUDED.gmail_address,
		    updated_at = NOW()
		RETURNING project_id, gmail_address, created_at, updated_at
	`,
		params.ProjectID,
		params.GmailAddress,
	).Scan(
		&info.ProjectID,
		&info.GmailAddress,
		&info.CreatedAt,
		&info.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("upsert contact failed",
			"project_id", params.ProjectID,
			"error", err,
		)
		return domain.ContactInfo{}, err
	}

	return info, nil
}
