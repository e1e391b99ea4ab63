// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMessageRepository(pool *pgxpool.Pool, logger *slog.Logger) *MessageRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &MessageRepository{
		pool:   pool,
		logger: logger,
	}
}

// CreateUserMessage stores a user message in PENDING state for the worker.
func (r *MessageRepository) CreateUserMessage(ctx context.Context, params domain.CreateMessageParams) (domain.MessageRecord, error) {
	projectID := strings.TrimSpace(params.ProjectID)
	if projectID == "" {
		return domain.MessageRecord{}, domain.ErrMissingProjectID
	}
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return domain.MessageRecord{}, domain.ErrEmptyMessage
	}

	rec := domain.MessageRecord{
		ID:        uuid.New(),
		ProjectID: projectID,
		Role:      domain.RoleUser,
		Type:      domain.MessageResult,
		Status:    domain.MessagePending,
		Content:   content,
	}

	if err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, project_id, role, type, status, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`,
		rec.ID,
		rec.ProjectID,
		rec.Role,
		rec.Type,
		rec.Status,
		rec.Content,
	).Scan(&rec.CreatedAt); err != nil {
		r.logger.Error("insert user message failed",
			"project_id", projectID,
			"error", err,
		)
		return domain.MessageRecord{}, err
	}

	return rec, nil
}

func (r *MessageRepository) ListMessages(ctx context.Context, projectID string) ([]domain.MessageRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, role, type, status, content, created_at
		FROM messages
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		r.logger.Error("list messages query failed", "project_id", projectID, "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MessageRecord, 0, 16)
	for rows.Next() {
		var rec domain.MessageRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ProjectID,
			&rec.Role,
			&rec.Type,
			&rec.Status,
			&rec.Content,
			&rec.CreatedAt,
		); err != nil {
			r.logger.Error("scan message row failed", "project_id", projectID, "error", err)
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("messages rows iteration failed", "project_id", projectID, "error", err)
		return nil, err
	}

	return out, nil
}

// ClaimPending claims the oldest user message awaiting a reply. RUNNING
// messages claimed before reclaimBefore are treated as abandoned and claimed
// again. Returns pgx.ErrNoRows when there is nothing to do.
func (r *MessageRepository) ClaimPending(ctx context.Context, reclaimBefore time.Time) (domain.PendingMessage, error) {
	var msg domain.PendingMessage
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			SELECT id, project_id, content, attempts
			FROM messages
			WHERE role = $1
			  AND (
				status = $2 OR
				(status = $3 AND claimed_at < $4)
			  )
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`,
			domain.RoleUser,
			domain.MessagePending,
			domain.MessageRunning,
			reclaimBefore,
		).Scan(&msg.ID, &msg.ProjectID, &msg.Content, &msg.Attempts); err != nil {
			return err
		}

		msg.Attempts++
		_, err := tx.Exec(ctx, `
			UPDATE messages
			SET status = $2,
			    attempts = $3,
			    claimed_at = NOW(),
			    updated_at = NOW()
			WHERE id = $1
		`, msg.ID, domain.MessageRunning, msg.Attempts)
		return err
	})
	if err != nil {
		return domain.PendingMessage{}, err
	}

	return msg, nil
}

// Complete stores the assistant reply and moves the user message to status
// in one transaction.
func (r *MessageRepository) Complete(
	ctx context.Context,
	msg domain.PendingMessage,
	reply string,
	replyType domain.MessageType,
	status domain.MessageStatus,
) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO messages (id, project_id, role, type, status, content)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			uuid.New(),
			msg.ProjectID,
			domain.RoleAssistant,
			replyType,
			domain.MessageDone,
			reply,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			UPDATE messages
			SET status = $2,
			    claimed_at = NULL,
			    updated_at = NOW()
			WHERE id = $1
		`, msg.ID, status)
		return err
	})
	if err != nil {
		r.logger.Error("complete message failed",
			"message_id", msg.ID,
			"project_id", msg.ProjectID,
			"error", err,
		)
	}
	return err
}

// Release puts a claimed message back to PENDING for another attempt.
func (r *MessageRepository) Release(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = $2,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, domain.MessagePending, domain.MessageRunning)
	if err != nil {
		r.logger.Error("release message failed", "message_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
