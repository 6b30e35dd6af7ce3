package database

import (
	"context"
	"database/sql"
	"fmt"

	"calldrip/internal/entity"
)

type ConversationRepository struct {
	DB *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{DB: db}
}

func (r *ConversationRepository) Create(ctx context.Context, c *entity.Conversation) error {
	query := `
		INSERT INTO conversations (
			id, prospect_id, user_id, call_id, status, result,
			call_start_at, call_end_at, duration, transcript, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.ProspectID, c.UserID, c.CallID, c.Status, c.Result,
		c.CallStartAt, c.CallEndAt, c.Duration, c.Transcript, c.Notes,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// SetCallID records the provider-side call identifier once the call is placed.
func (r *ConversationRepository) SetCallID(ctx context.Context, conversationID, callID string) error {
	query := `UPDATE conversations SET call_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, callID, conversationID)
	return err
}
