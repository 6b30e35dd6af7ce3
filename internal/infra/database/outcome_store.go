package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"calldrip/internal/entity"
	"calldrip/internal/usecase"
)

// OutcomeStore commits every mutation of one call-result event as a single
// transaction. The conversation row is locked FOR UPDATE for the duration, so
// concurrent events for the same conversation serialize, and a terminal-state
// guard rejects re-application: a COMPLETED conversation is immutable, which
// is what makes duplicate webhook delivery safe for subscription accounting.
type OutcomeStore struct {
	DB *sql.DB
}

func NewOutcomeStore(db *sql.DB) *OutcomeStore {
	return &OutcomeStore{DB: db}
}

func (s *OutcomeStore) FindConversation(ctx context.Context, conversationID string) (*entity.Conversation, *entity.Prospect, error) {
	query := `
		SELECT c.id, c.prospect_id, c.user_id, c.call_id, c.status, c.result,
		       c.call_start_at, c.call_end_at, c.duration, c.transcript, c.notes,
		       c.created_at, c.updated_at,
		       p.id, p.user_id, p.name, p.phone, p.status,
		       p.last_contacted, p.rescheduled_for, p.rescheduled_count,
		       p.created_at, p.updated_at
		FROM conversations c
		JOIN prospects p ON p.id = c.prospect_id
		WHERE c.id = $1
	`

	var c entity.Conversation
	var p entity.Prospect
	var callStart, callEnd, lastContacted, rescheduledFor sql.NullTime

	err := s.DB.QueryRowContext(ctx, query, conversationID).Scan(
		&c.ID, &c.ProspectID, &c.UserID, &c.CallID, &c.Status, &c.Result,
		&callStart, &callEnd, &c.Duration, &c.Transcript, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
		&p.ID, &p.UserID, &p.Name, &p.Phone, &p.Status,
		&lastContacted, &rescheduledFor, &p.RescheduledCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, usecase.ErrConversationNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load conversation: %w", err)
	}

	if callStart.Valid {
		c.CallStartAt = &callStart.Time
	}
	if callEnd.Valid {
		c.CallEndAt = &callEnd.Time
	}
	if lastContacted.Valid {
		p.LastContacted = &lastContacted.Time
	}
	if rescheduledFor.Valid {
		p.RescheduledFor = &rescheduledFor.Time
	}
	return &c, &p, nil
}

func (s *OutcomeStore) MarkStarted(ctx context.Context, conversationID string, at time.Time) error {
	return s.withLockedConversation(ctx, conversationID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET call_start_at = $1, status = $2, updated_at = NOW()
			WHERE id = $3
		`, at, entity.ConversationInProgress, conversationID)
		return err
	})
}

func (s *OutcomeStore) ApplyCompleted(ctx context.Context, out usecase.CompletedOutcome) error {
	return s.withLockedConversation(ctx, out.ConversationID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET call_end_at = $1, duration = $2, transcript = $3,
			    result = $4, status = $5, notes = $6, updated_at = NOW()
			WHERE id = $7
		`, out.EndAt, out.Duration, out.Transcript,
			out.Result, entity.ConversationCompleted, out.Notes, out.ConversationID)
		if err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}

		if out.RescheduledFor != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE prospects
				SET status = $1, last_contacted = $2,
				    rescheduled_for = $3, rescheduled_count = rescheduled_count + 1,
				    updated_at = NOW()
				WHERE id = $4
			`, out.ProspectStatus, out.LastContacted, *out.RescheduledFor, out.ProspectID)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE prospects
				SET status = $1, last_contacted = $2, updated_at = NOW()
				WHERE id = $3
			`, out.ProspectStatus, out.LastContacted, out.ProspectID)
		}
		if err != nil {
			return fmt.Errorf("update prospect: %w", err)
		}

		// minutes_left is allowed to go negative when usage exceeds the
		// estimate; it is never clamped.
		_, err = tx.ExecContext(ctx, `
			UPDATE subscriptions
			SET minutes_left = minutes_left - $1,
			    daily_used = daily_used + 1,
			    last_used_date = $2,
			    updated_at = NOW()
			WHERE user_id = $3
		`, out.MinutesUsed, out.UsedDate, out.UserID)
		if err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}

		if out.Appointment != nil {
			a := out.Appointment
			_, err = tx.ExecContext(ctx, `
				INSERT INTO appointments (id, prospect_id, scheduled_for, interest_level, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, a.ID, a.ProspectID, a.ScheduledFor, a.InterestLevel, a.Notes, a.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert appointment: %w", err)
			}
		}

		return nil
	})
}

func (s *OutcomeStore) ApplyFailed(ctx context.Context, out usecase.FailedOutcome) error {
	return s.withLockedConversation(ctx, out.ConversationID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET call_end_at = $1, result = $2, status = $3, notes = $4, updated_at = NOW()
			WHERE id = $5
		`, out.EndAt, entity.ResultFailed, entity.ConversationCompleted, out.Notes, out.ConversationID)
		if err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE prospects
			SET status = $1, last_contacted = $2, updated_at = NOW()
			WHERE id = $3
		`, entity.ProspectFailed, out.EndAt, out.ProspectID)
		if err != nil {
			return fmt.Errorf("update prospect: %w", err)
		}
		return nil
	})
}

func (s *OutcomeStore) FindUserContact(ctx context.Context, userID string) (string, string, error) {
	var name, email string
	err := s.DB.QueryRowContext(ctx, `SELECT name, email FROM users WHERE id = $1`, userID).Scan(&name, &email)
	if err != nil {
		return "", "", err
	}
	return name, email, nil
}

// withLockedConversation opens the transaction, takes the conversation's row
// lock, applies the terminal-state guard, runs fn and commits. Any failure
// rolls the whole unit back.
func (s *OutcomeStore) withLockedConversation(ctx context.Context, conversationID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status entity.ConversationStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM conversations WHERE id = $1 FOR UPDATE`,
		conversationID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return usecase.ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("lock conversation: %w", err)
	}
	if status == entity.ConversationCompleted {
		return usecase.ErrAlreadyCompleted
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
