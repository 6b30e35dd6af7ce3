package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"calldrip/internal/entity"
)

type ProspectRepository struct {
	DB *sql.DB
}

func NewProspectRepository(db *sql.DB) *ProspectRepository {
	return &ProspectRepository{DB: db}
}

// FindCallCandidates returns prospects due for a call: fresh or stale ones
// not contacted within 24 hours (or never), plus rescheduled ones whose
// callback time falls within the next 30 minutes. Ordered oldest-updated
// first so the prioritizer's stable sort keeps that order on ties.
func (r *ProspectRepository) FindCallCandidates(ctx context.Context, userID string, now time.Time, limit int) ([]*entity.Prospect, error) {
	query := `
		SELECT id, user_id, name, phone, status,
		       last_contacted, rescheduled_for, rescheduled_count,
		       created_at, updated_at
		FROM prospects
		WHERE user_id = $1
		  AND (
		        (status IN ('INITIAL', 'NOTRESPONDED', 'FAILED')
		         AND (last_contacted IS NULL OR last_contacted < $2))
		     OR (status = 'RESCHEDULED'
		         AND rescheduled_for IS NOT NULL AND rescheduled_for <= $3)
		  )
		ORDER BY updated_at ASC
		LIMIT $4
	`

	rows, err := r.DB.QueryContext(ctx, query,
		userID,
		now.Add(-24*time.Hour),
		now.Add(30*time.Minute),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query call candidates: %w", err)
	}
	defer rows.Close()

	var prospects []*entity.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}

// FindByID returns (nil, nil) for a missing prospect.
func (r *ProspectRepository) FindByID(ctx context.Context, id string) (*entity.Prospect, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, name, phone, status,
		       last_contacted, rescheduled_for, rescheduled_count,
		       created_at, updated_at
		FROM prospects
		WHERE id = $1
	`, id)

	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanProspect(row rowScanner) (*entity.Prospect, error) {
	var p entity.Prospect
	var lastContacted, rescheduledFor sql.NullTime

	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Phone, &p.Status,
		&lastContacted, &rescheduledFor, &p.RescheduledCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan prospect: %w", err)
	}

	if lastContacted.Valid {
		p.LastContacted = &lastContacted.Time
	}
	if rescheduledFor.Valid {
		p.RescheduledFor = &rescheduledFor.Time
	}
	return &p, nil
}
