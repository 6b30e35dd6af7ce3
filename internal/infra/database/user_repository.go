package database

import (
	"context"
	"database/sql"
	"fmt"

	"calldrip/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userSelect = `
	SELECT
		u.id, u.name, u.email, u.processed_at, u.created_at, u.updated_at,
		adv.timezone, adv.call_window_start, adv.call_window_end,
		scr.initial, scr.follow_up,
		ag.language, ag.voice, ag.first_message,
		s.id, s.status, s.minutes_left, s.daily_used, s.last_used_date,
		p.id, p.name, p.per_day
	FROM users u
	JOIN subscriptions s ON s.user_id = u.id
	JOIN plans p ON p.id = s.plan_id
	LEFT JOIN advanced_settings adv ON adv.user_id = u.id
	LEFT JOIN script_settings scr ON scr.user_id = u.id
	LEFT JOIN agent_settings ag ON ag.user_id = u.id
`

// FindSchedulable pages users with an ACTIVE subscription, longest
// unprocessed first, so every user is eventually revisited.
func (r *UserRepository) FindSchedulable(ctx context.Context, limit int) ([]*entity.User, error) {
	query := userSelect + `
	WHERE s.status = $1
	ORDER BY u.processed_at ASC
	LIMIT $2
	`

	rows, err := r.DB.QueryContext(ctx, query, entity.SubscriptionActive, limit)
	if err != nil {
		return nil, fmt.Errorf("query schedulable users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindByID loads one user with subscription and settings. A missing user
// returns (nil, nil).
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.DB.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// TouchProcessedAt advances the fairness rotation timestamp.
func (r *UserRepository) TouchProcessedAt(ctx context.Context, userID string) error {
	query := `UPDATE users SET processed_at = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	var sub entity.Subscription
	var tz, winStart, winEnd sql.NullString
	var initial, followUp sql.NullString
	var language, voice, firstMessage sql.NullString
	var lastUsed sql.NullTime

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.ProcessedAt, &u.CreatedAt, &u.UpdatedAt,
		&tz, &winStart, &winEnd,
		&initial, &followUp,
		&language, &voice, &firstMessage,
		&sub.ID, &sub.Status, &sub.MinutesLeft, &sub.DailyUsed, &lastUsed,
		&sub.Plan.ID, &sub.Plan.Name, &sub.Plan.PerDay,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if tz.Valid {
		u.Setting.Advanced = &entity.AdvancedSetting{
			Timezone:        tz.String,
			CallWindowStart: winStart.String,
			CallWindowEnd:   winEnd.String,
		}
	}
	if initial.Valid || followUp.Valid {
		u.Setting.Script = &entity.ScriptSetting{
			Initial:  initial.String,
			FollowUp: followUp.String,
		}
	}
	if language.Valid || voice.Valid || firstMessage.Valid {
		u.Setting.Agent = &entity.AgentSetting{
			Language:     language.String,
			Voice:        voice.String,
			FirstMessage: firstMessage.String,
		}
	}

	sub.UserID = u.ID
	if lastUsed.Valid {
		sub.LastUsedDate = lastUsed.Time
	}
	u.Subscription = &sub
	return &u, nil
}
