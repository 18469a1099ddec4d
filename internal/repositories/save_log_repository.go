package repositories

import (
	"context"
	"database/sql"
	"time"

	"tripconsole/internal/db"
)

// SaveLog records one save attempt against the backend.
type SaveLog struct {
	ID          int64     `json:"id"`
	DrawerID    string    `json:"drawerId"`
	TripNo      string    `json:"tripNo"`
	Plan        string    `json:"plan"`
	MessageType string    `json:"messageType"`
	MessageID   string    `json:"messageId"`
	UserID      string    `json:"userId"`
	Outcome     string    `json:"outcome"`
	ErrorCode   string    `json:"errorCode,omitempty"`
	Message     string    `json:"message,omitempty"`
	DurationMS  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SaveLogRepository struct {
	DB *sql.DB
}

func (r SaveLogRepository) Insert(ctx context.Context, l SaveLog) (int64, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO trip_save_log
			(drawer_id, trip_no, plan, message_type, message_id, user_id, outcome, error_code, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.DrawerID, l.TripNo, l.Plan, l.MessageType, l.MessageID, l.UserID, l.Outcome,
		db.NullIfEmpty(l.ErrorCode), db.NullIfEmpty(l.Message), l.DurationMS, l.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByTrip returns the newest attempts first.
func (r SaveLogRepository) ListByTrip(ctx context.Context, tripNo string, limit int) ([]SaveLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, drawer_id, trip_no, plan, message_type, message_id, user_id, outcome,
		       COALESCE(error_code, ''), COALESCE(message, ''), duration_ms, created_at
		FROM trip_save_log
		WHERE trip_no=?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, tripNo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SaveLog{}
	for rows.Next() {
		var l SaveLog
		if err := rows.Scan(&l.ID, &l.DrawerID, &l.TripNo, &l.Plan, &l.MessageType, &l.MessageID, &l.UserID,
			&l.Outcome, &l.ErrorCode, &l.Message, &l.DurationMS, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
