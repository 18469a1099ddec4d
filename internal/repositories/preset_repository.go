package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripconsole/internal/domain"
)

// FilterPreset is the operator's saved initial filter set for one picker.
type FilterPreset struct {
	UserID    string          `json:"userId"`
	Picker    string          `json:"picker"`
	Filters   []domain.Filter `json:"filters"`
	PageSize  int             `json:"pageSize"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type PresetRepository struct {
	DB *sql.DB
}

func (r PresetRepository) Get(ctx context.Context, userID, picker string) (FilterPreset, error) {
	var (
		raw []byte
		p   = FilterPreset{UserID: userID, Picker: picker}
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT filters, page_size, updated_at FROM filter_presets WHERE user_id=? AND picker=? LIMIT 1`,
		userID, picker,
	).Scan(&raw, &p.PageSize, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return FilterPreset{}, domain.NotFoundError{Resource: "preset", Err: err}
	}
	if err != nil {
		return FilterPreset{}, err
	}
	if err := json.Unmarshal(raw, &p.Filters); err != nil {
		return FilterPreset{}, fmt.Errorf("decode preset filters: %w", err)
	}
	return p, nil
}

// Upsert stores the preset, replacing any earlier one for the same picker.
func (r PresetRepository) Upsert(ctx context.Context, p FilterPreset) error {
	if strings.TrimSpace(p.UserID) == "" || strings.TrimSpace(p.Picker) == "" {
		return domain.ValidationError{Field: "picker", Msg: "user and picker are required"}
	}
	if p.Filters == nil {
		p.Filters = []domain.Filter{}
	}
	raw, err := json.Marshal(p.Filters)
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO filter_presets (user_id, picker, filters, page_size, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE filters=VALUES(filters), page_size=VALUES(page_size), updated_at=VALUES(updated_at)`,
		p.UserID, p.Picker, raw, p.PageSize, p.UpdatedAt,
	)
	return err
}

func (r PresetRepository) Delete(ctx context.Context, userID, picker string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM filter_presets WHERE user_id=? AND picker=?`, userID, picker)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "preset"}
	}
	return nil
}
