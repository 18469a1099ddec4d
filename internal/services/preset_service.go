package services

import (
	"context"
	"encoding/json"
	"strings"

	"tripconsole/internal/cache"
	"tripconsole/internal/domain"
	"tripconsole/internal/repositories"
	"tripconsole/internal/utils"
)

// PresetStore is satisfied by repositories.PresetRepository.
type PresetStore interface {
	Get(ctx context.Context, userID, picker string) (repositories.FilterPreset, error)
	Upsert(ctx context.Context, p repositories.FilterPreset) error
	Delete(ctx context.Context, userID, picker string) error
}

// PresetService serves saved picker filters, read through the cache.
type PresetService struct {
	Repo      PresetStore
	RequestID string
}

func (s PresetService) Get(ctx context.Context, userID, picker string) (repositories.FilterPreset, error) {
	picker, err := canonicalKind(picker)
	if err != nil {
		return repositories.FilterPreset{}, err
	}
	if raw, ok := cache.GetPreset(ctx, userID, picker); ok {
		var p repositories.FilterPreset
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
	}
	p, err := s.Repo.Get(ctx, userID, picker)
	if err != nil {
		return repositories.FilterPreset{}, err
	}
	if raw, err := json.Marshal(p); err == nil {
		cache.CachePreset(ctx, userID, picker, raw)
	}
	return p, nil
}

func (s PresetService) Save(ctx context.Context, p repositories.FilterPreset) error {
	picker, err := canonicalKind(p.Picker)
	if err != nil {
		return err
	}
	p.Picker = picker
	for _, f := range p.Filters {
		if strings.TrimSpace(f.FilterName) == "" {
			return domain.ValidationError{Field: "FilterName", Msg: "is required"}
		}
	}
	if err := s.Repo.Upsert(ctx, p); err != nil {
		return err
	}
	cache.InvalidatePreset(ctx, p.UserID, picker)
	utils.LogEvent(s.RequestID, "preset", "save", "user="+p.UserID+" picker="+picker)
	return nil
}

func (s PresetService) Delete(ctx context.Context, userID, picker string) error {
	picker, err := canonicalKind(picker)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, picker); err != nil {
		return err
	}
	cache.InvalidatePreset(ctx, userID, picker)
	return nil
}

// Initial returns the preset filters and page size for a new picker
// session, or nothing when the operator has no preset.
func (s PresetService) Initial(ctx context.Context, userID, picker string) ([]domain.Filter, int) {
	p, err := s.Get(ctx, userID, picker)
	if err != nil {
		if !domain.IsNotFound(err) {
			utils.LogEvent(s.RequestID, "preset", "load_failed", err.Error())
		}
		return nil, 0
	}
	return p.Filters, p.PageSize
}
