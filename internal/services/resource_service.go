package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"tripconsole/internal/cache"
	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/envelope"
	"tripconsole/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// ResourceService runs the picker list calls. Pages are cached per
// operator unit, filters and page.
type ResourceService struct {
	Backend   Backend
	RequestID string
}

// listPayload is the paged shape of a list response. Some list calls
// answer with a bare array instead.
type listPayload struct {
	Records    json.RawMessage    `json:"Records"`
	Data       json.RawMessage    `json:"Data"`
	Pagination *domain.Pagination `json:"Pagination"`
}

func normalizePage(p domain.Pagination) domain.Pagination {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	p.TotalRows = 0
	return p
}

// ListRaw returns the rows of one page as raw JSON plus the page totals.
func (s ResourceService) ListRaw(ctx context.Context, rc domain.RequestContext, messageType string, filters []domain.Filter, page domain.Pagination) (json.RawMessage, domain.Pagination, error) {
	page = normalizePage(page)
	filterJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, page, domain.InternalError{Msg: "encode filters", Err: err}
	}
	fp := cache.Fingerprint(strconv.Itoa(rc.OUID), messageType, string(filterJSON),
		strconv.Itoa(page.PageNumber), strconv.Itoa(page.PageSize))

	data, hit := cache.GetPickerPage(ctx, messageType, fp)
	if !hit {
		req := envelope.New(messageType, rc).WithFilters(filters).WithPage(page)
		res, err := invoke(ctx, s.Backend, envelope.PathResource, req, nil)
		if err != nil {
			utils.LogEvent(s.RequestID, "resource", "list_failed", fmt.Sprintf("type=%s err=%v", messageType, err))
			return nil, page, err
		}
		data = res.Data
		cache.CachePickerPage(ctx, messageType, fp, data)
	}
	rows, pg, err := splitListPayload(data, page)
	if err != nil {
		return nil, page, domain.InternalError{Msg: "unexpected list payload", Err: err}
	}
	return rows, pg, nil
}

// Calendar fetches the equipment calendar rows for the current filters.
func (s ResourceService) Calendar(ctx context.Context, rc domain.RequestContext, filters []domain.Filter) ([]models.CalendarItem, error) {
	req := envelope.New(envelope.MsgGetEquipmentCalendar, rc).WithFilters(filters)
	res, err := invoke(ctx, s.Backend, envelope.PathResource, req, nil)
	if err != nil {
		return nil, err
	}
	rows, _, err := splitListPayload(res.Data, domain.Pagination{})
	if err != nil {
		return nil, domain.InternalError{Msg: "unexpected calendar payload", Err: err}
	}
	items := []models.CalendarItem{}
	if len(rows) > 0 {
		if err := json.Unmarshal(rows, &items); err != nil {
			return nil, domain.InternalError{Msg: "unexpected calendar payload", Err: err}
		}
	}
	return items, nil
}

func splitListPayload(data json.RawMessage, page domain.Pagination) (json.RawMessage, domain.Pagination, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return json.RawMessage("[]"), page, nil
	}
	if data[0] == '[' {
		var n []json.RawMessage
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, page, err
		}
		page.TotalRows = len(n)
		return data, page, nil
	}
	var lp listPayload
	if err := json.Unmarshal(data, &lp); err != nil {
		return nil, page, err
	}
	rows := lp.Records
	if len(rows) == 0 {
		rows = lp.Data
	}
	if len(rows) == 0 || bytes.Equal(rows, []byte("null")) {
		rows = json.RawMessage("[]")
	}
	if lp.Pagination != nil {
		pg := *lp.Pagination
		if pg.PageNumber == 0 {
			pg.PageNumber = page.PageNumber
		}
		if pg.PageSize == 0 {
			pg.PageSize = page.PageSize
		}
		page = pg
	}
	return rows, page, nil
}
