package services

import (
	"context"
	"io"
	"strings"

	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/envelope"
	"tripconsole/internal/repositories"
	"tripconsole/internal/utils"
)

// Backend is the transactional backend as the services see it.
// *backend.Client satisfies it.
type Backend interface {
	Call(ctx context.Context, path string, req envelope.Request) (envelope.Result, error)
	Upload(ctx context.Context, path, filename string, content io.Reader) (envelope.Result, error)
}

// AuditSink records save attempts. repositories.SaveLogRepository
// satisfies it.
type AuditSink interface {
	Insert(ctx context.Context, l repositories.SaveLog) (int64, error)
}

// invoke sends req and applies the dual success rule before decoding the
// payload into dst (which may be nil).
func invoke(ctx context.Context, b Backend, path string, req envelope.Request, dst any) (envelope.Result, error) {
	res, err := b.Call(ctx, path, req)
	if err != nil {
		return res, err
	}
	if err := res.Err(); err != nil {
		return res, err
	}
	if dst != nil {
		if err := res.Into(dst); err != nil {
			return res, domain.InternalError{Msg: "unexpected backend payload", Err: err}
		}
	}
	return res, nil
}

// TripService loads trip aggregates.
type TripService struct {
	Backend   Backend
	RequestID string
}

type tripCriteria struct {
	TripNo string `json:"TripNo"`
}

func (s TripService) Load(ctx context.Context, rc domain.RequestContext, tripNo string) (models.Trip, error) {
	tripNo = strings.TrimSpace(tripNo)
	if tripNo == "" {
		return models.Trip{}, domain.ValidationError{Field: "tripNo", Msg: "is required"}
	}
	req := envelope.New(envelope.MsgGetTrip, rc).WithCriteria(tripCriteria{TripNo: tripNo})

	var trip models.Trip
	if _, err := invoke(ctx, s.Backend, envelope.PathTrip, req, &trip); err != nil {
		utils.LogEvent(s.RequestID, "trip", "load_failed", "trip_no="+tripNo+" err="+err.Error())
		return models.Trip{}, err
	}
	if trip.Header.TripNo == "" {
		return models.Trip{}, domain.NotFoundError{Resource: "trip " + tripNo}
	}
	utils.LogEvent(s.RequestID, "trip", "load", "trip_no="+tripNo)
	return trip, nil
}
