package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"tripconsole/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPresetRepository_GetDecodesFilters(t *testing.T) {
	db, mock := newMock(t)
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT filters, page_size, updated_at FROM filter_presets").
		WithArgs("ops1", "Equipment").
		WillReturnRows(sqlmock.NewRows([]string{"filters", "page_size", "updated_at"}).
			AddRow([]byte(`[{"FilterName":"OwnerID","FilterValue":"OWN1"}]`), 25, updated))

	p, err := PresetRepository{DB: db}.Get(context.Background(), "ops1", "Equipment")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(p.Filters) != 1 || p.Filters[0].FilterValue != "OWN1" || p.PageSize != 25 {
		t.Fatalf("unexpected preset %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPresetRepository_GetMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT filters").WillReturnRows(sqlmock.NewRows([]string{"filters", "page_size", "updated_at"}))

	_, err := PresetRepository{DB: db}.Get(context.Background(), "ops1", "Driver")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPresetRepository_UpsertAndDelete(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO filter_presets").
		WithArgs("ops1", "Handler", []byte(`[]`), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM filter_presets").
		WithArgs("ops1", "Handler").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := PresetRepository{DB: db}
	if err := repo.Upsert(context.Background(), FilterPreset{UserID: "ops1", Picker: "Handler"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Delete(context.Background(), "ops1", "Handler"); !domain.IsNotFound(err) {
		t.Fatalf("deleting nothing should be not found, got %v", err)
	}
	if err := repo.Upsert(context.Background(), FilterPreset{Picker: "Handler"}); !domain.IsValidation(err) {
		t.Fatalf("missing user should be rejected, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveLogRepository_InsertAndList(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO trip_save_log").
		WithArgs("d1", "TRIP1", "trip", "TripLog SaveTrip", "m1", "ops1", "failed", "E42", "Leg locked", int64(120), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM trip_save_log").
		WithArgs("TRIP1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "drawer_id", "trip_no", "plan", "message_type", "message_id", "user_id", "outcome", "error_code", "message", "duration_ms", "created_at"}).
			AddRow(7, "d1", "TRIP1", "trip", "TripLog SaveTrip", "m1", "ops1", "failed", "E42", "Leg locked", 120, at))

	repo := SaveLogRepository{DB: db}
	id, err := repo.Insert(context.Background(), SaveLog{
		DrawerID: "d1", TripNo: "TRIP1", Plan: "trip", MessageType: "TripLog SaveTrip", MessageID: "m1",
		UserID: "ops1", Outcome: "failed", ErrorCode: "E42", Message: "Leg locked", DurationMS: 120,
	})
	if err != nil || id != 7 {
		t.Fatalf("insert: id=%d err=%v", id, err)
	}
	logs, err := repo.ListByTrip(context.Background(), "TRIP1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 || logs[0].Outcome != "failed" || !logs[0].CreatedAt.Equal(at) {
		t.Fatalf("unexpected logs %+v", logs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOperatorRepository_FindByUsername(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM console_operators").
		WithArgs("planner1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "backend_user", "ou_id", "role", "active"}).
			AddRow(3, "planner1", "$2a$10$hash", "BK_USER", 4, "planner", true))
	mock.ExpectQuery("FROM console_operators").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	repo := OperatorRepository{DB: db}
	o, err := repo.FindByUsername(context.Background(), " planner1 ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if o.BackendUser != "BK_USER" || o.OUID != 4 || !o.Active {
		t.Fatalf("unexpected operator %+v", o)
	}
	if _, err := repo.FindByUsername(context.Background(), "ghost"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
