package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripconsole/internal/auth"
	"tripconsole/internal/domain"
	"tripconsole/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

type memPresets struct {
	data map[string]repositories.FilterPreset
	gets int
}

func (m *memPresets) Get(_ context.Context, userID, picker string) (repositories.FilterPreset, error) {
	m.gets++
	p, ok := m.data[userID+"/"+picker]
	if !ok {
		return p, domain.NotFoundError{Resource: "preset"}
	}
	return p, nil
}

func (m *memPresets) Upsert(_ context.Context, p repositories.FilterPreset) error {
	m.data[p.UserID+"/"+p.Picker] = p
	return nil
}

func (m *memPresets) Delete(_ context.Context, userID, picker string) error {
	if _, ok := m.data[userID+"/"+picker]; !ok {
		return domain.NotFoundError{Resource: "preset"}
	}
	delete(m.data, userID+"/"+picker)
	return nil
}

func TestPresetService_SaveCanonicalizesAndInitial(t *testing.T) {
	store := &memPresets{data: map[string]repositories.FilterPreset{}}
	svc := PresetService{Repo: store}

	err := svc.Save(context.Background(), repositories.FilterPreset{
		UserID: "BK_USER", Picker: "equipment", PageSize: 30,
		Filters: []domain.Filter{{FilterName: "OwnerID", FilterValue: "OWN1"}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := store.data["BK_USER/Equipment"]; !ok {
		t.Fatalf("picker name not canonicalized: %v", store.data)
	}

	filters, size := svc.Initial(context.Background(), "BK_USER", "Equipment")
	if len(filters) != 1 || size != 30 {
		t.Fatalf("initial = %v %d", filters, size)
	}
	if filters, size := svc.Initial(context.Background(), "BK_USER", "Driver"); filters != nil || size != 0 {
		t.Fatalf("missing preset should yield nothing, got %v %d", filters, size)
	}

	if err := svc.Save(context.Background(), repositories.FilterPreset{UserID: "BK_USER", Picker: "Wagon"}); !domain.IsValidation(err) {
		t.Fatalf("unknown picker must be rejected, got %v", err)
	}
	if err := svc.Delete(context.Background(), "BK_USER", "Equipment"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

type memOperators struct {
	op      repositories.Operator
	touched bool
	created []repositories.Operator
}

func (m *memOperators) Create(_ context.Context, o repositories.Operator) (int64, error) {
	m.created = append(m.created, o)
	return int64(len(m.created) + 1), nil
}

func (m *memOperators) FindByUsername(_ context.Context, username string) (repositories.Operator, error) {
	if username != m.op.Username {
		return repositories.Operator{}, domain.NotFoundError{Resource: "operator"}
	}
	return m.op, nil
}

func (m *memOperators) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	m.touched = true
	return nil
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ops := &memOperators{op: repositories.Operator{
		ID: 1, Username: "planner1", PasswordHash: string(hash), BackendUser: "BK_USER", OUID: 4, Role: "planner", Active: true,
	}}
	issuer := auth.NewIssuer("jwt-secret", "tripconsole", time.Hour)
	svc := AuthService{Operators: ops, Tokens: issuer}

	res, err := svc.Login(context.Background(), " planner1 ", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	rc, err := issuer.Parse(res.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if rc.UserID != "BK_USER" || rc.OUID != 4 || !ops.touched {
		t.Fatalf("context = %+v touched=%v", rc, ops.touched)
	}

	if _, err := svc.Login(context.Background(), "planner1", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost", "secret"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
	ops.op.Active = false
	if _, err := svc.Login(context.Background(), "planner1", "secret"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("inactive operator: %v", err)
	}
	if _, err := svc.Login(context.Background(), "", ""); !domain.IsValidation(err) {
		t.Fatalf("empty credentials: %v", err)
	}
}

func TestAuthService_Register(t *testing.T) {
	ops := &memOperators{op: repositories.Operator{ID: 1, Username: "planner1"}}
	svc := AuthService{Operators: ops}

	id, err := svc.Register(context.Background(), RegisterInput{
		Username: "dispatcher", Password: "longenough", BackendUser: "BK_DISP", OUID: 4,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id != 2 || len(ops.created) != 1 {
		t.Fatalf("id=%d created=%v", id, ops.created)
	}
	got := ops.created[0]
	if got.Role != "planner" || !got.Active || got.PasswordHash == "longenough" {
		t.Fatalf("stored operator = %+v", got)
	}
	if bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("longenough")) != nil {
		t.Fatalf("stored hash does not verify")
	}

	if _, err := svc.Register(context.Background(), RegisterInput{Username: "planner1", Password: "longenough", BackendUser: "X"}); !domain.IsConflict(err) {
		t.Fatalf("duplicate username: %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Username: "x", Password: "short", BackendUser: "X"}); !domain.IsValidation(err) {
		t.Fatalf("short password: %v", err)
	}
}
