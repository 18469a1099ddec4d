package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tripconsole/internal/domain"
)

// Operator is a console login. BackendUser, OUID and Role become the
// envelope context of every backend call the operator makes.
type Operator struct {
	ID           int64
	Username     string
	PasswordHash string
	BackendUser  string
	OUID         int
	Role         string
	Active       bool
}

type OperatorRepository struct {
	DB *sql.DB
}

func (r OperatorRepository) FindByUsername(ctx context.Context, username string) (Operator, error) {
	var o Operator
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, backend_user, ou_id, role, active
		FROM console_operators
		WHERE username=?
		LIMIT 1`, strings.TrimSpace(username),
	).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.BackendUser, &o.OUID, &o.Role, &o.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Operator{}, domain.NotFoundError{Resource: "operator", Err: err}
	}
	return o, err
}

func (r OperatorRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE console_operators SET last_login_at=? WHERE id=?`, at, id)
	return err
}

// Create inserts an operator with an already hashed password.
func (r OperatorRepository) Create(ctx context.Context, o Operator) (int64, error) {
	if o.Username == "" || o.PasswordHash == "" || o.BackendUser == "" {
		return 0, domain.ValidationError{Field: "operator", Msg: "username, password and backend user are required"}
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO console_operators (username, password_hash, backend_user, ou_id, role, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.Username, o.PasswordHash, o.BackendUser, o.OUID, o.Role, o.Active,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
