package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tripconsole/internal/auth"
	"tripconsole/internal/domain"
	"tripconsole/internal/repositories"
	"tripconsole/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials covers unknown users, wrong passwords and disabled
// operators alike.
var ErrBadCredentials = errors.New("username or password is incorrect")

type OperatorStore interface {
	FindByUsername(ctx context.Context, username string) (repositories.Operator, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Create(ctx context.Context, o repositories.Operator) (int64, error)
}

type AuthService struct {
	Operators OperatorStore
	Tokens    auth.Issuer
	RequestID string
	Now       func() time.Time
}

type LoginResult struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	Context   domain.RequestContext `json:"context"`
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login verifies the operator's password and issues a console token whose
// claims become the envelope context of the operator's backend calls.
func (s AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Msg: "username and password are required"}
	}
	op, err := s.Operators.FindByUsername(ctx, username)
	if err != nil {
		if domain.IsNotFound(err) {
			return LoginResult{}, ErrBadCredentials
		}
		return LoginResult{}, err
	}
	if !op.Active {
		return LoginResult{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrBadCredentials
	}

	rc := domain.RequestContext{UserID: op.BackendUser, OUID: op.OUID, Role: op.Role}
	now := s.now()
	token, exp, err := s.Tokens.Issue(op.Username, rc, now)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "issue token", Err: err}
	}
	if err := s.Operators.TouchLastLogin(ctx, op.ID, now); err != nil {
		utils.LogEvent(s.RequestID, "auth", "touch_login_failed", err.Error())
	}
	utils.LogEvent(s.RequestID, "auth", "login", "user="+op.Username)
	return LoginResult{Token: token, ExpiresAt: exp, Context: rc}, nil
}

type RegisterInput struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	BackendUser string `json:"backendUser"`
	OUID        int    `json:"ouId"`
	Role        string `json:"role"`
}

// Register creates an active operator. Usernames are unique.
func (s AuthService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.BackendUser = strings.TrimSpace(in.BackendUser)
	if in.Username == "" || in.BackendUser == "" {
		return 0, domain.ValidationError{Msg: "username and backendUser are required"}
	}
	if len(in.Password) < 8 {
		return 0, domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}
	if _, err := s.Operators.FindByUsername(ctx, in.Username); err == nil {
		return 0, domain.ConflictError{Resource: "operator", Msg: "username already registered"}
	} else if !domain.IsNotFound(err) {
		return 0, err
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = "planner"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, domain.InternalError{Msg: "hash password", Err: err}
	}
	id, err := s.Operators.Create(ctx, repositories.Operator{
		Username:     in.Username,
		PasswordHash: string(hash),
		BackendUser:  in.BackendUser,
		OUID:         in.OUID,
		Role:         role,
		Active:       true,
	})
	if err != nil {
		return 0, err
	}
	utils.LogEvent(s.RequestID, "auth", "register", "user="+in.Username)
	return id, nil
}
