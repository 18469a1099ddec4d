package auth

import (
	"errors"
	"testing"
	"time"

	"tripconsole/internal/domain"
)

func TestIssueParseRoundTrip(t *testing.T) {
	iss := NewIssuer("s3cret", "tripconsole", time.Hour)
	rc := domain.RequestContext{UserID: "BK_USER", OUID: 4, Role: "planner"}

	tok, exp, err := iss.Issue("planner1", rc, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", exp)
	}
	got, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != rc {
		t.Fatalf("context mismatch: %+v", got)
	}
}

func TestParseRejectsForeignAndExpired(t *testing.T) {
	iss := NewIssuer("s3cret", "tripconsole", time.Hour)
	other := NewIssuer("different", "tripconsole", time.Hour)
	rc := domain.RequestContext{UserID: "u"}

	tok, _, _ := other.Issue("x", rc, time.Now())
	if _, err := iss.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature accepted: %v", err)
	}

	old, _, _ := iss.Issue("x", rc, time.Now().Add(-2*time.Hour))
	if _, err := iss.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}

	if _, err := iss.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}
}
