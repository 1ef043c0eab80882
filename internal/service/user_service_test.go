package service

import (
	"context"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/telegram"
)

func newUserService(t *testing.T, botToken string) *UserService {
	t.Helper()
	tokens, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return NewUserService(newMemUserStore(), tokens, botToken)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newUserService(t, "")
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token == "" || sess.User.ID == 0 || *sess.User.Email != "alice@example.com" {
		t.Fatalf("session = %+v", sess)
	}
	if id, err := svc.Authenticate(sess.Token); err != nil || id != sess.User.ID {
		t.Fatalf("Authenticate = %d, %v", id, err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret1"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate: err = %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("unknown email: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newUserService(t, "")
	_, err := svc.Register(context.Background(), RegisterInput{Username: "al", Email: "not-an-email", Password: "123"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v; want validation error", err)
	}
	if len(verr.Details) != 3 {
		t.Fatalf("details = %v; want 3 entries", verr.Details)
	}
}

func TestTelegramLogin(t *testing.T) {
	const botToken = "bot-token"
	svc := newUserService(t, botToken)
	now := time.Unix(1_717_000_000, 0)
	svc.now = func() time.Time { return now }

	vals := url.Values{}
	vals.Set("auth_date", strconv.FormatInt(now.Unix(), 10))
	vals.Set("user", `{"id":555,"first_name":"Bob"}`)
	vals.Set("hash", hex.EncodeToString(telegram.Sign(vals, botToken)))

	sess, err := svc.TelegramLogin(context.Background(), vals.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if sess.User.TgID == nil || *sess.User.TgID != 555 || sess.User.Username != "tg555" {
		t.Fatalf("user = %+v", sess.User)
	}

	again, err := svc.TelegramLogin(context.Background(), vals.Encode())
	if err != nil || again.User.ID != sess.User.ID {
		t.Fatalf("second login = %+v, %v", again, err)
	}

	if _, err := svc.TelegramLogin(context.Background(), vals.Encode()+"&x=1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("tampered: err = %v", err)
	}
}
