package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"task_tracker/internal/domain"
	"task_tracker/internal/telegram"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is what a successful login returns.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type UserService struct {
	users    UserStore
	tokens   *TokenIssuer
	botToken string
	now      func() time.Time
}

func NewUserService(users UserStore, tokens *TokenIssuer, botToken string) *UserService {
	return &UserService{users: users, tokens: tokens, botToken: botToken, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var details []string
	if utf8.RuneCountInString(in.Username) < minUsernameLen {
		details = append(details, fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		details = append(details, "email must be a valid address")
	}
	if len(in.Password) < minPasswordLen {
		details = append(details, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if len(details) > 0 {
		return nil, &domain.ValidationError{Details: details}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	email := in.Email
	u := &domain.User{Username: in.Username, Email: &email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.session(u)
}

// Login checks email and password; any mismatch is ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.session(u)
}

// TelegramLogin verifies WebApp init_data and upserts the user by Telegram id.
func (s *UserService) TelegramLogin(ctx context.Context, initData string) (*Session, error) {
	if s.botToken == "" {
		return nil, fmt.Errorf("%w: telegram login is disabled", domain.ErrUnauthorized)
	}
	tgUser, err := telegram.Verify(initData, s.botToken, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	username := tgUser.Username
	if username == "" {
		username = fmt.Sprintf("tg%d", tgUser.ID)
	}
	u, err := s.users.UpsertTelegram(ctx, tgUser.ID, username, tgUser.FirstName)
	if err != nil {
		return nil, fmt.Errorf("upsert telegram user: %w", err)
	}
	return s.session(u)
}

func (s *UserService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Authenticate turns a bearer token into a user id.
func (s *UserService) Authenticate(token string) (int64, error) {
	return s.tokens.Parse(token)
}

func (s *UserService) session(u *domain.User) (*Session, error) {
	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}
