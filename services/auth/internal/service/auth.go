package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/raceparts/raceparts/pkg/events"
	"github.com/raceparts/raceparts/pkg/hash"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/tokens"
	"github.com/raceparts/raceparts/services/auth/internal/models"
	"github.com/raceparts/raceparts/services/auth/internal/repo"
)

const sessionTTL = 7 * 24 * time.Hour

var (
	ErrValidation = errors.New("validation")
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type ProfileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type UserEvent struct {
	Type   string `json:"type"`
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

type AuthService struct {
	Repo      *repo.GormRepo
	Secret    []byte
	Publisher events.Publisher
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !emailRe.MatchString(in.Email) {
		return nil, fmt.Errorf("a valid email is required: %w", ErrValidation)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", ErrValidation)
	}

	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	passwordHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleCustomer,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Address:      in.Address,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.Publisher.Publish(ctx, strconv.FormatUint(uint64(user.ID), 10), UserEvent{
		Type:   "user_registered",
		UserID: user.ID,
		Email:  user.Email,
	}); err != nil {
		l.Error("user event publish failed", "error", err)
	}

	l.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken mints the session cookie value the gateway verifies on every
// protected request.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	exp := time.Now().Add(sessionTTL)
	token, err := tokens.Sign(tokens.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.UUID.String(),
		},
	}, s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return user, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.Address != "" {
		user.Address = in.Address
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
