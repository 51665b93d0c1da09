package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raceparts/raceparts/pkg/events"
	"github.com/raceparts/raceparts/pkg/tokens"
	"github.com/raceparts/raceparts/services/auth/internal/models"
	"github.com/raceparts/raceparts/services/auth/internal/repo"
)

var testSecret = []byte("auth-test-secret")

func newTestService(t *testing.T) *AuthService {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}))

	return &AuthService{
		Repo:      &repo.GormRepo{DB: gdb},
		Secret:    testSecret,
		Publisher: events.Nop{},
	}
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "Somchai@Example.com",
		Password:  "correct-horse",
		FirstName: "Somchai",
	})
	require.NoError(t, err)

	assert.Equal(t, "somchai@example.com", user.Email, "email normalized")
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.NotZero(t, user.UUID)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Email: "ok@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken, "case-insensitive duplicate")
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "login@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, "login@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "known@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "unknown@example.com", "correct-horse")
	_, wrongPassErr := svc.Login(ctx, "known@example.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPassErr, "one error for both failure modes")
}

func TestIssueToken_RoundTrips(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "jwt@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	token, exp, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tokens.ClaimsFromToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "jwt@example.com", claims.Email)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	_, err = tokens.ClaimsFromToken(token, []byte("wrong-secret"))
	assert.Error(t, err)
}

func TestUpdateProfile_PartialFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "profile@example.com",
		Password:  "correct-horse",
		FirstName: "Somchai",
		Phone:     "081-000-0000",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Address: "Bangkok"})
	require.NoError(t, err)
	assert.Equal(t, "Somchai", updated.FirstName, "unset fields untouched")
	assert.Equal(t, "Bangkok", updated.Address)

	_, err = svc.UpdateProfile(ctx, 9999, ProfileInput{Address: "nowhere"})
	assert.ErrorIs(t, err, ErrNotFound)
}
