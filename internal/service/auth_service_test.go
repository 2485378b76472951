package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

func newAuthService(users *memUsers, groups *memGroups) *AuthService {
	return NewAuthService(users, groups, validator.New(), zap.NewNop(), AuthConfig{
		Secret:      "secret",
		TokenExpiry: 30 * time.Minute,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := newMemUsers(&models.User{Username: "olena", Email: "olena@example.com", PasswordHash: string(hash), Role: models.RoleStudent, IsActive: true})
	svc := newAuthService(users, newMemGroups())

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "olena", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, "olena", res.User.Username)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := newMemUsers(&models.User{Username: "olena", Email: "olena@example.com", PasswordHash: string(hash), Role: models.RoleStudent, IsActive: true})
	svc := newAuthService(users, newMemGroups())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "olena", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUserSameError(t *testing.T) {
	svc := newAuthService(newMemUsers(), newMemGroups())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := newMemUsers(&models.User{Username: "olena", Email: "olena@example.com", PasswordHash: string(hash), Role: models.RoleStudent, IsActive: false})
	svc := newAuthService(users, newMemGroups())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "olena", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterDuplicateUsername(t *testing.T) {
	users := newMemUsers(&models.User{Username: "olena", Email: "olena@example.com", PasswordHash: "hash", Role: models.RoleStudent})
	svc := newAuthService(users, newMemGroups())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "olena", Email: "other@example.com", Password: "password", Role: "student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterStartsUnverified(t *testing.T) {
	groups := newMemGroups(&models.Group{ID: "g1", Name: "CS-11", FacultyID: "f1"})
	svc := newAuthService(newMemUsers(), groups)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "ivan", Email: "ivan@example.com", Password: "password", Role: "student", GroupID: "g1",
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.GroupID)
	assert.Equal(t, "g1", *user.GroupID)
}

func TestResolveUserRoundTrip(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	users := newMemUsers(&models.User{Username: "petro", Email: "petro@example.com", PasswordHash: string(hash), Role: models.RoleTeacher, IsActive: true, IsVerified: true})
	svc := newAuthService(users, newMemGroups())

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "petro", Password: "password"})
	require.NoError(t, err)

	user, err := svc.ResolveUser(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "petro", user.Username)
	assert.Equal(t, models.RoleTeacher, user.Role)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := newAuthService(newMemUsers(), newMemGroups())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenConfiguredAlgorithm(t *testing.T) {
	users := newMemUsers(&models.User{Username: "petro", Email: "petro@example.com", PasswordHash: "hash", Role: models.RoleTeacher, IsActive: true})
	hs384 := NewAuthService(users, newMemGroups(), validator.New(), zap.NewNop(), AuthConfig{
		Secret:      "secret",
		Algorithm:   "HS384",
		TokenExpiry: 30 * time.Minute,
	})

	user, _ := users.FindByUsername(context.Background(), "petro")
	token, err := hs384.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := hs384.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "petro", claims.Subject)

	// A service configured for HS256 must not accept the HS384 token even
	// though the secret matches.
	hs256 := newAuthService(users, newMemGroups())
	_, err = hs256.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenExpired(t *testing.T) {
	users := newMemUsers(&models.User{Username: "petro", Email: "petro@example.com", PasswordHash: "hash", Role: models.RoleTeacher, IsActive: true})
	svc := NewAuthService(users, newMemGroups(), validator.New(), zap.NewNop(), AuthConfig{
		Secret:      "secret",
		TokenExpiry: -time.Minute,
	})

	user, _ := users.FindByUsername(context.Background(), "petro")
	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, appErrors.FromError(err).Code)
}
