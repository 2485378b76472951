package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkovalenko/student-journal-api/internal/models"
	appErrors "github.com/mkovalenko/student-journal-api/pkg/errors"
)

func newUserService(users *memUsers, groups *memGroups) *UserService {
	return NewUserService(users, groups, validator.New(), zap.NewNop())
}

func TestUserServiceSelfUpdateCannotChangeRole(t *testing.T) {
	student := &models.User{ID: "u1", Username: "olena", Email: "olena@example.com", Role: models.RoleStudent, IsActive: true, IsVerified: true}
	svc := newUserService(newMemUsers(student), newMemGroups())

	role := "admin"
	_, err := svc.Update(context.Background(), student, "u1", models.UpdateUserRequest{Role: &role})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	verified := true
	_, err = svc.Update(context.Background(), student, "u1", models.UpdateUserRequest{IsVerified: &verified})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceSelfUpdateProfileFields(t *testing.T) {
	student := &models.User{ID: "u1", Username: "olena", Email: "olena@example.com", Role: models.RoleStudent, IsActive: true, IsVerified: true}
	svc := newUserService(newMemUsers(student), newMemGroups())

	fullName := "Olena Kovalenko"
	updated, err := svc.Update(context.Background(), student, "u1", models.UpdateUserRequest{FullName: &fullName})
	require.NoError(t, err)
	assert.Equal(t, "Olena Kovalenko", updated.FullName)
	assert.Equal(t, models.RoleStudent, updated.Role)
}

func TestUserServiceForeignUpdateForbidden(t *testing.T) {
	student := &models.User{ID: "u1", Username: "olena", Role: models.RoleStudent}
	other := &models.User{ID: "u2", Username: "ivan", Email: "ivan@example.com", Role: models.RoleStudent}
	svc := newUserService(newMemUsers(student, other), newMemGroups())

	fullName := "Hacked"
	_, err := svc.Update(context.Background(), student, "u2", models.UpdateUserRequest{FullName: &fullName})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceAdminUpdateChangesStatus(t *testing.T) {
	admin := &models.User{ID: "a1", Username: "admin", Role: models.RoleAdmin, IsActive: true}
	student := &models.User{ID: "u1", Username: "olena", Email: "olena@example.com", Role: models.RoleStudent, IsActive: true}
	svc := newUserService(newMemUsers(admin, student), newMemGroups())

	verified := true
	updated, err := svc.Update(context.Background(), admin, "u1", models.UpdateUserRequest{IsVerified: &verified})
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
}

func TestUserServiceDeleteSelfRejected(t *testing.T) {
	admin := &models.User{ID: "a1", Username: "admin", Role: models.RoleAdmin, IsActive: true}
	svc := newUserService(newMemUsers(admin), newMemGroups())

	err := svc.Delete(context.Background(), admin, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteLastAdminRejected(t *testing.T) {
	admin := &models.User{ID: "a1", Username: "admin", Role: models.RoleAdmin, IsActive: true}
	other := &models.User{ID: "a2", Username: "root", Role: models.RoleAdmin, IsActive: true}
	users := newMemUsers(admin, other)
	svc := newUserService(users, newMemGroups())

	// Two admins: deleting one works.
	require.NoError(t, svc.Delete(context.Background(), admin, "a2"))

	// Only one admin left: deleting it is rejected even for another actor.
	actor := &models.User{ID: "x", Username: "other-admin", Role: models.RoleAdmin}
	err := svc.Delete(context.Background(), actor, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteInactiveAdminAllowed(t *testing.T) {
	active := &models.User{ID: "a1", Username: "admin", Role: models.RoleAdmin, IsActive: true}
	inactive := &models.User{ID: "a2", Username: "former-admin", Role: models.RoleAdmin, IsActive: false}
	users := newMemUsers(active, inactive)
	svc := newUserService(users, newMemGroups())

	// A deactivated admin still counts toward the last-admin guard, so
	// removing it leaves one admin behind and must succeed.
	require.NoError(t, svc.Delete(context.Background(), active, "a2"))
}

func TestUserServiceVerify(t *testing.T) {
	student := &models.User{ID: "u1", Username: "olena", Role: models.RoleStudent, IsActive: true}
	svc := newUserService(newMemUsers(student), newMemGroups())

	updated, err := svc.Verify(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
}

func TestUserServiceListUnverified(t *testing.T) {
	users := newMemUsers(
		&models.User{ID: "u1", Username: "olena", Role: models.RoleStudent, IsVerified: false},
		&models.User{ID: "u2", Username: "ivan", Role: models.RoleStudent, IsVerified: true},
	)
	svc := newUserService(users, newMemGroups())

	pending, err := svc.ListUnverified(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "olena", pending[0].Username)
}
