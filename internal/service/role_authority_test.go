package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

type brokenRoleRepo struct {
	repository.UserRoleRepository
}

func (brokenRoleRepo) ListByUser(ctx context.Context, userID string) ([]models.UserRole, error) {
	return nil, errors.New("connection reset by peer")
}

func (brokenRoleRepo) InsertIfAbsent(ctx context.Context, userID string, role models.Role) (bool, error) {
	return false, errors.New("connection reset by peer")
}

func TestCapabilitiesIncludeImplicitStudent(t *testing.T) {
	db := newTestDB(t)
	authority := NewRoleAuthority(repository.NewUserRoleRepository(db), testLogger())
	grantRole(t, db, "user-1", models.RoleInstructor)

	roles, err := authority.CapabilitiesOf(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"instructor", "student"}, roles.Strings())

	roles, err = authority.CapabilitiesOf(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, []string{"student"}, roles.Strings())

	require.NoError(t, authority.Authorize(context.Background(), "user-1", models.RoleInstructor))
	require.ErrorIs(t, authority.Authorize(context.Background(), "user-1", models.RoleAdmin), ErrForbidden)
}

func TestCapabilitiesFailClosed(t *testing.T) {
	authority := NewRoleAuthority(brokenRoleRepo{}, testLogger())

	roles, err := authority.CapabilitiesOf(context.Background(), "admin-1")
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, roles)

	require.ErrorIs(t, authority.Authorize(context.Background(), "admin-1", models.RoleStudent), ErrForbidden)

	_, err = authority.CapabilitiesOf(context.Background(), "  ")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGrantIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewUserRoleRepository(db)
	authority := NewRoleAuthority(repo, testLogger())

	created, err := authority.Grant(context.Background(), "user-9", models.RoleInstructor)
	require.NoError(t, err)
	require.True(t, created)

	created, err = authority.Grant(context.Background(), "user-9", models.RoleInstructor)
	require.NoError(t, err)
	require.False(t, created)

	count, err := repo.CountByUserAndRole(context.Background(), "user-9", models.RoleInstructor)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	_, err = authority.Grant(context.Background(), "user-9", models.Role("superuser"))
	requireValidationField(t, err, "role")

	_, err = NewRoleAuthority(brokenRoleRepo{}, testLogger()).Grant(context.Background(), "user-9", models.RoleAdmin)
	require.ErrorIs(t, err, ErrPersistence)
}
