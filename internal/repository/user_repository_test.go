package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jitendraK4121/letter-monitoring-system/internal/model"
	"github.com/jitendraK4121/letter-monitoring-system/internal/repository"
	"github.com/jitendraK4121/letter-monitoring-system/internal/testutil"
	"github.com/jitendraK4121/letter-monitoring-system/internal/utils"
)

func newUserRepo(t *testing.T) *repository.UserRepo {
	t.Helper()
	return repository.NewUserRepo(testutil.NewDB(t))
}

func seedUser(t *testing.T, r *repository.UserRepo, username, role string) uint64 {
	t.Helper()
	id, err := r.Create(context.Background(), repository.NewUserParams{
		Username: username,
		Password: username + "-pass",
		Name:     username,
		Role:     role,
	}, bcrypt.MinCost)
	require.NoError(t, err)
	return id
}

func TestUserRepoCreateAndGet(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	email := "SSM@example.com"
	id, err := r.Create(ctx, repository.NewUserParams{
		Username: "  SSM  ",
		Email:    &email,
		Password: "ssm123",
		Name:     "SSM Admin",
		Role:     model.RoleSSM,
	}, bcrypt.MinCost)
	require.NoError(t, err)

	u, err := r.GetByUsername(ctx, "ssm")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "ssm", u.Username) // normalized
	assert.Equal(t, model.RoleSSM, u.Role)
	assert.True(t, u.IsActive)
	assert.False(t, u.CreatedAt.IsZero())

	// Password stored hashed, never plaintext.
	assert.NotEqual(t, "ssm123", u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "ssm123"))

	_, err = r.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepoDuplicateUsername(t *testing.T) {
	r := newUserRepo(t)
	seedUser(t, r, "clerk", model.RoleUser)

	_, err := r.Create(context.Background(), repository.NewUserParams{
		Username: "CLERK", // same after normalization
		Password: "x",
		Name:     "Other",
		Role:     model.RoleUser,
	}, bcrypt.MinCost)
	assert.ErrorIs(t, err, repository.ErrUsernameExists)
}

func TestUserRepoDeleteLastSSMRefused(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	ssm := seedUser(t, r, "ssm", model.RoleSSM)
	seedUser(t, r, "gm", model.RoleGM)

	err := r.Delete(ctx, ssm)
	assert.ErrorIs(t, err, repository.ErrLastSSM)

	// With a second ssm the delete goes through.
	seedUser(t, r, "ssm2", model.RoleSSM)
	require.NoError(t, r.Delete(ctx, ssm))

	_, err = r.GetByID(ctx, ssm)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepoDeleteMissing(t *testing.T) {
	r := newUserRepo(t)
	err := r.Delete(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepoSetPassword(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	admin := seedUser(t, r, "gm", model.RoleGM)
	target := seedUser(t, r, "clerk", model.RoleUser)

	before, err := r.GetByID(ctx, target)
	require.NoError(t, err)

	require.NoError(t, r.SetPassword(ctx, target, "new-pass", bcrypt.MinCost, &admin))

	after, err := r.GetByID(ctx, target)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(after.PasswordHash, "new-pass"))
	assert.False(t, utils.VerifyPassword(after.PasswordHash, "clerk-pass"))
	require.NotNil(t, after.ModifiedBy)
	assert.Equal(t, admin, *after.ModifiedBy)
	assert.False(t, after.LastPasswordChange.Before(before.LastPasswordChange))

	assert.ErrorIs(t, r.SetPassword(ctx, 999, "x", bcrypt.MinCost, nil), repository.ErrNotFound)
}

func TestUserRepoListIDsByRoles(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	ssm := seedUser(t, r, "ssm", model.RoleSSM)
	gm := seedUser(t, r, "gm", model.RoleGM)
	seedUser(t, r, "clerk", model.RoleUser)

	ids, err := r.ListIDsByRoles(ctx, model.RoleGM, model.RoleSSM)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{ssm, gm}, ids)

	ids, err = r.ListIDsByRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserRepoCountWithRoleIn(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	gm := seedUser(t, r, "gm", model.RoleGM)
	clerk := seedUser(t, r, "clerk", model.RoleUser)

	n, err := r.CountWithRoleIn(ctx, model.RoleUser, []uint64{clerk})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A gm target or an unknown ID must not count as a regular user.
	n, err = r.CountWithRoleIn(ctx, model.RoleUser, []uint64{clerk, gm, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserRepoUpdateProfile(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	id := seedUser(t, r, "clerk", model.RoleUser)

	email := "clerk@example.com"
	u, err := r.UpdateProfile(ctx, id, "Head Clerk", &email)
	require.NoError(t, err)
	assert.Equal(t, "Head Clerk", u.Name)
	require.NotNil(t, u.Email)
	assert.Equal(t, email, *u.Email)

	// Role and password survive a profile update untouched.
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "clerk-pass"))
}
