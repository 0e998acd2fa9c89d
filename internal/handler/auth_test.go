package handler_test

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitendraK4121/letter-monitoring-system/internal/model"
	"github.com/jitendraK4121/letter-monitoring-system/internal/utils"
)

func TestLoginIssuesTokenWithStoredRole(t *testing.T) {
	e := newEnv(t)
	id := e.seedUser(t, "ssm", model.RoleSSM)

	rec, resp := invoke(t, e.auth.Login, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "ssm", "password": "ssm-pass"}, nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ssm", resp["role"])
	assert.Equal(t, "ssm", resp["username"])

	// The token's role claim must match the role stored for the account.
	parsed, err := jwt.Parse(resp["token"].(string), func(t *jwt.Token) (interface{}, error) {
		return []byte(e.cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, model.RoleSSM, claims["role"])
	assert.Equal(t, float64(id), claims["sub"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "clerk", model.RoleUser)

	// Unknown username and wrong password are indistinguishable.
	rec, resp := invoke(t, e.auth.Login, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "nobody", "password": "x"}, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", resp["message"])

	rec, resp = invoke(t, e.auth.Login, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "clerk", "password": "wrong"}, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", resp["message"])
}

func TestLoginRequiresCredentials(t *testing.T) {
	e := newEnv(t)
	rec, _ := invoke(t, e.auth.Login, http.MethodPost, "/api/auth/login",
		map[string]string{"username": " ", "password": ""}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	e := newEnv(t)

	rec, resp := invoke(t, e.auth.Register, http.MethodPost, "/api/auth/register",
		map[string]string{"username": "Clerk2", "password": "pw", "name": "Clerk Two"}, nil, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, resp["token"])
	user := asObject(t, data(t, resp)["user"])
	assert.Equal(t, "clerk2", user["username"])
	assert.Equal(t, model.RoleUser, user["role"])
}

func TestRegisterIgnoresRequestedRole(t *testing.T) {
	e := newEnv(t)

	// Self-registration must never mint an admin account, whatever the
	// payload claims.
	rec, resp := invoke(t, e.auth.Register, http.MethodPost, "/api/auth/register",
		map[string]string{"username": "intruder", "password": "pw", "name": "X", "role": "gm"}, nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	user := asObject(t, data(t, resp)["user"])
	assert.Equal(t, model.RoleUser, user["role"])

	stored, err := e.users.GetByUsername(t.Context(), "intruder")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)

	// The issued token carries the stored role, not the requested one.
	parsed, err := jwt.Parse(resp["token"].(string), func(t *jwt.Token) (interface{}, error) {
		return []byte(e.cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, parsed.Claims.(jwt.MapClaims)["role"])
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	id := e.seedUser(t, "clerk", model.RoleUser)
	me := &ident{id: id, role: model.RoleUser}

	rec, resp := invoke(t, e.auth.ChangePassword, http.MethodPut, "/api/auth/change-password",
		map[string]string{"currentPassword": "wrong", "newPassword": "next"}, me, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Current password is incorrect", resp["message"])

	rec, _ = invoke(t, e.auth.ChangePassword, http.MethodPut, "/api/auth/change-password",
		map[string]string{"currentPassword": "clerk-pass", "newPassword": "next"}, me, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := e.users.GetByID(t.Context(), id)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "next"))
}

func TestChangeUserPasswordRoleRules(t *testing.T) {
	e := newEnv(t)
	ssm := e.seedUser(t, "ssm", model.RoleSSM)
	gm := e.seedUser(t, "gm", model.RoleGM)
	clerk := e.seedUser(t, "clerk", model.RoleUser)

	// An ssm may only reset regular user passwords.
	rec, resp := invoke(t, e.auth.ChangeUserPassword, http.MethodPut, "/api/auth/change-user-password",
		map[string]any{"userId": gm, "newPassword": "next"}, &ident{id: ssm, role: model.RoleSSM}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "SSM can only change regular user passwords", resp["message"])

	rec, _ = invoke(t, e.auth.ChangeUserPassword, http.MethodPut, "/api/auth/change-user-password",
		map[string]any{"userId": clerk, "newPassword": "next"}, &ident{id: ssm, role: model.RoleSSM}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := e.users.GetByID(t.Context(), clerk)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "next"))
	require.NotNil(t, u.ModifiedBy)
	assert.Equal(t, ssm, *u.ModifiedBy)

	// A gm may reset anyone.
	rec, _ = invoke(t, e.auth.ChangeUserPassword, http.MethodPut, "/api/auth/change-user-password",
		map[string]any{"userId": ssm, "newPassword": "next"}, &ident{id: gm, role: model.RoleGM}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangeUserPasswordMissingTarget(t *testing.T) {
	e := newEnv(t)
	gm := e.seedUser(t, "gm", model.RoleGM)

	rec, _ := invoke(t, e.auth.ChangeUserPassword, http.MethodPut, "/api/auth/change-user-password",
		map[string]any{"userId": 999, "newPassword": "next"}, &ident{id: gm, role: model.RoleGM}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitUsersSeedsDefaults(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "leftover", model.RoleUser)

	rec, _ := invoke(t, e.auth.InitUsers, http.MethodPost, "/api/auth/init-users", nil, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	users, err := e.users.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, users, 3)

	ssm, err := e.users.GetByUsername(t.Context(), "ssm")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSSM, ssm.Role)
	assert.True(t, utils.VerifyPassword(ssm.PasswordHash, "ssm123"))
}
