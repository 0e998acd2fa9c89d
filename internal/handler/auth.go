package handler

import (
	"context"  // context with cancellation for DB calls
	"errors"   // sentinel error comparison
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/jitendraK4121/letter-monitoring-system/internal/config"     // app configuration
	"github.com/jitendraK4121/letter-monitoring-system/internal/middleware" // identity extraction
	"github.com/jitendraK4121/letter-monitoring-system/internal/model"      // role constants
	"github.com/jitendraK4121/letter-monitoring-system/internal/repository" // DB repositories
	"github.com/jitendraK4121/letter-monitoring-system/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type registerReq struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
type changeUserPasswordReq struct {
	UserID      uint64 `json:"userId"`
	NewPassword string `json:"newPassword"`
}

func validRole(r string) bool {
	return r == model.RoleUser || r == model.RoleSSM || r == model.RoleGM
}

// Login verifies username/password and returns a 24-hour token plus the
// plaintext role and username the SPA needs to pick a dashboard.  An
// unknown username and a wrong password are indistinguishable: both
// return 401 "Invalid credentials".
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "Invalid credentials"})
		}
		c.Logger().Errorf("login: query failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "Invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLHrs)
	if err != nil {
		c.Logger().Errorf("login: issue token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	// Flat response shape expected by the SPA login form.
	return c.JSON(http.StatusOK, echo.Map{
		"token":    access.Token,
		"role":     u.Role,
		"username": u.Username,
	})
}

// Register creates an account and returns a token immediately.  The
// endpoint is public, so the role is always "user" no matter what the
// payload says; ssm/gm accounts are provisioned by an admin through
// /api/users.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "username, password and name are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.NewUserParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.RoleUser,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"status": "error", "message": "Username already exists"})
		}
		c.Logger().Errorf("register: create user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, model.RoleUser, h.Cfg.AccessTTLHrs)
	if err != nil {
		c.Logger().Errorf("register: issue token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"token":  access.Token,
		"data": echo.Map{
			"user": echo.Map{
				"id":       uid,
				"username": strings.ToLower(req.Username),
				"name":     req.Name,
				"role":     model.RoleUser,
			},
		},
	})
}

// ChangePassword is the self-service path.  The caller must supply the
// correct current password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "currentPassword and newPassword required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
		}
		c.Logger().Errorf("change-password: load user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "Current password is incorrect"})
	}
	if err := h.Users.SetPassword(ctx, uid, req.NewPassword, h.Cfg.BcryptCost, nil); err != nil {
		c.Logger().Errorf("change-password: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Password updated successfully"})
}

// ChangeUserPassword is the admin-on-behalf path.  The route is gated to
// gm/ssm; an ssm may additionally only target regular user accounts.
func (h *AuthHandler) ChangeUserPassword(c echo.Context) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	adminRole := middleware.Role(c)

	var req changeUserPasswordReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "userId and newPassword required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
		}
		c.Logger().Errorf("change-user-password: load target failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	if adminRole == model.RoleSSM && target.Role != model.RoleUser {
		return c.JSON(http.StatusForbidden, echo.Map{"status": "error", "message": "SSM can only change regular user passwords"})
	}
	if err := h.Users.SetPassword(ctx, target.ID, req.NewPassword, h.Cfg.BcryptCost, &adminID); err != nil {
		c.Logger().Errorf("change-user-password: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Password updated successfully"})
}

// InitUsers wipes the users table and seeds the three default accounts.
// A deployment convenience carried over from the original system.
func (h *AuthHandler) InitUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Users.DeleteAll(ctx); err != nil {
		c.Logger().Errorf("init-users: wipe failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Error initializing users"})
	}
	seed := []repository.NewUserParams{
		{Username: "ssm", Password: "ssm123", Role: model.RoleSSM, Name: "SSM Admin", Email: strPtr("ssm@example.com")},
		{Username: "gm", Password: "gm123", Role: model.RoleGM, Name: "GM Admin", Email: strPtr("gm@example.com")},
		{Username: "user1", Password: "user123", Role: model.RoleUser, Name: "Regular User", Email: strPtr("user1@example.com")},
	}
	for _, p := range seed {
		if _, err := h.Users.Create(ctx, p, h.Cfg.BcryptCost); err != nil {
			c.Logger().Errorf("init-users: seed %s failed: %v", p.Username, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Error initializing users"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Default users initialized successfully"})
}

func strPtr(s string) *string { return &s }
