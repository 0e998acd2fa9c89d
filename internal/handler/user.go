package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jitendraK4121/letter-monitoring-system/internal/config"
	"github.com/jitendraK4121/letter-monitoring-system/internal/middleware"
	"github.com/jitendraK4121/letter-monitoring-system/internal/model"
	"github.com/jitendraK4121/letter-monitoring-system/internal/repository"
)

// UserHandler bundles dependencies for account management endpoints.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type createUserReq struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
}

type updateProfileReq struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// GetProfile returns the caller's own account, password excluded.
func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
		}
		c.Logger().Errorf("profile: load failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"user": toUserView(u)}})
}

// UpdateProfile updates the caller's name/email.  Password and role are
// not updatable through this path.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"status": "error", "message": "Email already in use"})
		}
		c.Logger().Errorf("profile: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"user": toUserView(u)}})
}

// List returns all users.  Route gated to gm/ssm.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		c.Logger().Errorf("users: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"users": toUserViews(users)}})
}

// Create adds an account.  Route gated to gm/ssm; the creator is
// recorded as modified_by.
func (h *UserHandler) Create(c echo.Context) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "username, password and name are required"})
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.NewUserParams{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		ModifiedBy: &adminID,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"status": "error", "message": "Username already exists"})
		}
		c.Logger().Errorf("users: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		c.Logger().Errorf("users: reload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "data": echo.Map{"user": toUserView(u)}})
}

// Delete removes an account.  Route gated to gm/ssm.  Deleting the last
// remaining ssm account is refused with 400.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "User not found"})
		case errors.Is(err, repository.ErrLastSSM):
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Cannot delete the last SSM user"})
		default:
			c.Logger().Errorf("users: delete failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": nil})
}
