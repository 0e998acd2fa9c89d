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
	"github.com/jitendraK4121/letter-monitoring-system/internal/queue"
	"github.com/jitendraK4121/letter-monitoring-system/internal/repository"
	queue_publisher "github.com/jitendraK4121/letter-monitoring-system/internal/service"
)

// LetterHandler bundles dependencies for letter endpoints.
type LetterHandler struct {
	Cfg     config.Config
	Letters *repository.LetterRepo
	Users   *repository.UserRepo
}

func NewLetterHandler(cfg config.Config, l *repository.LetterRepo, u *repository.UserRepo) *LetterHandler {
	return &LetterHandler{Cfg: cfg, Letters: l, Users: u}
}

type attachmentReq struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type createLetterReq struct {
	Title       string          `json:"title"`
	Reference   string          `json:"reference"`
	Content     string          `json:"content"`
	Date        *time.Time      `json:"date"`
	IsPublic    *bool           `json:"isPublic"`
	Attachments []attachmentReq `json:"attachments"`
}

type remarkReq struct {
	Remark string `json:"remark"`
}

type markToReq struct {
	UserIDs []uint64 `json:"userIds"`
}

// Create registers a letter.  Route gated to ssm.  The initial
// distribution list is every gm/ssm account; regular users are added
// later through mark-to.
func (h *LetterHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	var req createLetterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Title == "" || req.Reference == "" || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Missing required fields: title, reference, or content"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recipientIDs, err := h.Users.ListIDsByRoles(ctx, model.RoleGM, model.RoleSSM)
	if err != nil {
		c.Logger().Errorf("letters: load admin recipients failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	attachments := make([]model.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if a.Filename == "" {
			continue
		}
		attachments = append(attachments, model.Attachment{Filename: a.Filename, Path: a.Path})
	}

	id, err := h.Letters.Create(ctx, repository.NewLetterParams{
		Title:        req.Title,
		Reference:    req.Reference,
		Content:      req.Content,
		Date:         date,
		IsPublic:     isPublic,
		CreatedBy:    uid,
		RecipientIDs: recipientIDs,
		Attachments:  attachments,
	})
	if err != nil {
		if errors.Is(err, repository.ErrReferenceExists) {
			return c.JSON(http.StatusConflict, echo.Map{"status": "error", "message": "A letter with this reference already exists"})
		}
		c.Logger().Errorf("letters: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	letter, err := h.Letters.GetByID(ctx, id)
	if err != nil {
		c.Logger().Errorf("letters: reload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	h.publish(letter, queue.EventLetterCreated, uid)

	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "data": echo.Map{"letter": toLetterView(letter)}})
}

// List returns letters scoped by role: gm/ssm see everything, regular
// users only the letters routed to them.  Sorted by date descending.
func (h *LetterHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	role := middleware.Role(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		letters []model.Letter
		err     error
	)
	if role == model.RoleGM || role == model.RoleSSM {
		letters, err = h.Letters.ListAll(ctx)
	} else {
		letters, err = h.Letters.ListForRecipient(ctx, uid)
	}
	if err != nil {
		c.Logger().Errorf("letters: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"letters": toLetterViews(letters)}})
}

// MarkRead flips the caller's own recipient entry.  404 when the letter
// does not exist or the caller is not a recipient.
func (h *LetterHandler) MarkRead(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	letterID, err := strconv.ParseUint(c.Param("letterId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid letter id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Letters.MarkRead(ctx, letterID, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "Letter not found"})
		}
		c.Logger().Errorf("letters: mark read failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	letter, err := h.Letters.GetByID(ctx, letterID)
	if err != nil {
		c.Logger().Errorf("letters: reload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"letter": toLetterView(letter)}})
}

// UnreadCount returns how many letters the caller has not read yet.  The
// SPA polls this for the badge counter.
func (h *LetterHandler) UnreadCount(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Letters.UnreadCount(ctx, uid)
	if err != nil {
		c.Logger().Errorf("letters: unread count failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"unreadCount": n}})
}

// Close marks a letter closed.  Route gated to gm.  Records the approver
// and approval timestamp; there is no reopen path.
func (h *LetterHandler) Close(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	letterID, err := strconv.ParseUint(c.Param("letterId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid letter id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	letter, err := h.Letters.Close(ctx, letterID, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "Letter not found"})
		}
		c.Logger().Errorf("letters: close failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}

	h.publish(letter, queue.EventLetterClosed, uid)

	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"letter": toLetterView(letter)}})
}

// Remark appends a timestamped note.  Route gated to gm.
func (h *LetterHandler) Remark(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
	}
	letterID, err := strconv.ParseUint(c.Param("letterId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid letter id"})
	}
	var req remarkReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Remark) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "Remark text is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	letter, err := h.Letters.AddRemark(ctx, letterID, uid, strings.TrimSpace(req.Remark))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "Letter not found"})
		}
		c.Logger().Errorf("letters: add remark failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"letter": toLetterView(letter)}})
}

// MarkTo routes the letter to additional regular users.  Route gated to
// gm.  Every target must exist with role "user"; IDs already in the
// recipient list are skipped, never duplicated.
func (h *LetterHandler) MarkTo(c echo.Context) error {
	letterID, err := strconv.ParseUint(c.Param("letterId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid letter id"})
	}
	var req markToReq
	if err := c.Bind(&req); err != nil || len(req.UserIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "userIds required"})
	}

	// Dedupe before validating so a repeated ID in the payload does not
	// fail the existence check arithmetic.
	seen := make(map[uint64]bool, len(req.UserIDs))
	ids := make([]uint64, 0, len(req.UserIDs))
	for _, id := range req.UserIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Users.CountWithRoleIn(ctx, model.RoleUser, ids)
	if err != nil {
		c.Logger().Errorf("letters: validate mark-to targets failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	if n != len(ids) {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "All recipients must be existing regular users"})
	}

	letter, err := h.Letters.AddRecipients(ctx, letterID, ids)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"status": "error", "message": "Letter not found"})
		}
		c.Logger().Errorf("letters: mark-to failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"letter": toLetterView(letter)}})
}

// Stats returns status counters plus the average closure latency.
func (h *LetterHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Letters.Stats(ctx)
	if err != nil {
		c.Logger().Errorf("letters: stats failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"stats": s}})
}

// Recent returns the latest letters (default 5, ?limit= to override).
func (h *LetterHandler) Recent(c echo.Context) error {
	limit := 5
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	letters, err := h.Letters.Recent(ctx, limit)
	if err != nil {
		c.Logger().Errorf("letters: recent failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "Server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "data": echo.Map{"letters": toLetterViews(letters)}})
}

// publish emits a lifecycle event without blocking the response; broker
// failures are logged by the publisher and otherwise ignored.
func (h *LetterHandler) publish(letter model.Letter, eventType string, actorID uint64) {
	recipients := make([]string, 0, len(letter.Recipients))
	for _, r := range letter.Recipients {
		if r.User != nil {
			recipients = append(recipients, r.User.Username)
		}
	}
	ev := queue.LetterEvent{
		Type:       eventType,
		LetterID:   letter.ID,
		Reference:  letter.Reference,
		Title:      letter.Title,
		ActorID:    actorID,
		Recipients: recipients,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishLetterEvent(ctx, ev)
	}()
}
