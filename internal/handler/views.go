package handler

import (
	"time"

	"github.com/jitendraK4121/letter-monitoring-system/internal/model"
)

// View types shape what goes over the wire.  The repository structs stay
// internal; in particular the password hash never appears in a view.

type userView struct {
	ID                 uint64    `json:"id"`
	Username           string    `json:"username"`
	Email              *string   `json:"email,omitempty"`
	Role               string    `json:"role"`
	Name               string    `json:"name"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	LastPasswordChange time.Time `json:"lastPasswordChange"`
	ModifiedBy         *uint64   `json:"modifiedBy,omitempty"`
}

func toUserView(u model.User) userView {
	return userView{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Role:               u.Role,
		Name:               u.Name,
		IsActive:           u.IsActive,
		CreatedAt:          u.CreatedAt,
		LastPasswordChange: u.LastPasswordChange,
		ModifiedBy:         u.ModifiedBy,
	}
}

func toUserViews(users []model.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}

type recipientView struct {
	User         *model.UserRef `json:"user"`
	ReadStatus   bool           `json:"readStatus"`
	ReceivedDate time.Time      `json:"receivedDate"`
}

type remarkView struct {
	ID        uint64         `json:"id"`
	Text      string         `json:"text"`
	CreatedBy *model.UserRef `json:"createdBy"`
	Date      time.Time      `json:"date"`
}

type letterView struct {
	ID           uint64             `json:"id"`
	Title        string             `json:"title"`
	Reference    string             `json:"reference"`
	Content      string             `json:"content"`
	Date         time.Time          `json:"date"`
	Status       string             `json:"status"`
	IsPublic     bool               `json:"isPublic"`
	CreatedBy    *model.UserRef     `json:"createdBy"`
	Recipients   []recipientView    `json:"recipients"`
	ApprovedBy   *uint64            `json:"approvedBy,omitempty"`
	ApprovalDate *time.Time         `json:"approvalDate,omitempty"`
	Remarks      []remarkView       `json:"remarks"`
	Attachments  []model.Attachment `json:"attachments"`
}

func toLetterView(l model.Letter) letterView {
	v := letterView{
		ID:           l.ID,
		Title:        l.Title,
		Reference:    l.Reference,
		Content:      l.Content,
		Date:         l.Date,
		Status:       l.Status,
		IsPublic:     l.IsPublic,
		CreatedBy:    l.Creator,
		ApprovedBy:   l.ApprovedBy,
		ApprovalDate: l.ApprovalDate,
		Recipients:   make([]recipientView, 0, len(l.Recipients)),
		Remarks:      make([]remarkView, 0, len(l.Remarks)),
		Attachments:  l.Attachments,
	}
	if v.Attachments == nil {
		v.Attachments = []model.Attachment{}
	}
	for _, r := range l.Recipients {
		v.Recipients = append(v.Recipients, recipientView{
			User:         r.User,
			ReadStatus:   r.ReadStatus,
			ReceivedDate: r.ReceivedAt,
		})
	}
	for _, rm := range l.Remarks {
		v.Remarks = append(v.Remarks, remarkView{
			ID:        rm.ID,
			Text:      rm.Text,
			CreatedBy: rm.Author,
			Date:      rm.CreatedAt,
		})
	}
	return v
}

func toLetterViews(letters []model.Letter) []letterView {
	out := make([]letterView, 0, len(letters))
	for _, l := range letters {
		out = append(out, toLetterView(l))
	}
	return out
}
