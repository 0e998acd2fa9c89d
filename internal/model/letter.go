package model

import "time"

// Letter status values.  A letter starts out pending and is closed by a
// GM; there is no reopen path.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusClosed   = "closed"
)

// Letter is a tracked correspondence record routed between users.
//
// Fields:
//  ID           – primary key identifier.
//  Title        – subject line of the letter.
//  Reference    – globally unique reference code (e.g. "R-1").
//  Content      – body text.
//  Date         – official letter date; lists are sorted by it descending.
//  Status       – pending/approved/rejected/closed.
//  CreatedBy    – user who registered the letter (SSM).  Nullable: the
//                 letter is the office record and outlives its author,
//                 so deleting an account nulls the reference.
//  IsPublic     – visibility flag carried over from the paper workflow.
//  ApprovedBy   – GM who closed the letter (nullable).
//  ApprovalDate – when the letter was closed (nullable).
//  CreatedAt    – row creation timestamp.
type Letter struct {
	ID           uint64     // letters.id
	Title        string     // letters.title
	Reference    string     // letters.reference
	Content      string     // letters.content
	Date         time.Time  // letters.letter_date
	Status       string     // letters.status
	CreatedBy    *uint64    // letters.created_by (nullable)
	IsPublic     bool       // letters.is_public
	ApprovedBy   *uint64    // letters.approved_by (nullable)
	ApprovalDate *time.Time // letters.approval_date (nullable)
	CreatedAt    time.Time  // letters.created_at

	Creator     *UserRef     // populated from users at read time
	Recipients  []Recipient  // populated from letter_recipients
	Remarks     []Remark     // populated from letter_remarks
	Attachments []Attachment // populated from letter_attachments
}

// UserRef is the slim projection of a user embedded in letter reads;
// only identity fields, never the password hash.
type UserRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Recipient links a user to a letter for read tracking and routing.
// The recipient list of a letter only grows; routing is additive.
type Recipient struct {
	UserID     uint64    // letter_recipients.user_id
	ReadStatus bool      // letter_recipients.read_status
	ReceivedAt time.Time // letter_recipients.received_at
	User       *UserRef  // populated from users at read time
}

// Remark is a timestamped note appended to a letter by a GM.  AuthorID
// is nullable for the same reason as Letter.CreatedBy: remarks survive
// the deletion of their author's account.
type Remark struct {
	ID        uint64    // letter_remarks.id
	Text      string    // letter_remarks.text
	AuthorID  *uint64   // letter_remarks.author_id (nullable)
	CreatedAt time.Time // letter_remarks.created_at
	Author    *UserRef  // populated from users at read time
}

// Attachment records metadata for a file attached to a letter.  Upload
// plumbing lives in the client; the API only stores the reference.
type Attachment struct {
	ID         uint64    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// LetterStats aggregates counts by status plus the average closure
// latency in whole days, computed from approval_date - letter date and
// ignoring negative intervals.
type LetterStats struct {
	TotalLetters    int     `json:"totalLetters"`
	PendingLetters  int     `json:"pendingLetters"`
	ClosedLetters   int     `json:"closedLetters"`
	AvgResponseDays float64 `json:"avgResponseDays"`
}
