package repository

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/jitendraK4121/letter-monitoring-system/internal/model"
)

const letterColumns = "id,title,reference,content,letter_date,status,created_by,is_public,approved_by,approval_date,created_at"

// LetterRepo provides access to the letters table and its child tables
// (recipients, remarks, attachments).  Recipient mutations use atomic
// per-row statements so concurrent read-flag updates and routing never
// lose writes.
type LetterRepo struct{ DB *sql.DB }

func NewLetterRepo(db *sql.DB) *LetterRepo { return &LetterRepo{DB: db} }

// NewLetterParams carries everything needed to register a letter.
// RecipientIDs is the initial distribution list; attachments are
// metadata only.
type NewLetterParams struct {
	Title        string
	Reference    string
	Content      string
	Date         time.Time
	IsPublic     bool
	CreatedBy    uint64
	RecipientIDs []uint64
	Attachments  []model.Attachment
}

// Create inserts a letter with its initial recipients and attachment
// metadata in one transaction.  A duplicate reference maps to
// ErrReferenceExists.
func (r *LetterRepo) Create(ctx context.Context, p NewLetterParams) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO letters (title, reference, content, letter_date, status, created_by, is_public, created_at) VALUES (?,?,?,?,?,?,?,?)",
		p.Title, p.Reference, p.Content, p.Date, model.StatusPending, p.CreatedBy, p.IsPublic, now)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrReferenceExists
		}
		return 0, err
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	letterID := uint64(id64)

	for _, uid := range p.RecipientIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO letter_recipients (letter_id, user_id, read_status, received_at) VALUES (?,?,?,?)",
			letterID, uid, false, now); err != nil {
			if isDuplicate(err) {
				continue // same user listed twice in the distribution
			}
			return 0, err
		}
	}
	for _, a := range p.Attachments {
		uploaded := a.UploadedAt
		if uploaded.IsZero() {
			uploaded = now
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO letter_attachments (letter_id, filename, path, uploaded_at) VALUES (?,?,?,?)",
			letterID, a.Filename, a.Path, uploaded); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return letterID, nil
}

// GetByID loads one letter with creator, recipients, remarks and
// attachments populated.
func (r *LetterRepo) GetByID(ctx context.Context, id uint64) (model.Letter, error) {
	var l model.Letter
	err := scanLetter(r.DB.QueryRowContext(ctx,
		"SELECT "+letterColumns+" FROM letters WHERE id=? LIMIT 1", id), &l)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	letters := []*model.Letter{&l}
	if err := r.populate(ctx, letters); err != nil {
		return l, err
	}
	return l, nil
}

// ListAll returns every letter, newest first.  Used for gm/ssm callers.
func (r *LetterRepo) ListAll(ctx context.Context) ([]model.Letter, error) {
	return r.list(ctx,
		"SELECT "+letterColumns+" FROM letters ORDER BY letter_date DESC, id DESC")
}

// ListForRecipient returns only the letters where the given user appears
// in the recipient list, newest first.  Regular users see nothing else.
func (r *LetterRepo) ListForRecipient(ctx context.Context, userID uint64) ([]model.Letter, error) {
	return r.list(ctx,
		"SELECT "+letterColumns+" FROM letters WHERE id IN (SELECT letter_id FROM letter_recipients WHERE user_id=?) ORDER BY letter_date DESC, id DESC",
		userID)
}

// Recent returns the latest n letters by date.
func (r *LetterRepo) Recent(ctx context.Context, n int) ([]model.Letter, error) {
	if n <= 0 {
		n = 5
	}
	return r.list(ctx,
		"SELECT "+letterColumns+" FROM letters ORDER BY letter_date DESC, id DESC LIMIT ?", n)
}

func (r *LetterRepo) list(ctx context.Context, query string, args ...any) ([]model.Letter, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Letter
	for rows.Next() {
		var l model.Letter
		if err := scanLetter(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*model.Letter, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.populate(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func scanLetter(row rowScanner, l *model.Letter) error {
	var createdBy, approvedBy sql.NullInt64
	var approvalDate sql.NullTime
	err := row.Scan(&l.ID, &l.Title, &l.Reference, &l.Content, &l.Date, &l.Status,
		&createdBy, &l.IsPublic, &approvedBy, &approvalDate, &l.CreatedAt)
	if err != nil {
		return err
	}
	if createdBy.Valid {
		v := uint64(createdBy.Int64)
		l.CreatedBy = &v
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		l.ApprovedBy = &v
	}
	if approvalDate.Valid {
		t := approvalDate.Time
		l.ApprovalDate = &t
	}
	return nil
}

// populate resolves creator refs, recipients, remarks and attachments for
// a batch of letters with one query per child table.
func (r *LetterRepo) populate(ctx context.Context, letters []*model.Letter) error {
	if len(letters) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Letter, len(letters))
	args := make([]any, 0, len(letters))
	marks := make([]string, 0, len(letters))
	for _, l := range letters {
		byID[l.ID] = l
		args = append(args, l.ID)
		marks = append(marks, "?")
	}
	in := "(" + strings.Join(marks, ",") + ")"

	// Recipients joined with the slim user projection.
	rows, err := r.DB.QueryContext(ctx,
		"SELECT lr.letter_id, lr.user_id, lr.read_status, lr.received_at, u.username, u.name, u.role "+
			"FROM letter_recipients lr JOIN users u ON u.id = lr.user_id WHERE lr.letter_id IN "+in+" ORDER BY lr.received_at, lr.user_id",
		args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var letterID uint64
		var rec model.Recipient
		ref := model.UserRef{}
		if err := rows.Scan(&letterID, &rec.UserID, &rec.ReadStatus, &rec.ReceivedAt,
			&ref.Username, &ref.Name, &ref.Role); err != nil {
			rows.Close()
			return err
		}
		ref.ID = rec.UserID
		rec.User = &ref
		if l := byID[letterID]; l != nil {
			l.Recipients = append(l.Recipients, rec)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Remarks with their authors.  LEFT JOIN: a remark whose author's
	// account was deleted still belongs to the letter.
	rows, err = r.DB.QueryContext(ctx,
		"SELECT rm.letter_id, rm.id, rm.text, rm.author_id, rm.created_at, u.username, u.name, u.role "+
			"FROM letter_remarks rm LEFT JOIN users u ON u.id = rm.author_id WHERE rm.letter_id IN "+in+" ORDER BY rm.created_at, rm.id",
		args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var letterID uint64
		var rem model.Remark
		var authorID sql.NullInt64
		var username, name, role sql.NullString
		if err := rows.Scan(&letterID, &rem.ID, &rem.Text, &authorID, &rem.CreatedAt,
			&username, &name, &role); err != nil {
			rows.Close()
			return err
		}
		if authorID.Valid {
			v := uint64(authorID.Int64)
			rem.AuthorID = &v
			if username.Valid {
				rem.Author = &model.UserRef{ID: v, Username: username.String, Name: name.String, Role: role.String}
			}
		}
		if l := byID[letterID]; l != nil {
			l.Remarks = append(l.Remarks, rem)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Attachments.
	rows, err = r.DB.QueryContext(ctx,
		"SELECT letter_id, id, filename, path, uploaded_at FROM letter_attachments WHERE letter_id IN "+in+" ORDER BY id",
		args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var letterID uint64
		var a model.Attachment
		if err := rows.Scan(&letterID, &a.ID, &a.Filename, &a.Path, &a.UploadedAt); err != nil {
			rows.Close()
			return err
		}
		if l := byID[letterID]; l != nil {
			l.Attachments = append(l.Attachments, a)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Creators: collect distinct IDs, one lookup.  Letters whose author
	// was deleted carry a nil CreatedBy and are skipped.
	creatorIDs := map[uint64]bool{}
	for _, l := range letters {
		if l.CreatedBy != nil {
			creatorIDs[*l.CreatedBy] = true
		}
	}
	if len(creatorIDs) == 0 {
		return nil
	}
	cargs := make([]any, 0, len(creatorIDs))
	cmarks := make([]string, 0, len(creatorIDs))
	for id := range creatorIDs {
		cargs = append(cargs, id)
		cmarks = append(cmarks, "?")
	}
	rows, err = r.DB.QueryContext(ctx,
		"SELECT id, username, name, role FROM users WHERE id IN ("+strings.Join(cmarks, ",")+")",
		cargs...)
	if err != nil {
		return err
	}
	creators := map[uint64]*model.UserRef{}
	for rows.Next() {
		ref := &model.UserRef{}
		if err := rows.Scan(&ref.ID, &ref.Username, &ref.Name, &ref.Role); err != nil {
			rows.Close()
			return err
		}
		creators[ref.ID] = ref
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, l := range letters {
		if l.CreatedBy != nil {
			l.Creator = creators[*l.CreatedBy]
		}
	}
	return nil
}

// MarkRead flips the caller's own recipient entry to read.  Returns
// ErrNotFound when the letter does not exist or the caller is not a
// recipient; marking an already-read letter succeeds.
func (r *LetterRepo) MarkRead(ctx context.Context, letterID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE letter_recipients SET read_status=? WHERE letter_id=? AND user_id=?",
		true, letterID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the flag was already set.
	var exists int
	err = r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM letter_recipients WHERE letter_id=? AND user_id=? LIMIT 1",
		letterID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

// UnreadCount returns how many letters the user has received but not read.
func (r *LetterRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM letter_recipients WHERE user_id=? AND read_status=?",
		userID, false).Scan(&n)
	return n, err
}

// Close marks a letter closed and records the approver and approval
// time.  pending -> closed is one way; closing an already closed letter
// just refreshes the approver fields, matching the original behavior.
func (r *LetterRepo) Close(ctx context.Context, letterID, approverID uint64) (model.Letter, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE letters SET status=?, approved_by=?, approval_date=? WHERE id=?",
		model.StatusClosed, approverID, now, letterID)
	if err != nil {
		return model.Letter{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !r.exists(ctx, letterID) {
			return model.Letter{}, ErrNotFound
		}
	}
	return r.GetByID(ctx, letterID)
}

// AddRemark appends a timestamped remark tied to its author.
func (r *LetterRepo) AddRemark(ctx context.Context, letterID, authorID uint64, text string) (model.Letter, error) {
	if !r.exists(ctx, letterID) {
		return model.Letter{}, ErrNotFound
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO letter_remarks (letter_id, author_id, text, created_at) VALUES (?,?,?,?)",
		letterID, authorID, text, time.Now().UTC())
	if err != nil {
		return model.Letter{}, err
	}
	return r.GetByID(ctx, letterID)
}

// AddRecipients routes the letter to additional users.  The insert is an
// idempotent union: IDs already present are skipped via the
// (letter_id,user_id) unique key, so concurrent mark-to calls cannot
// produce duplicates and the recipient list only grows.
func (r *LetterRepo) AddRecipients(ctx context.Context, letterID uint64, userIDs []uint64) (model.Letter, error) {
	if !r.exists(ctx, letterID) {
		return model.Letter{}, ErrNotFound
	}
	now := time.Now().UTC()
	for _, uid := range userIDs {
		_, err := r.DB.ExecContext(ctx,
			"INSERT INTO letter_recipients (letter_id, user_id, read_status, received_at) VALUES (?,?,?,?)",
			letterID, uid, false, now)
		if err != nil {
			if isDuplicate(err) {
				continue // already a recipient
			}
			return model.Letter{}, err
		}
	}
	return r.GetByID(ctx, letterID)
}

func (r *LetterRepo) exists(ctx context.Context, letterID uint64) bool {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM letters WHERE id=? LIMIT 1", letterID).Scan(&one)
	return err == nil
}

// Stats aggregates letter counts by status and the average closure
// latency in whole days.  Negative intervals (approval before the
// letter date) are ignored.
func (r *LetterRepo) Stats(ctx context.Context) (model.LetterStats, error) {
	var s model.LetterStats
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM letters GROUP BY status")
	if err != nil {
		return s, err
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return s, err
		}
		s.TotalLetters += n
		switch status {
		case model.StatusPending:
			s.PendingLetters += n
		case model.StatusClosed:
			s.ClosedLetters += n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return s, err
	}

	rows, err = r.DB.QueryContext(ctx,
		"SELECT letter_date, approval_date FROM letters WHERE status=? AND approval_date IS NOT NULL",
		model.StatusClosed)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	var totalDays, closedWithDates int
	for rows.Next() {
		var date, approval time.Time
		if err := rows.Scan(&date, &approval); err != nil {
			return s, err
		}
		if approval.Before(date) {
			continue
		}
		totalDays += int(math.Floor(approval.Sub(date).Hours() / 24))
		closedWithDates++
	}
	if err := rows.Err(); err != nil {
		return s, err
	}
	if closedWithDates > 0 {
		s.AvgResponseDays = float64(totalDays) / float64(closedWithDates)
	}
	return s, nil
}
