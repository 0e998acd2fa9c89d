package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jitendraK4121/letter-monitoring-system/internal/model"
	"github.com/jitendraK4121/letter-monitoring-system/internal/utils"
)

const userColumns = "id,username,email,password_hash,role,name,is_active,created_at,last_password_change,modified_by"

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUserParams carries the fields needed to insert a user.  Password is
// plaintext and hashed here so every write path goes through bcrypt.
type NewUserParams struct {
	Username   string
	Email      *string
	Password   string
	Name       string
	Role       string
	ModifiedBy *uint64
}

// Create inserts a user and returns its ID.  Usernames are normalized to
// lower case; duplicates map to ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, p NewUserParams, cost int) (uint64, error) {
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	hash, err := utils.HashPassword(p.Password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, name, is_active, created_at, last_password_change, modified_by) VALUES (?,?,?,?,?,?,?,?,?)",
		p.Username, p.Email, hash, p.Role, p.Name, true, now, now, p.ModifiedBy)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx, query, arg), &u)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner, u *model.User) error {
	var email sql.NullString
	var modBy sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.Name,
		&u.IsActive, &u.CreatedAt, &u.LastPasswordChange, &modBy)
	if err != nil {
		return err
	}
	if email.Valid {
		u.Email = &email.String
	}
	if modBy.Valid {
		v := uint64(modBy.Int64)
		u.ModifiedBy = &v
	}
	return nil
}

// List returns all users ordered by creation time descending.  The
// password hash is scanned but handlers must never serialize it.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListIDsByRoles returns the IDs of all users holding any of the given
// roles.  Used to build the initial recipient list of a new letter.
func (r *UserRepo) ListIDsByRoles(ctx context.Context, roles ...string) ([]uint64, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := make([]any, len(roles))
	marks := make([]string, len(roles))
	for i, role := range roles {
		args[i] = role
		marks[i] = "?"
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id FROM users WHERE role IN ("+strings.Join(marks, ",")+") ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountWithRoleIn returns how many of the given IDs exist with the given
// role.  Used by mark-to validation: every target must be a regular user.
func (r *UserRepo) CountWithRoleIn(ctx context.Context, role string, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{role}
	marks := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		marks[i] = "?"
	}
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=? AND id IN ("+strings.Join(marks, ",")+")",
		args...).Scan(&n)
	return n, err
}

// Delete removes a user.  Deleting the last remaining ssm account is
// refused with ErrLastSSM so letter origination can never be locked out.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var role string
	err = tx.QueryRowContext(ctx, "SELECT role FROM users WHERE id=? LIMIT 1", id).Scan(&role)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if role == model.RoleSSM {
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE role=?", model.RoleSSM).Scan(&n); err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastSSM
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPassword hashes and stores a new password, stamping
// last_password_change and, for admin-on-behalf changes, modified_by.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, password string, cost int, modifiedBy *uint64) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	var res sql.Result
	if modifiedBy != nil {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE users SET password_hash=?, last_password_change=?, modified_by=? WHERE id=?",
			hash, now, *modifiedBy, id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE users SET password_hash=?, last_password_change=? WHERE id=?",
			hash, now, id)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile updates the self-service fields (name, email).  Password
// and role are deliberately not updatable through this path.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string, email *string) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=? WHERE id=?", name, email, id)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// DeleteAll wipes the users table.  Only the init-users seeding endpoint
// uses this.
func (r *UserRepo) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users")
	return err
}
