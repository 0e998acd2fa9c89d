package model

import "time"

// Role values stored in users.role.  SSM originates letters and manages
// regular accounts, GM routes/closes/remarks letters, USER only reads.
const (
	RoleUser = "user"
	RoleSSM  = "ssm"
	RoleGM   = "gm"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column.  Handlers
// define separate response types with JSON tags; the repository
// layer works with this struct directly.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  Username           – unique login name.
//  Email              – optional email, unique when present.
//  PasswordHash       – bcrypt hashed password.
//  Role               – one of "user", "ssm", "gm".
//  Name               – display name.
//  IsActive           – whether the account is active.
//  CreatedAt          – timestamp of creation.
//  LastPasswordChange – when the password was last set.
//  ModifiedBy         – admin who created or last modified the account (nullable).
type User struct {
	ID                 uint64    // users.id
	Username           string    // users.username
	Email              *string   // users.email (nullable)
	PasswordHash       string    // users.password_hash
	Role               string    // users.role
	Name               string    // users.name
	IsActive           bool      // users.is_active
	CreatedAt          time.Time // users.created_at
	LastPasswordChange time.Time // users.last_password_change
	ModifiedBy         *uint64   // users.modified_by (nullable)
}
