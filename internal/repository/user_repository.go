package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gopkg.in/guregu/null.v4"

	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,display_name,role,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes the password and inserts the account.  The new id is
// written back into u.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, display_name, role) VALUES (?,?,?,?,?)",
		u.Username, u.Email, hash, u.DisplayName, u.Role)
	if err != nil {
		return mapUserDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	u.IsActive = true
	return nil
}

func mapUserDuplicate(err error) error {
	key, ok := duplicateKey(err)
	if !ok {
		return err
	}
	if strings.Contains(key, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

// GetByUsername fetches an account by its exact login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// ProfileUpdate lists the only account fields a user may change themselves.
type ProfileUpdate struct {
	Email       null.String
	DisplayName null.String
}

// UpdateProfile applies the set fields of p.  Unset fields are left alone.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	sets := []string{}
	args := []any{}
	if p.Email.Valid {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(p.Email.String)))
	}
	if p.DisplayName.Valid {
		sets = append(sets, "display_name=?")
		args = append(args, strings.TrimSpace(p.DisplayName.String))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return mapUserDuplicate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when values are unchanged, so confirm the row exists.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListByRole returns accounts with the given role, newest first.
func (r *UserRepo) ListByRole(ctx context.Context, role string, activeOnly bool) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE role=?"
	if activeOnly {
		q += " AND is_active=1"
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := r.DB.QueryContext(ctx, q, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
