package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gradnet/gradnet/internal/db"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, collegeID string) ([]*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepository struct {
	q sqlx.ExtContext
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{q: db}
}

func (r *userRepository) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepository{q: tx}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, password_hash, name, bio, profile_pic, branch, graduation_year, role, college_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Bio,
		user.ProfilePic,
		user.Branch,
		user.GraduationYear,
		user.Role,
		user.CollegeID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := sqlx.GetContext(ctx, r.q, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := sqlx.GetContext(ctx, r.q, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM users WHERE id = $1`, id)
	return n > 0, err
}

// List returns users ordered by name, optionally restricted to one college.
func (r *userRepository) List(ctx context.Context, collegeID string) ([]*model.User, error) {
	var w where
	if collegeID != "" {
		w.add("college_id = ?", collegeID)
	}

	users := []*model.User{}
	query := `SELECT * FROM users` + w.String() + ` ORDER BY LOWER(name) ASC, id ASC`
	err := sqlx.SelectContext(ctx, r.q, &users, query, w.args...)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile writes the self-editable profile columns.
func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `UPDATE users
	          SET name = $1, bio = $2, profile_pic = $3, branch = $4, graduation_year = $5, updated_at = $6
	          WHERE id = $7`

	result, err := r.q.ExecContext(ctx, query,
		user.Name,
		user.Bio,
		user.ProfilePic,
		user.Branch,
		user.GraduationYear,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(result, ErrUserNotFound)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrUserNotFound)
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
