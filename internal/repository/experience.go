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
	ErrExperienceNotFound = errors.New("experience not found")
	// ErrExperienceInvalid is returned when the store rejects the current/end date combination.
	ErrExperienceInvalid = errors.New("experience violates current role constraint")
)

type ExperienceRepository interface {
	Create(ctx context.Context, exp *model.Experience) error
	ByID(ctx context.Context, id string) (*model.Experience, error)
	ByUser(ctx context.Context, userID string) ([]model.Experience, error)
	Update(ctx context.Context, exp *model.Experience) error
	Delete(ctx context.Context, id, userID string) error
}

type experienceRepository struct {
	db *sqlx.DB
}

func NewExperienceRepository(db *sqlx.DB) ExperienceRepository {
	return &experienceRepository{db: db}
}

func (r *experienceRepository) Create(ctx context.Context, exp *model.Experience) error {
	query := `INSERT INTO experiences (id, user_id, title, company, location, description, start_date, end_date, is_current, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		exp.ID,
		exp.UserID,
		exp.Title,
		exp.Company,
		exp.Location,
		exp.Description,
		exp.StartDate,
		exp.EndDate,
		exp.IsCurrent,
		exp.CreatedAt,
		exp.UpdatedAt,
	)
	switch {
	case db.IsCheckViolation(err):
		return ErrExperienceInvalid
	case db.IsForeignKeyViolation(err):
		return ErrUserNotFound
	}
	return err
}

func (r *experienceRepository) ByID(ctx context.Context, id string) (*model.Experience, error) {
	exp := &model.Experience{}
	err := r.db.GetContext(ctx, exp, `SELECT * FROM experiences WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExperienceNotFound
	}
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// ByUser lists experiences with the current role first, then newest start date.
func (r *experienceRepository) ByUser(ctx context.Context, userID string) ([]model.Experience, error) {
	exps := []model.Experience{}
	query := `SELECT * FROM experiences WHERE user_id = $1 ORDER BY is_current DESC, start_date DESC, id ASC`
	err := r.db.SelectContext(ctx, &exps, query, userID)
	if err != nil {
		return nil, err
	}
	return exps, nil
}

func (r *experienceRepository) Update(ctx context.Context, exp *model.Experience) error {
	exp.UpdatedAt = time.Now().UTC()
	query := `UPDATE experiences
	          SET title = $1, company = $2, location = $3, description = $4, start_date = $5, end_date = $6, is_current = $7, updated_at = $8
	          WHERE id = $9 AND user_id = $10`

	result, err := r.db.ExecContext(ctx, query,
		exp.Title,
		exp.Company,
		exp.Location,
		exp.Description,
		exp.StartDate,
		exp.EndDate,
		exp.IsCurrent,
		exp.UpdatedAt,
		exp.ID,
		exp.UserID,
	)
	if db.IsCheckViolation(err) {
		return ErrExperienceInvalid
	}
	if err != nil {
		return err
	}
	return expectRow(result, ErrExperienceNotFound)
}

func (r *experienceRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM experiences WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrExperienceNotFound)
}
