package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrCollegeNotFound = errors.New("college not found")

type CollegeRepository interface {
	Upsert(ctx context.Context, name string, location *string) (*model.College, error)
	ByID(ctx context.Context, id string) (*model.College, error)
	WithTx(tx *sqlx.Tx) CollegeRepository
}

type collegeRepository struct {
	q sqlx.ExtContext
}

func NewCollegeRepository(db *sqlx.DB) CollegeRepository {
	return &collegeRepository{q: db}
}

func (r *collegeRepository) WithTx(tx *sqlx.Tx) CollegeRepository {
	return &collegeRepository{q: tx}
}

// Upsert returns the college with the given name, creating it when missing.
// A location is only recorded when the college is first created.
func (r *collegeRepository) Upsert(ctx context.Context, name string, location *string) (*model.College, error) {
	query := `INSERT INTO colleges (id, name, location, created_at) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (name) DO NOTHING`

	_, err := r.q.ExecContext(ctx, query, uuid.NewString(), name, location, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	college := &model.College{}
	err = sqlx.GetContext(ctx, r.q, college, `SELECT * FROM colleges WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	return college, nil
}

func (r *collegeRepository) ByID(ctx context.Context, id string) (*model.College, error) {
	college := &model.College{}
	err := sqlx.GetContext(ctx, r.q, college, `SELECT * FROM colleges WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCollegeNotFound
	}
	if err != nil {
		return nil, err
	}
	return college, nil
}
