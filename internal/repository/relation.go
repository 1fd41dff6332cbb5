package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrRelationExists        = errors.New("relation already exists")
	ErrRelationTargetMissing = errors.New("relation subject or object not found")
	ErrRelationRejected      = errors.New("relation rejected by constraint")
)

// Relation describes a set-valued pair table keyed on (SubjectCol, ObjectCol).
// Table and column names are compile-time constants, never user input.
type Relation struct {
	Name       string
	Table      string
	SubjectCol string
	ObjectCol  string
	// Role, when set, is written to the table's role column on insert.
	Role string
}

var (
	LikeRelation = Relation{
		Name:       "like",
		Table:      "likes",
		SubjectCol: "user_id",
		ObjectCol:  "post_id",
	}
	FollowRelation = Relation{
		Name:       "follow",
		Table:      "follows",
		SubjectCol: "follower_id",
		ObjectCol:  "following_id",
	}
	MembershipRelation = Relation{
		Name:       "membership",
		Table:      "circle_members",
		SubjectCol: "user_id",
		ObjectCol:  "circle_id",
		Role:       model.MemberRoleMember,
	}
)

type RelationRepository interface {
	// Add inserts the pair; ErrRelationExists when it is already present.
	Add(ctx context.Context, rel Relation, subjectID, objectID string) error
	// Remove deletes the pair and reports whether a row was removed.
	Remove(ctx context.Context, rel Relation, subjectID, objectID string) (bool, error)
	Exists(ctx context.Context, rel Relation, subjectID, objectID string) (bool, error)
	// CountBySubject counts rows whose subject is id, CountByObject rows whose object is id.
	CountBySubject(ctx context.Context, rel Relation, id string) (int, error)
	CountByObject(ctx context.Context, rel Relation, id string) (int, error)
}

type relationRepository struct {
	db *sqlx.DB
}

func NewRelationRepository(db *sqlx.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) Add(ctx context.Context, rel Relation, subjectID, objectID string) error {
	var err error
	now := time.Now().UTC()
	if rel.Role != "" {
		query := fmt.Sprintf(`INSERT INTO %s (id, %s, %s, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
			rel.Table, rel.SubjectCol, rel.ObjectCol)
		_, err = r.db.ExecContext(ctx, query, uuid.NewString(), subjectID, objectID, rel.Role, now)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (id, %s, %s, created_at) VALUES ($1, $2, $3, $4)`,
			rel.Table, rel.SubjectCol, rel.ObjectCol)
		_, err = r.db.ExecContext(ctx, query, uuid.NewString(), subjectID, objectID, now)
	}

	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return ErrRelationExists
	case db.IsForeignKeyViolation(err):
		return ErrRelationTargetMissing
	case db.IsCheckViolation(err):
		return ErrRelationRejected
	}
	return fmt.Errorf("insert %s: %w", rel.Name, err)
}

func (r *relationRepository) Remove(ctx context.Context, rel Relation, subjectID, objectID string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, rel.Table, rel.SubjectCol, rel.ObjectCol)

	result, err := r.db.ExecContext(ctx, query, subjectID, objectID)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", rel.Name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *relationRepository) Exists(ctx context.Context, rel Relation, subjectID, objectID string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2`, rel.Table, rel.SubjectCol, rel.ObjectCol)

	var n int
	err := r.db.GetContext(ctx, &n, query, subjectID, objectID)
	return n > 0, err
}

func (r *relationRepository) CountBySubject(ctx context.Context, rel Relation, id string) (int, error) {
	return r.count(ctx, rel.Table, rel.SubjectCol, id)
}

func (r *relationRepository) CountByObject(ctx context.Context, rel Relation, id string) (int, error) {
	return r.count(ctx, rel.Table, rel.ObjectCol, id)
}

func (r *relationRepository) count(ctx context.Context, table, column, id string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table, column)

	var n int
	err := r.db.GetContext(ctx, &n, query, id)
	return n, err
}
