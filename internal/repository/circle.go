package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrCircleNotFound = errors.New("circle not found")

type CircleFilter struct {
	CollegeID   string
	CreatedByID string
	MemberID    string
}

type CircleRepository interface {
	Create(ctx context.Context, circle *model.Circle) error
	ByID(ctx context.Context, id string) (*model.Circle, error)
	Exists(ctx context.Context, id string) (bool, error)
	View(ctx context.Context, id string) (*model.CircleView, error)
	List(ctx context.Context, filter CircleFilter) ([]model.CircleView, error)
	Update(ctx context.Context, circle *model.Circle) error
	Delete(ctx context.Context, id, createdByID string) error
	AddMember(ctx context.Context, circleID, userID, role string) error
	Members(ctx context.Context, circleID string) ([]model.CircleMember, error)
	WithTx(tx *sqlx.Tx) CircleRepository
}

type circleRepository struct {
	q sqlx.ExtContext
}

func NewCircleRepository(db *sqlx.DB) CircleRepository {
	return &circleRepository{q: db}
}

func (r *circleRepository) WithTx(tx *sqlx.Tx) CircleRepository {
	return &circleRepository{q: tx}
}

const circleViewSelect = `SELECT c.id, c.name, c.description, c.created_by_id, c.college_id, c.created_at, c.updated_at,
       u.name AS creator_name, u.email AS creator_email, u.role AS creator_role, u.profile_pic AS creator_profile_pic,
       (SELECT COUNT(*) FROM circle_members cm WHERE cm.circle_id = c.id) AS member_count,
       (SELECT COUNT(*) FROM posts p WHERE p.circle_id = c.id) AS post_count
FROM circles c
JOIN users u ON u.id = c.created_by_id`

type circleRow struct {
	model.Circle
	CreatorName       string  `db:"creator_name"`
	CreatorEmail      string  `db:"creator_email"`
	CreatorRole       string  `db:"creator_role"`
	CreatorProfilePic *string `db:"creator_profile_pic"`
	MemberCount       int     `db:"member_count"`
	PostCount         int     `db:"post_count"`
}

func (row *circleRow) view() model.CircleView {
	return model.CircleView{
		Circle: row.Circle,
		CreatedBy: model.UserSummary{
			ID:         row.CreatedByID,
			Name:       row.CreatorName,
			Email:      row.CreatorEmail,
			Role:       row.CreatorRole,
			ProfilePic: row.CreatorProfilePic,
		},
		MemberCount: row.MemberCount,
		PostCount:   row.PostCount,
	}
}

func (r *circleRepository) Create(ctx context.Context, circle *model.Circle) error {
	query := `INSERT INTO circles (id, name, description, created_by_id, college_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.ExecContext(ctx, query,
		circle.ID,
		circle.Name,
		circle.Description,
		circle.CreatedByID,
		circle.CollegeID,
		circle.CreatedAt,
		circle.UpdatedAt,
	)
	if db.IsForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	return err
}

func (r *circleRepository) ByID(ctx context.Context, id string) (*model.Circle, error) {
	circle := &model.Circle{}
	err := sqlx.GetContext(ctx, r.q, circle, `SELECT * FROM circles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCircleNotFound
	}
	if err != nil {
		return nil, err
	}
	return circle, nil
}

func (r *circleRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM circles WHERE id = $1`, id)
	return n > 0, err
}

func (r *circleRepository) View(ctx context.Context, id string) (*model.CircleView, error) {
	var row circleRow
	err := sqlx.GetContext(ctx, r.q, &row, circleViewSelect+` WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCircleNotFound
	}
	if err != nil {
		return nil, err
	}
	v := row.view()
	return &v, nil
}

func (r *circleRepository) List(ctx context.Context, filter CircleFilter) ([]model.CircleView, error) {
	var w where
	if filter.CollegeID != "" {
		w.add("c.college_id = ?", filter.CollegeID)
	}
	if filter.CreatedByID != "" {
		w.add("c.created_by_id = ?", filter.CreatedByID)
	}
	if filter.MemberID != "" {
		w.add("EXISTS (SELECT 1 FROM circle_members m WHERE m.circle_id = c.id AND m.user_id = ?)", filter.MemberID)
	}

	var rows []circleRow
	query := circleViewSelect + w.String() + ` ORDER BY c.created_at DESC, c.id DESC`
	err := sqlx.SelectContext(ctx, r.q, &rows, query, w.args...)
	if err != nil {
		return nil, err
	}

	views := make([]model.CircleView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].view())
	}
	return views, nil
}

func (r *circleRepository) Update(ctx context.Context, circle *model.Circle) error {
	circle.UpdatedAt = time.Now().UTC()
	query := `UPDATE circles SET name = $1, description = $2, updated_at = $3 WHERE id = $4 AND created_by_id = $5`

	result, err := r.q.ExecContext(ctx, query, circle.Name, circle.Description, circle.UpdatedAt, circle.ID, circle.CreatedByID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrCircleNotFound)
}

func (r *circleRepository) Delete(ctx context.Context, id, createdByID string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM circles WHERE id = $1 AND created_by_id = $2`, id, createdByID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrCircleNotFound)
}

// AddMember records a membership with an explicit role. Joining through the
// toggle engine goes via RelationRepository instead.
func (r *circleRepository) AddMember(ctx context.Context, circleID, userID, role string) error {
	query := `INSERT INTO circle_members (id, circle_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, uuid.NewString(), circleID, userID, role, time.Now().UTC())
	if db.IsUniqueViolation(err) {
		return ErrRelationExists
	}
	return err
}

func (r *circleRepository) Members(ctx context.Context, circleID string) ([]model.CircleMember, error) {
	query := `SELECT m.user_id, m.role, m.created_at,
	                 u.name, u.email, u.role AS user_role, u.profile_pic
	          FROM circle_members m
	          JOIN users u ON u.id = m.user_id
	          WHERE m.circle_id = $1
	          ORDER BY m.created_at ASC, m.user_id ASC`

	rows, err := r.q.QueryxContext(ctx, query, circleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.CircleMember{}
	for rows.Next() {
		var m model.CircleMember
		err = rows.Scan(&m.UserID, &m.Role, &m.JoinedAt, &m.User.Name, &m.User.Email, &m.User.Role, &m.User.ProfilePic)
		if err != nil {
			return nil, err
		}
		m.User.ID = m.UserID
		members = append(members, m)
	}
	return members, rows.Err()
}
