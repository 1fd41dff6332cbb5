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

const (
	PostSortRecent = "recent"
	PostSortLikes  = "likes"

	DefaultPostLimit = 50
	MaxPostLimit     = 100
)

var (
	ErrPostNotFound = errors.New("post not found")
	// ErrPostParentMissing means the author or circle vanished before the insert landed.
	ErrPostParentMissing = errors.New("post author or circle not found")
)

// PostFilter narrows post listings. Circle posts are only returned when
// CircleID is set or IncludeCirclePosts is true.
type PostFilter struct {
	UserID             string
	CircleID           string
	CollegeID          string
	IncludeCirclePosts bool
	SortBy             string
	Limit              int
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	ByID(ctx context.Context, id string) (*model.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	View(ctx context.Context, id string) (*model.PostView, error)
	List(ctx context.Context, filter PostFilter) ([]model.PostView, error)
	UpdateContent(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id, userID string) error
	Comments(ctx context.Context, postID string) ([]model.CommentView, error)
	Likers(ctx context.Context, postID string) ([]model.UserSummary, error)
	Media(ctx context.Context, postID string) ([]model.Media, error)
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postViewSelect = `SELECT p.id, p.user_id, p.circle_id, p.content, p.created_at, p.updated_at,
       u.name AS author_name, u.email AS author_email, u.role AS author_role, u.profile_pic AS author_profile_pic,
       c.name AS circle_name,
       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
       (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comments_count,
       (SELECT COUNT(*) FROM media m WHERE m.post_id = p.id) AS media_count
FROM posts p
JOIN users u ON u.id = p.user_id
LEFT JOIN circles c ON c.id = p.circle_id`

type postRow struct {
	model.Post
	AuthorName       string  `db:"author_name"`
	AuthorEmail      string  `db:"author_email"`
	AuthorRole       string  `db:"author_role"`
	AuthorProfilePic *string `db:"author_profile_pic"`
	CircleName       *string `db:"circle_name"`
	LikesCount       int     `db:"likes_count"`
	CommentsCount    int     `db:"comments_count"`
	MediaCount       int     `db:"media_count"`
}

func (row *postRow) view() model.PostView {
	v := model.PostView{
		Post: row.Post,
		Author: model.UserSummary{
			ID:         row.UserID,
			Name:       row.AuthorName,
			Email:      row.AuthorEmail,
			Role:       row.AuthorRole,
			ProfilePic: row.AuthorProfilePic,
		},
		LikesCount:    row.LikesCount,
		CommentsCount: row.CommentsCount,
		MediaCount:    row.MediaCount,
	}
	if row.CircleID != nil && row.CircleName != nil {
		v.Circle = &model.CircleRef{ID: *row.CircleID, Name: *row.CircleName}
	}
	return v
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `INSERT INTO posts (id, user_id, circle_id, content, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.UserID,
		post.CircleID,
		post.Content,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if db.IsForeignKeyViolation(err) {
		return ErrPostParentMissing
	}
	return err
}

func (r *postRepository) ByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.GetContext(ctx, post, `SELECT * FROM posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE id = $1`, id)
	return n > 0, err
}

func (r *postRepository) View(ctx context.Context, id string) (*model.PostView, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, postViewSelect+` WHERE p.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	v := row.view()
	return &v, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]model.PostView, error) {
	var w where
	if filter.UserID != "" {
		w.add("p.user_id = ?", filter.UserID)
	}
	if filter.CircleID != "" {
		w.add("p.circle_id = ?", filter.CircleID)
	} else if !filter.IncludeCirclePosts {
		w.addRaw("p.circle_id IS NULL")
	}
	if filter.CollegeID != "" {
		w.add("u.college_id = ?", filter.CollegeID)
	}

	var orderBy string
	switch filter.SortBy {
	case PostSortLikes:
		orderBy = " ORDER BY likes_count DESC, p.created_at DESC, p.id DESC"
	default:
		orderBy = " ORDER BY p.created_at DESC, p.id DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	query := postViewSelect + w.String() + orderBy + " LIMIT " + w.bind(limit)

	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, query, w.args...)
	if err != nil {
		return nil, err
	}

	views := make([]model.PostView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].view())
	}
	return views, nil
}

// UpdateContent rewrites the content of a post owned by post.UserID.
func (r *postRepository) UpdateContent(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now().UTC()
	query := `UPDATE posts SET content = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`

	result, err := r.db.ExecContext(ctx, query, post.Content, post.UpdatedAt, post.ID, post.UserID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrPostNotFound)
}

func (r *postRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrPostNotFound)
}

type commentRow struct {
	model.Comment
	AuthorName       string  `db:"author_name"`
	AuthorEmail      string  `db:"author_email"`
	AuthorRole       string  `db:"author_role"`
	AuthorProfilePic *string `db:"author_profile_pic"`
}

func (r *postRepository) Comments(ctx context.Context, postID string) ([]model.CommentView, error) {
	query := `SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
	                 u.name AS author_name, u.email AS author_email, u.role AS author_role, u.profile_pic AS author_profile_pic
	          FROM comments c
	          JOIN users u ON u.id = c.user_id
	          WHERE c.post_id = $1
	          ORDER BY c.created_at ASC, c.id ASC`

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, postID)
	if err != nil {
		return nil, err
	}

	comments := make([]model.CommentView, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, model.CommentView{
			Comment: row.Comment,
			Author: model.UserSummary{
				ID:         row.UserID,
				Name:       row.AuthorName,
				Email:      row.AuthorEmail,
				Role:       row.AuthorRole,
				ProfilePic: row.AuthorProfilePic,
			},
		})
	}
	return comments, nil
}

func (r *postRepository) Likers(ctx context.Context, postID string) ([]model.UserSummary, error) {
	query := `SELECT u.id, u.name, u.email, u.role, u.profile_pic
	          FROM likes l
	          JOIN users u ON u.id = l.user_id
	          WHERE l.post_id = $1
	          ORDER BY l.created_at ASC, u.id ASC`

	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, query, postID)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postRepository) Media(ctx context.Context, postID string) ([]model.Media, error) {
	media := []model.Media{}
	err := r.db.SelectContext(ctx, &media, `SELECT * FROM media WHERE post_id = $1 ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, err
	}
	return media, nil
}
