package model

import (
	"time"
)

type Post struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	CircleID  *string   `db:"circle_id" json:"circleId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CircleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostView is a post enriched with its author, circle and relation counts.
type PostView struct {
	Post
	ContentHTML   string      `json:"contentHtml"`
	Author        UserSummary `json:"user"`
	Circle        *CircleRef  `json:"circle"`
	LikesCount    int         `json:"likesCount"`
	CommentsCount int         `json:"commentsCount"`
	MediaCount    int         `json:"mediaCount"`
}

type PostDetail struct {
	PostView
	Comments []CommentView `json:"comments"`
	Likes    []UserSummary `json:"likes"`
	Media    []Media       `json:"media"`
}
