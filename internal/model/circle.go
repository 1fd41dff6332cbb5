package model

import (
	"time"
)

const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

type Circle struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	CreatedByID string    `db:"created_by_id" json:"createdById"`
	CollegeID   *string   `db:"college_id" json:"collegeId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CircleView struct {
	Circle
	CreatedBy   UserSummary `json:"createdBy"`
	MemberCount int         `json:"memberCount"`
	PostCount   int         `json:"postCount"`
}

type CircleMember struct {
	UserID   string      `json:"userId"`
	Role     string      `json:"role"`
	JoinedAt time.Time   `json:"joinedAt"`
	User     UserSummary `json:"user"`
}

type CircleDetail struct {
	CircleView
	Posts   []PostView     `json:"posts"`
	Members []CircleMember `json:"members"`
}
