package model

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"
)

type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Name           string    `db:"name" json:"name"`
	Bio            *string   `db:"bio" json:"bio"`
	ProfilePic     *string   `db:"profile_pic" json:"profilePic"`
	Branch         *string   `db:"branch" json:"branch"`
	GraduationYear *int      `db:"graduation_year" json:"graduationYear"`
	Role           string    `db:"role" json:"role"`
	CollegeID      *string   `db:"college_id" json:"collegeId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary is the display projection embedded in posts, comments and member lists.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		ProfilePic: u.ProfilePic,
	}
}

// SameCollege reports whether both users belong to the same, known college.
func (u *User) SameCollege(other *User) bool {
	return u.CollegeID != nil && other.CollegeID != nil && *u.CollegeID == *other.CollegeID
}

type UserSummary struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Email      string  `db:"email" json:"email"`
	Role       string  `db:"role" json:"role"`
	ProfilePic *string `db:"profile_pic" json:"profilePic"`
}

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserProfile is the full profile aggregate shown to the owner and same-college users.
type UserProfile struct {
	User
	College        *College     `json:"college"`
	Posts          []PostView   `json:"posts"`
	CirclesCreated []CircleView `json:"circlesCreated"`
	CirclesJoined  []CircleView `json:"circlesJoined"`
	Experiences    []Experience `json:"experiences"`
	FollowersCount int          `json:"followersCount"`
	FollowingCount int          `json:"followingCount"`
	IsOwnProfile   bool         `json:"isOwnProfile"`
	CanEdit        bool         `json:"canEdit"`
}
