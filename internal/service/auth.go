package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/validation"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type SignupInput struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        string  `json:"password" validate:"required"`
	Role            string  `json:"role" validate:"omitempty,oneof=student alumni"`
	Branch          *string `json:"branch" validate:"omitempty,max=100"`
	GraduationYear  *int    `json:"graduationYear" validate:"omitempty,gte=1900,lte=2100"`
	CollegeName     string  `json:"collegeName" validate:"max=200"`
	CollegeLocation *string `json:"collegeLocation" validate:"omitempty,max=200"`
}

type SigninInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a freshly issued token for an authenticated user.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	db                *sqlx.DB
	userRepository    repository.UserRepository
	collegeRepository repository.CollegeRepository
	tokens            *TokenService
	emailService      *EmailService
	bcryptCost        int
}

func NewAuthService(
	database *sqlx.DB,
	userRepository repository.UserRepository,
	collegeRepository repository.CollegeRepository,
	tokens *TokenService,
	emailService *EmailService,
) *AuthService {
	return &AuthService{
		db:                database,
		userRepository:    userRepository,
		collegeRepository: collegeRepository,
		tokens:            tokens,
		emailService:      emailService,
		bcryptCost:        bcrypt.DefaultCost,
	}
}

// Signup creates the user, upserting their college by name in the same transaction.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Name = validation.NormalizeText(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	in.CollegeName = validation.NormalizeText(in.CollegeName)
	if in.Role == "" {
		in.Role = model.RoleStudent
	}
	if in.Branch != nil {
		b := validation.NormalizeText(*in.Branch)
		in.Branch = &b
		if b == "" {
			in.Branch = nil
		}
	}

	err := validation.Struct(in)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}
	err = validation.ValidatePassword(in.Password)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             uuid.NewString(),
		Email:          in.Email,
		PasswordHash:   hash,
		Name:           in.Name,
		Branch:         in.Branch,
		GraduationYear: in.GraduationYear,
		Role:           in.Role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if in.CollegeName != "" {
			college, err := s.collegeRepository.WithTx(tx).Upsert(ctx, in.CollegeName, in.CollegeLocation)
			if err != nil {
				return fmt.Errorf("failed to upsert college: %w", err)
			}
			user.CollegeID = &college.ID
		}
		return s.userRepository.WithTx(tx).Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, conflict("user already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", "user_id", user.ID, "college_id", user.CollegeID)

	err = s.emailService.SendWelcomeEmail(ctx, user.Email, user.Name)
	if err != nil {
		slog.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
	}

	return s.newSession(user)
}

func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*Session, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, invalidArgument("email and password are required")
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, unauthenticated("invalid credentials")
	}

	return s.newSession(user)
}

func (s *AuthService) newSession(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
