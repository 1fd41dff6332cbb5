package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/gradnet/gradnet/internal/markdown"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/validation"
	"github.com/jmoiron/sqlx"
)

const (
	maxCircleName        = 100
	maxCircleDescription = 1000
)

type CreateCircleInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

type UpdateCircleInput struct {
	Name        model.Nullable[string] `json:"name"`
	Description model.Nullable[string] `json:"description"`
}

type CircleService struct {
	db               *sqlx.DB
	circleRepository repository.CircleRepository
	userRepository   repository.UserRepository
	postRepository   repository.PostRepository
	guard            *Guard
	renderer         *markdown.Renderer
}

func NewCircleService(
	database *sqlx.DB,
	circleRepository repository.CircleRepository,
	userRepository repository.UserRepository,
	postRepository repository.PostRepository,
	guard *Guard,
	renderer *markdown.Renderer,
) *CircleService {
	return &CircleService{
		db:               database,
		circleRepository: circleRepository,
		userRepository:   userRepository,
		postRepository:   postRepository,
		guard:            guard,
		renderer:         renderer,
	}
}

func (s *CircleService) List(ctx context.Context, filter repository.CircleFilter) ([]model.CircleView, error) {
	circles, err := s.circleRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list circles: %w", err)
	}
	return circles, nil
}

// Create stores the circle under the creator's college and records the creator
// as its owner member in the same transaction.
func (s *CircleService) Create(ctx context.Context, caller *model.Identity, in CreateCircleInput) (*model.CircleView, error) {
	if caller == nil {
		return nil, unauthenticated("authentication required")
	}

	in.Name = validation.NormalizeText(in.Name)
	err := validation.Struct(in)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}
	name := in.Name
	description, err := optionalText("description", in.Description, maxCircleDescription)
	if err != nil {
		return nil, err
	}

	creator, err := s.userRepository.ByID(ctx, caller.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, unauthenticated("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	circle := &model.Circle{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedByID: creator.ID,
		CollegeID:   creator.CollegeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		circles := s.circleRepository.WithTx(tx)
		err := circles.Create(ctx, circle)
		if err != nil {
			return err
		}
		return circles.AddMember(ctx, circle.ID, creator.ID, model.MemberRoleOwner)
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, unauthenticated("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create circle: %w", err)
	}

	slog.Info("circle created", "circle_id", circle.ID, "user_id", creator.ID)
	return s.view(ctx, circle.ID)
}

// Get returns the circle with its posts and members.
func (s *CircleService) Get(ctx context.Context, id string) (*model.CircleDetail, error) {
	view, err := s.view(ctx, id)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepository.List(ctx, repository.PostFilter{CircleID: id, Limit: repository.MaxPostLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list circle posts: %w", err)
	}
	members, err := s.circleRepository.Members(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return &model.CircleDetail{
		CircleView: *view,
		Posts:      renderPosts(s.renderer, posts),
		Members:    members,
	}, nil
}

func (s *CircleService) Update(ctx context.Context, caller *model.Identity, id string, in UpdateCircleInput) (*model.CircleView, error) {
	circle, err := s.owned(ctx, caller, ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	if !in.Name.Set && !in.Description.Set {
		return nil, invalidArgument("no updatable fields provided")
	}
	if in.Name.Set {
		if in.Name.Value == nil {
			return nil, invalidArgument("name is required")
		}
		name := validation.NormalizeText(*in.Name.Value)
		err = validation.RequireText("name", name, maxCircleName)
		if err != nil {
			return nil, invalidArgument("%s", err.Error())
		}
		circle.Name = name
	}
	if in.Description.Set {
		circle.Description, err = optionalText("description", in.Description.Value, maxCircleDescription)
		if err != nil {
			return nil, err
		}
	}

	err = s.circleRepository.Update(ctx, circle)
	if errors.Is(err, repository.ErrCircleNotFound) {
		return nil, notFound("circle")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update circle: %w", err)
	}

	return s.view(ctx, id)
}

// Delete removes the circle together with its memberships and posts.
func (s *CircleService) Delete(ctx context.Context, caller *model.Identity, id string) error {
	circle, err := s.owned(ctx, caller, ActionDelete, id)
	if err != nil {
		return err
	}

	err = s.circleRepository.Delete(ctx, circle.ID, circle.CreatedByID)
	if errors.Is(err, repository.ErrCircleNotFound) {
		return notFound("circle")
	}
	if err != nil {
		return fmt.Errorf("failed to delete circle: %w", err)
	}

	slog.Info("circle deleted", "circle_id", id, "user_id", caller.ID)
	return nil
}

func (s *CircleService) owned(ctx context.Context, caller *model.Identity, action Action, id string) (*model.Circle, error) {
	circle, err := s.circleRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrCircleNotFound) {
		return nil, notFound("circle")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}

	err = s.guard.Authorize(caller, action, Resource{Kind: "circle", OwnerID: circle.CreatedByID}).Err()
	if err != nil {
		return nil, err
	}
	return circle, nil
}

func (s *CircleService) view(ctx context.Context, id string) (*model.CircleView, error) {
	view, err := s.circleRepository.View(ctx, id)
	if errors.Is(err, repository.ErrCircleNotFound) {
		return nil, notFound("circle")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circle: %w", err)
	}
	return view, nil
}

// optionalText trims an optional free-text field. Blank values become nil.
func optionalText(field string, value *string, max int) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > max {
		return nil, invalidArgument("%s is too long (max %d characters)", field, max)
	}
	return &v, nil
}
