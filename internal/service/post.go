package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/markdown"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/validation"
)

const maxPostContent = 10000

type CreatePostInput struct {
	Content  string  `json:"content" validate:"required,max=10000"`
	CircleID *string `json:"circleId"`
}

type UpdatePostInput struct {
	Content *string `json:"content"`
}

type PostService struct {
	postRepository     repository.PostRepository
	circleRepository   repository.CircleRepository
	relationRepository repository.RelationRepository
	guard              *Guard
	renderer           *markdown.Renderer
}

func NewPostService(
	postRepository repository.PostRepository,
	circleRepository repository.CircleRepository,
	relationRepository repository.RelationRepository,
	guard *Guard,
	renderer *markdown.Renderer,
) *PostService {
	return &PostService{
		postRepository:     postRepository,
		circleRepository:   circleRepository,
		relationRepository: relationRepository,
		guard:              guard,
		renderer:           renderer,
	}
}

func (s *PostService) List(ctx context.Context, filter repository.PostFilter) ([]model.PostView, error) {
	if filter.SortBy != "" && filter.SortBy != repository.PostSortRecent && filter.SortBy != repository.PostSortLikes {
		return nil, invalidArgument("sortBy must be one of: recent, likes")
	}
	if filter.Limit < 0 {
		return nil, invalidArgument("limit must be positive")
	}

	posts, err := s.postRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return renderPosts(s.renderer, posts), nil
}

// CirclePosts lists the posts scoped to one circle, newest first.
func (s *PostService) CirclePosts(ctx context.Context, circleID string) ([]model.PostView, error) {
	ok, err := s.circleRepository.Exists(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check circle: %w", err)
	}
	if !ok {
		return nil, notFound("circle")
	}
	return s.List(ctx, repository.PostFilter{CircleID: circleID, Limit: repository.MaxPostLimit})
}

func (s *PostService) Create(ctx context.Context, caller *model.Identity, in CreatePostInput) (*model.PostView, error) {
	if caller == nil {
		return nil, unauthenticated("authentication required")
	}

	in.Content = strings.TrimSpace(in.Content)
	err := validation.Struct(in)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}
	content := in.Content

	var circleID *string
	if in.CircleID != nil && strings.TrimSpace(*in.CircleID) != "" {
		id := strings.TrimSpace(*in.CircleID)
		err = s.authorizeCirclePost(ctx, caller, id)
		if err != nil {
			return nil, err
		}
		circleID = &id
	}

	now := time.Now().UTC()
	post := &model.Post{
		ID:        uuid.NewString(),
		UserID:    caller.ID,
		CircleID:  circleID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.postRepository.Create(ctx, post)
	if errors.Is(err, repository.ErrPostParentMissing) {
		if circleID != nil {
			return nil, notFound("circle")
		}
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created", "post_id", post.ID, "user_id", caller.ID, "circle_id", circleID)
	return s.view(ctx, post.ID)
}

// CreateInCircle posts into a circle, subject to the configured circle posting policy.
func (s *PostService) CreateInCircle(ctx context.Context, caller *model.Identity, circleID string, content string) (*model.PostView, error) {
	return s.Create(ctx, caller, CreatePostInput{Content: content, CircleID: &circleID})
}

func (s *PostService) authorizeCirclePost(ctx context.Context, caller *model.Identity, circleID string) error {
	circle, err := s.circleRepository.ByID(ctx, circleID)
	if errors.Is(err, repository.ErrCircleNotFound) {
		return notFound("circle")
	}
	if err != nil {
		return fmt.Errorf("failed to get circle: %w", err)
	}

	isMember, err := s.relationRepository.Exists(ctx, repository.MembershipRelation, caller.ID, circle.ID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	return s.guard.Authorize(caller, ActionPostInCircle, Resource{
		Kind:           "circle",
		OwnerID:        circle.CreatedByID,
		CallerIsMember: isMember,
	}).Err()
}

// Get returns the post with its comments, likers and media.
func (s *PostService) Get(ctx context.Context, id string) (*model.PostDetail, error) {
	view, err := s.view(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.postRepository.Comments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	likes, err := s.postRepository.Likers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get likes: %w", err)
	}
	media, err := s.postRepository.Media(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}

	return &model.PostDetail{
		PostView: *view,
		Comments: comments,
		Likes:    likes,
		Media:    media,
	}, nil
}

func (s *PostService) Update(ctx context.Context, caller *model.Identity, id string, in UpdatePostInput) (*model.PostView, error) {
	post, err := s.owned(ctx, caller, ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	if in.Content == nil {
		return nil, invalidArgument("no updatable fields provided")
	}
	content := strings.TrimSpace(*in.Content)
	err = validation.RequireText("content", content, maxPostContent)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}

	post.Content = content
	err = s.postRepository.UpdateContent(ctx, post)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, notFound("post")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return s.view(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, caller *model.Identity, id string) error {
	post, err := s.owned(ctx, caller, ActionDelete, id)
	if err != nil {
		return err
	}

	err = s.postRepository.Delete(ctx, post.ID, post.UserID)
	if errors.Is(err, repository.ErrPostNotFound) {
		return notFound("post")
	}
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	slog.Info("post deleted", "post_id", id, "user_id", caller.ID)
	return nil
}

// owned loads a post and asks the guard whether caller may act on it.
func (s *PostService) owned(ctx context.Context, caller *model.Identity, action Action, id string) (*model.Post, error) {
	post, err := s.postRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, notFound("post")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	err = s.guard.Authorize(caller, action, Resource{Kind: "post", OwnerID: post.UserID}).Err()
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) view(ctx context.Context, id string) (*model.PostView, error) {
	view, err := s.postRepository.View(ctx, id)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, notFound("post")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	view.ContentHTML = s.renderer.Render(view.Content)
	return view, nil
}

func renderPosts(r *markdown.Renderer, posts []model.PostView) []model.PostView {
	for i := range posts {
		posts[i].ContentHTML = r.Render(posts[i].Content)
	}
	return posts
}
