package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gradnet/gradnet/internal/markdown"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/validation"
)

const (
	maxUserName   = 100
	maxUserBio    = 500
	maxUserBranch = 100
)

// UpdateUserInput lists the self-editable profile fields. Anything else in the
// request body is ignored.
type UpdateUserInput struct {
	Name           model.Nullable[string] `json:"name"`
	Bio            model.Nullable[string] `json:"bio"`
	ProfilePic     model.Nullable[string] `json:"profilePic"`
	Branch         model.Nullable[string] `json:"branch"`
	GraduationYear model.Nullable[int]    `json:"graduationYear"`
}

func (in UpdateUserInput) empty() bool {
	return !in.Name.Set && !in.Bio.Set && !in.ProfilePic.Set && !in.Branch.Set && !in.GraduationYear.Set
}

type UserService struct {
	userRepository       repository.UserRepository
	collegeRepository    repository.CollegeRepository
	postRepository       repository.PostRepository
	circleRepository     repository.CircleRepository
	experienceRepository repository.ExperienceRepository
	toggles              *ToggleEngine
	guard                *Guard
	renderer             *markdown.Renderer
	emailService         *EmailService
	avatarService        *AvatarService
}

func NewUserService(
	userRepository repository.UserRepository,
	collegeRepository repository.CollegeRepository,
	postRepository repository.PostRepository,
	circleRepository repository.CircleRepository,
	experienceRepository repository.ExperienceRepository,
	toggles *ToggleEngine,
	guard *Guard,
	renderer *markdown.Renderer,
	emailService *EmailService,
	avatarService *AvatarService,
) *UserService {
	return &UserService{
		userRepository:       userRepository,
		collegeRepository:    collegeRepository,
		postRepository:       postRepository,
		circleRepository:     circleRepository,
		experienceRepository: experienceRepository,
		toggles:              toggles,
		guard:                guard,
		renderer:             renderer,
		emailService:         emailService,
		avatarService:        avatarService,
	}
}

// List returns the user directory, optionally restricted to one college.
func (s *UserService) List(ctx context.Context, collegeID string) ([]*model.User, error) {
	users, err := s.userRepository.List(ctx, collegeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Profile returns the full profile aggregate. Only the owner and users from
// the same college may see it.
func (s *UserService) Profile(ctx context.Context, caller *model.Identity, id string) (*model.UserProfile, error) {
	user, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}

	var viewer *model.User
	if caller != nil && caller.ID != id {
		viewer, err = s.userRepository.ByID(ctx, caller.ID)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to get viewer: %w", err)
		}
	}

	decision := s.guard.Authorize(caller, ActionViewProfile, Resource{Kind: "profile", Profile: user, Viewer: viewer})
	if !decision.Allowed {
		return nil, decision.Err()
	}

	profile := &model.UserProfile{
		User:         *user,
		IsOwnProfile: caller.ID == user.ID,
		CanEdit:      caller.ID == user.ID,
	}

	if user.CollegeID != nil {
		profile.College, err = s.collegeRepository.ByID(ctx, *user.CollegeID)
		if err != nil && !errors.Is(err, repository.ErrCollegeNotFound) {
			return nil, fmt.Errorf("failed to get college: %w", err)
		}
	}

	posts, err := s.postRepository.List(ctx, repository.PostFilter{
		UserID:             id,
		IncludeCirclePosts: true,
		Limit:              repository.MaxPostLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	profile.Posts = renderPosts(s.renderer, posts)

	profile.CirclesCreated, err = s.circleRepository.List(ctx, repository.CircleFilter{CreatedByID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list created circles: %w", err)
	}
	profile.CirclesJoined, err = s.circleRepository.List(ctx, repository.CircleFilter{MemberID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to list joined circles: %w", err)
	}

	profile.Experiences, err = s.experienceRepository.ByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}

	counts, err := s.toggles.Counts(ctx, RelationFollow, id)
	if err != nil {
		return nil, err
	}
	profile.FollowersCount = counts[CountFollowers]
	profile.FollowingCount = counts[CountFollowing]

	return profile, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, caller *model.Identity) (*model.User, error) {
	if caller == nil {
		return nil, unauthenticated("authentication required")
	}
	user, err := s.userRepository.ByID(ctx, caller.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, unauthenticated("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, caller *model.Identity, id string, in UpdateUserInput) (*model.User, error) {
	err := s.guard.Authorize(caller, ActionUpdate, Resource{Kind: "profile", OwnerID: id}).Err()
	if err != nil {
		return nil, err
	}

	user, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, invalidArgument("no updatable fields provided")
	}

	if in.Name.Set {
		name := validation.NormalizeText(deref(in.Name.Value))
		err = validation.RequireText("name", name, maxUserName)
		if err != nil {
			return nil, invalidArgument("%s", err.Error())
		}
		user.Name = name
	}
	if in.Bio.Set {
		user.Bio, err = optionalText("bio", in.Bio.Value, maxUserBio)
		if err != nil {
			return nil, err
		}
	}
	if in.Branch.Set {
		user.Branch, err = optionalText("branch", in.Branch.Value, maxUserBranch)
		if err != nil {
			return nil, err
		}
	}
	if in.ProfilePic.Set {
		user.ProfilePic, err = optionalText("profilePic", in.ProfilePic.Value, 2048)
		if err != nil {
			return nil, err
		}
		if user.ProfilePic != nil {
			err = validation.HTTPURL("profilePic", *user.ProfilePic)
			if err != nil {
				return nil, invalidArgument("%s", err.Error())
			}
		}
	}
	if in.GraduationYear.Set {
		if y := in.GraduationYear.Value; y != nil && (*y < 1900 || *y > 2100) {
			return nil, invalidArgument("graduationYear is out of range")
		}
		user.GraduationYear = in.GraduationYear.Value
	}

	err = s.userRepository.UpdateProfile(ctx, user)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("profile updated", "user_id", id)
	return user, nil
}

// Delete removes the account. Posts, experiences, circles and relations go
// with it through cascading foreign keys.
func (s *UserService) Delete(ctx context.Context, caller *model.Identity, id string) error {
	err := s.guard.Authorize(caller, ActionDelete, Resource{Kind: "profile", OwnerID: id}).Err()
	if err != nil {
		return err
	}

	user, err := s.byID(ctx, id)
	if err != nil {
		return err
	}

	err = s.userRepository.Delete(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return notFound("user")
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", id)

	if user.ProfilePic != nil && s.avatarService != nil {
		s.avatarService.Discard(ctx, *user.ProfilePic)
	}

	err = s.emailService.SendAccountDeletedEmail(ctx, user.Email, user.Name)
	if err != nil {
		slog.Warn("failed to send account deleted email", "user_id", id, "error", err)
	}
	return nil
}

func (s *UserService) byID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
