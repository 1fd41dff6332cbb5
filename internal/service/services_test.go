package service

import (
	"testing"

	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/markdown"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/storage"
	"github.com/gradnet/gradnet/internal/testdb"
	"github.com/jmoiron/sqlx"
)

type testServices struct {
	db          *sqlx.DB
	toggles     *ToggleEngine
	posts       *PostService
	circles     *CircleService
	experiences *ExperienceService
	users       *UserService
	avatars     *AvatarService
}

func newTestServices(t *testing.T, policy string, store storage.Storage) *testServices {
	t.Helper()

	database := testdb.New(t)
	userRepo := repository.NewUserRepository(database)
	postRepo := repository.NewPostRepository(database)
	circleRepo := repository.NewCircleRepository(database)
	relationRepo := repository.NewRelationRepository(database)
	experienceRepo := repository.NewExperienceRepository(database)

	guard := NewGuard(policy)
	renderer := markdown.NewRenderer()
	toggles := NewToggleEngine(relationRepo, userRepo, postRepo, circleRepo)
	avatars := NewAvatarService(userRepo, store, guard)
	email := NewEmailService("", "noreply@gradnet.local", "http://localhost", "GradNet", true)

	return &testServices{
		db:          database,
		toggles:     toggles,
		posts:       NewPostService(postRepo, circleRepo, relationRepo, guard, renderer),
		circles:     NewCircleService(database, circleRepo, userRepo, postRepo, guard, renderer),
		experiences: NewExperienceService(experienceRepo, userRepo, guard),
		users: NewUserService(userRepo, repository.NewCollegeRepository(database), postRepo, circleRepo,
			experienceRepo, toggles, guard, renderer, email, avatars),
		avatars: avatars,
	}
}

func newServices(t *testing.T) *testServices {
	return newTestServices(t, config.CirclePostMember, nil)
}

func identity(id string) *model.Identity {
	return &model.Identity{ID: id, Email: id + "@example.com"}
}

func ptr[T any](v T) *T {
	return &v
}
