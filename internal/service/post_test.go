package service

import (
	"context"
	"strings"
	"testing"

	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	author := testdb.User(t, s.db, "Ada", "")

	_, err := s.posts.Create(ctx, identity(author), CreatePostInput{Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.EqualError(t, err, "content is required")

	_, err = s.posts.Create(ctx, identity(author), CreatePostInput{Content: strings.Repeat("ü", maxPostContent+1)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.EqualError(t, err, "content is too long (max 10000 characters)")

	// Trailing whitespace does not count towards the limit
	_, err = s.posts.Create(ctx, identity(author), CreatePostInput{Content: strings.Repeat("ü", maxPostContent) + "  \n"})
	require.NoError(t, err)

	post, err := s.posts.Create(ctx, identity(author), CreatePostInput{Content: "  **hello** world  "})
	require.NoError(t, err)
	assert.Equal(t, "**hello** world", post.Content)
	assert.Contains(t, post.ContentHTML, "<strong>hello</strong>")
	assert.Equal(t, "Ada", post.Author.Name)
	assert.Nil(t, post.Circle)

	fan := testdb.User(t, s.db, "Fan", "")
	testdb.Comment(t, s.db, post.ID, fan, "nice")
	testdb.Media(t, s.db, post.ID, "https://cdn.example.com/a.png")
	_, err = s.toggles.Toggle(ctx, RelationLike, fan, post.ID)
	require.NoError(t, err)

	detail, err := s.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.LikesCount)
	assert.Equal(t, 1, detail.CommentsCount)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Fan", detail.Comments[0].Author.Name)
	require.Len(t, detail.Likes, 1)
	assert.Equal(t, fan, detail.Likes[0].ID)
	assert.Len(t, detail.Media, 1)

	_, err = s.posts.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	owner := testdb.User(t, s.db, "Owner", "")
	intruder := testdb.User(t, s.db, "Intruder", "")
	postID := testdb.Post(t, s.db, owner, "", "original")

	_, err := s.posts.Update(ctx, identity(intruder), postID, UpdatePostInput{Content: ptr("hacked")})
	assert.ErrorIs(t, err, ErrForbidden)

	err = s.posts.Delete(ctx, identity(intruder), postID)
	assert.ErrorIs(t, err, ErrForbidden)

	post, err := s.posts.Get(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "original", post.Content)

	t.Run("owner may edit and delete", func(t *testing.T) {
		_, err := s.posts.Update(ctx, identity(owner), postID, UpdatePostInput{})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		updated, err := s.posts.Update(ctx, identity(owner), postID, UpdatePostInput{Content: ptr("edited")})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Content)

		require.NoError(t, s.posts.Delete(ctx, identity(owner), postID))
		_, err = s.posts.Get(ctx, postID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		err := s.posts.Delete(ctx, identity(owner), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostInCircleMemberPolicy(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	owner := testdb.User(t, s.db, "Owner", "")
	outsider := testdb.User(t, s.db, "Outsider", "")

	circle, err := s.circles.Create(ctx, identity(owner), CreateCircleInput{Name: "Robotics"})
	require.NoError(t, err)

	_, err = s.posts.CreateInCircle(ctx, identity(outsider), circle.ID, "let me in")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.toggles.Toggle(ctx, RelationMembership, outsider, circle.ID)
	require.NoError(t, err)

	post, err := s.posts.CreateInCircle(ctx, identity(outsider), circle.ID, "thanks for having me")
	require.NoError(t, err)
	require.NotNil(t, post.Circle)
	assert.Equal(t, "Robotics", post.Circle.Name)

	_, err = s.posts.CreateInCircle(ctx, identity(owner), circle.ID, "welcome")
	require.NoError(t, err)

	posts, err := s.posts.CirclePosts(ctx, circle.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	_, err = s.posts.CreateInCircle(ctx, identity(owner), "missing", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.posts.CirclePosts(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostInCircleOwnerPolicy(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, config.CirclePostOwner, nil)
	owner := testdb.User(t, s.db, "Owner", "")
	member := testdb.User(t, s.db, "Member", "")

	circle, err := s.circles.Create(ctx, identity(owner), CreateCircleInput{Name: "Announcements"})
	require.NoError(t, err)
	_, err = s.toggles.Toggle(ctx, RelationMembership, member, circle.ID)
	require.NoError(t, err)

	_, err = s.posts.Create(ctx, identity(member), CreatePostInput{Content: "hi", CircleID: &circle.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.posts.Create(ctx, identity(owner), CreatePostInput{Content: "news", CircleID: &circle.ID})
	assert.NoError(t, err)
}

func TestPostList(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	college := testdb.College(t, s.db, "IIT Delhi")
	ada := testdb.User(t, s.db, "Ada", college)
	bob := testdb.User(t, s.db, "Bob", "")
	circle := testdb.Circle(t, s.db, ada, "Chess")

	testdb.Post(t, s.db, ada, "", "first")
	popular := testdb.Post(t, s.db, bob, "", "second")
	testdb.Post(t, s.db, ada, circle, "in circle")
	_, err := s.toggles.Toggle(ctx, RelationLike, ada, popular)
	require.NoError(t, err)

	feed, err := s.posts.List(ctx, repository.PostFilter{})
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	all, err := s.posts.List(ctx, repository.PostFilter{IncludeCirclePosts: true, SortBy: repository.PostSortLikes})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, popular, all[0].ID)
	assert.NotEmpty(t, all[0].ContentHTML)

	byCollege, err := s.posts.List(ctx, repository.PostFilter{CollegeID: college})
	require.NoError(t, err)
	assert.Len(t, byCollege, 1)

	_, err = s.posts.List(ctx, repository.PostFilter{SortBy: "random"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
