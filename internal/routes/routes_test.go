package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/app"
	"github.com/gradnet/gradnet/internal/config"
	"github.com/gradnet/gradnet/internal/middleware"
	"github.com/gradnet/gradnet/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, mutate ...func(*config.Config)) http.Handler {
	t.Helper()

	cfg := &config.Config{
		AppName:          "GradNet",
		AppEnv:           "development",
		AppURL:           "http://localhost:8090",
		Port:             "8090",
		DBDriver:         "sqlite",
		DBConnection:     filepath.Join(t.TempDir(), "gradnet.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		CirclePostPolicy: config.CirclePostMember,
		RateLimitAuth:    100,
		RateLimitWindow:  time.Minute,
		EmailFrom:        "noreply@gradnet.local",
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return SetupRoutes(a)
}

// send issues a JSON request, authenticated with a bearer token when token is set.
func send(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type account struct {
	ID    string
	Token string
}

func signup(t *testing.T, h http.Handler, name, email, college string) account {
	t.Helper()

	rec := send(t, h, http.MethodPost, "/signup", "", map[string]any{
		"name":        name,
		"email":       email,
		"password":    "correct-horse-battery",
		"collegeName": college,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, rec)
	return account{ID: resp.User.ID, Token: resp.Token}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	h := newServer(t)

	rec := send(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = send(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestSignupAndSignin(t *testing.T) {
	h := newServer(t)

	body := map[string]any{
		"name":        "Alice",
		"email":       "Alice@Example.com",
		"password":    "correct-horse-battery",
		"collegeName": "State University",
	}
	rec := send(t, h, http.MethodPost, "/signup", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := cookie(rec, service.SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := send(t, h, http.MethodPost, "/signup", "", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		rec := send(t, h, http.MethodPost, "/signup", "", map[string]any{
			"name": "Bob", "email": "bob@example.com", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid JSON body", errorMessage(t, rec))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := send(t, h, http.MethodPost, "/signin", "", map[string]any{
			"email": "alice@example.com", "password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", errorMessage(t, rec))
	})

	t.Run("signin then me", func(t *testing.T) {
		rec := send(t, h, http.MethodPost, "/signin", "", map[string]any{
			"email": "alice@example.com", "password": "correct-horse-battery",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		token := decode[map[string]any](t, rec)["token"].(string)

		rec = send(t, h, http.MethodGet, "/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		me := decode[map[string]string](t, rec)
		assert.Equal(t, "alice@example.com", me["email"])
		assert.NotEmpty(t, me["id"])
	})

	t.Run("me without credential", func(t *testing.T) {
		rec := send(t, h, http.MethodGet, "/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		rec := send(t, h, http.MethodPost, "/logout", "", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		cleared := cookie(rec, service.SessionCookieName)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	})
}

func TestPostOwnership(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")

	rec := send(t, h, http.MethodPost, "/posts", alice.Token, map[string]any{"content": "Hello **world**"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[map[string]any](t, rec)
	postID := post["id"].(string)
	assert.Contains(t, post["contentHtml"], "<strong>world</strong>")

	rec = send(t, h, http.MethodPatch, "/posts/"+postID, bob.Token, map[string]any{"content": "hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodDelete, "/posts/"+postID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodGet, "/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello **world**", decode[map[string]any](t, rec)["content"])

	rec = send(t, h, http.MethodPatch, "/posts/"+postID, alice.Token, map[string]any{"content": "edited"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited", decode[map[string]any](t, rec)["content"])

	rec = send(t, h, http.MethodDelete, "/posts/"+postID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, h, http.MethodGet, "/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "post not found", errorMessage(t, rec))

	rec = send(t, h, http.MethodPost, "/posts", "", map[string]any{"content": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostListQuery(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")

	for _, content := range []string{"one", "two", "three"} {
		rec := send(t, h, http.MethodPost, "/posts", alice.Token, map[string]any{"content": content})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := send(t, h, http.MethodGet, "/posts?userId="+alice.ID+"&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = send(t, h, http.MethodGet, "/posts?sortBy=oldest", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodGet, "/posts?limit=ten", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLikeToggle(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")

	rec := send(t, h, http.MethodPost, "/posts", alice.Token, map[string]any{"content": "like me"})
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/posts/" + decode[map[string]any](t, rec)["id"].(string) + "/like"

	steps := []struct {
		who       account
		method    string
		wantLiked bool
		wantCount int
	}{
		{bob, http.MethodPost, true, 1},
		{alice, http.MethodPost, true, 2},
		{bob, http.MethodPost, false, 1},
		{bob, http.MethodGet, false, 1},
		{alice, http.MethodGet, true, 1},
	}
	for _, step := range steps {
		rec := send(t, h, step.method, path, step.who.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[struct {
			Liked      bool `json:"liked"`
			LikesCount int  `json:"likesCount"`
		}](t, rec)
		assert.Equal(t, step.wantLiked, got.Liked)
		assert.Equal(t, step.wantCount, got.LikesCount)
	}

	rec = send(t, h, http.MethodPost, "/posts/"+uuid.NewString()+"/like", bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(t, h, http.MethodPost, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFollow(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")

	rec := send(t, h, http.MethodPost, "/users/"+alice.ID+"/follow", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot follow yourself", errorMessage(t, rec))

	rec = send(t, h, http.MethodPost, "/users/"+alice.ID+"/follow", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isFollowing":true,"followersCount":1,"followingCount":0}`, rec.Body.String())

	rec = send(t, h, http.MethodGet, "/users/"+bob.ID+"/follow", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isFollowing":false,"followersCount":0,"followingCount":1}`, rec.Body.String())
}

func TestProfileVisibility(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")
	carol := signup(t, h, "Carol", "carol@example.com", "City College")

	rec := send(t, h, http.MethodGet, "/users/"+alice.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, false, profile["isOwnProfile"])
	assert.Equal(t, false, profile["canEdit"])
	assert.NotContains(t, profile, "passwordHash")

	rec = send(t, h, http.MethodGet, "/users/"+alice.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["canEdit"])

	rec = send(t, h, http.MethodGet, "/users/"+alice.ID, carol.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, errorMessage(t, rec), service.ReasonAccessDenied)

	rec = send(t, h, http.MethodGet, "/users/"+uuid.NewString(), alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(t, h, http.MethodGet, "/users/"+alice.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserUpdateAndDelete(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")

	rec := send(t, h, http.MethodPatch, "/users/"+alice.ID, bob.Token, map[string]any{"bio": "pwned"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodPatch, "/users/"+alice.ID, alice.Token, map[string]any{"bio": "Hi there", "graduationYear": 2024})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]any](t, rec)
	assert.Equal(t, "Hi there", updated["bio"])
	assert.EqualValues(t, 2024, updated["graduationYear"])

	rec = send(t, h, http.MethodPatch, "/users/"+alice.ID, alice.Token, map[string]any{"bio": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[map[string]any](t, rec)["bio"])

	rec = send(t, h, http.MethodDelete, "/users/"+alice.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodDelete, "/users/"+alice.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, h, http.MethodGet, "/users/"+alice.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCircleFlow(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")

	rec := send(t, h, http.MethodPost, "/circles", alice.Token, map[string]any{"name": "Go Club", "description": "gophers"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	circle := decode[map[string]any](t, rec)
	circleID := circle["id"].(string)
	assert.EqualValues(t, 1, circle["memberCount"])

	rec = send(t, h, http.MethodPost, "/circles/"+circleID+"/posts", bob.Token, map[string]any{"content": "hi all"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodPost, "/circles/"+circleID+"/join", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isMember":true,"memberCount":2}`, rec.Body.String())

	rec = send(t, h, http.MethodPost, "/circles/"+circleID+"/posts", bob.Token, map[string]any{"content": "hi all"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodGet, "/circles/"+circleID+"/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	// Circle posts stay out of the main feed by default
	rec = send(t, h, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]any](t, rec))

	rec = send(t, h, http.MethodGet, "/circles/"+circleID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[struct {
		Members []map[string]any `json:"members"`
		Posts   []map[string]any `json:"posts"`
	}](t, rec)
	assert.Len(t, detail.Members, 2)
	assert.Len(t, detail.Posts, 1)

	rec = send(t, h, http.MethodPatch, "/circles/"+circleID, bob.Token, map[string]any{"name": "Bob's Club"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodDelete, "/circles/"+circleID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, h, http.MethodGet, "/circles/"+circleID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExperienceRoutes(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")
	bob := signup(t, h, "Bob", "bob@example.com", "State University")
	base := "/users/" + alice.ID + "/experiences"

	rec := send(t, h, http.MethodPost, base, alice.Token, map[string]any{
		"title": "Engineer", "company": "Acme", "startDate": "2020-01-01", "endDate": "2021-01-01", "isCurrent": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodPost, base, alice.Token, map[string]any{"title": "Engineer", "startDate": "2020-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "company is required", errorMessage(t, rec))

	rec = send(t, h, http.MethodPost, base, bob.Token, map[string]any{"title": "Engineer", "company": "Acme", "startDate": "2020-01-01"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodPost, base, alice.Token, map[string]any{
		"title": "Engineer", "company": "Acme", "startDate": "2020-01-01", "isCurrent": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	expID := decode[map[string]any](t, rec)["id"].(string)

	rec = send(t, h, http.MethodPatch, base+"/"+expID, alice.Token, map[string]any{"endDate": "2022-06-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(t, h, http.MethodPatch, base+"/"+expID, alice.Token, map[string]any{"endDate": "2022-06-30", "isCurrent": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = send(t, h, http.MethodDelete, base+"/"+expID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodDelete, base+"/"+expID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAvatarUploadWithoutStorage(t *testing.T) {
	h := newServer(t)
	alice := signup(t, h, "Alice", "alice@example.com", "State University")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/"+alice.ID+"/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCookieSessionNeedsCSRFToken(t *testing.T) {
	h := newServer(t)

	rec := send(t, h, http.MethodPost, "/signup", "", map[string]any{
		"name": "Alice", "email": "alice@example.com", "password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	session := cookie(rec, service.SessionCookieName)
	csrf := cookie(rec, "csrf_token")
	require.NotNil(t, session)
	require.NotNil(t, csrf)
	assert.Equal(t, csrf.Value, rec.Header().Get(middleware.CSRFHeader))

	post := func(header string) int {
		req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewBufferString(`{"content":"via cookie"}`))
		req.AddCookie(session)
		req.AddCookie(csrf)
		if header != "" {
			req.Header.Set(middleware.CSRFHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(""))
	assert.Equal(t, http.StatusCreated, post(csrf.Value))
}

func TestSigninRateLimited(t *testing.T) {
	h := newServer(t, func(cfg *config.Config) {
		cfg.RateLimitAuth = 2
	})

	body := map[string]any{"email": "nobody@example.com", "password": "whatever-it-is"}
	for i := 0; i < 2; i++ {
		rec := send(t, h, http.MethodPost, "/signin", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := send(t, h, http.MethodPost, "/signin", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Signup has its own counter
	rec = send(t, h, http.MethodPost, "/signup", "", map[string]any{
		"name": "Alice", "email": "alice@example.com", "password": "correct-horse-battery",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}
