package routes

import (
	"net/http"

	"github.com/gradnet/gradnet/internal/app"
	"github.com/gradnet/gradnet/internal/handler"
	"github.com/gradnet/gradnet/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.UserService, app.Tokens)
	users := handler.NewUserHandler(app.UserService, app.AvatarService, app.Tokens)
	experiences := handler.NewExperienceHandler(app.ExperienceService)
	posts := handler.NewPostHandler(app.PostService)
	circles := handler.NewCircleHandler(app.CircleService)
	toggles := handler.NewToggleHandler(app.Toggles)

	mux := http.NewServeMux()

	// ============================================================================
	// HEALTH
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /ready", health.Ready)

	// ============================================================================
	// AUTH
	// ============================================================================

	signupLimit := middleware.RateLimit(app.AuthLimiter, "signup")
	signinLimit := middleware.RateLimit(app.AuthLimiter, "signin")

	mux.HandleFunc("POST /signup", signupLimit(auth.Signup))
	mux.HandleFunc("POST /signin", signinLimit(auth.Signin))
	mux.HandleFunc("POST /logout", auth.Logout)

	// ============================================================================
	// USERS
	// ============================================================================

	mux.HandleFunc("GET /users", users.List)
	mux.HandleFunc("GET /users/me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("GET /users/{id}", middleware.RequireAuth(users.Profile))
	mux.HandleFunc("PATCH /users/{id}", middleware.RequireAuth(users.Update))
	mux.HandleFunc("DELETE /users/{id}", middleware.RequireAuth(users.Delete))
	mux.HandleFunc("POST /users/{id}/avatar", middleware.RequireAuth(users.UploadAvatar))

	mux.HandleFunc("GET /users/{id}/follow", middleware.RequireAuth(toggles.FollowState))
	mux.HandleFunc("POST /users/{id}/follow", middleware.RequireAuth(toggles.Follow))

	mux.HandleFunc("GET /users/{id}/experiences", experiences.List)
	mux.HandleFunc("POST /users/{id}/experiences", middleware.RequireAuth(experiences.Create))
	mux.HandleFunc("PATCH /users/{id}/experiences/{expId}", middleware.RequireAuth(experiences.Update))
	mux.HandleFunc("DELETE /users/{id}/experiences/{expId}", middleware.RequireAuth(experiences.Delete))

	// ============================================================================
	// POSTS
	// ============================================================================

	mux.HandleFunc("GET /posts", posts.List)
	mux.HandleFunc("POST /posts", middleware.RequireAuth(posts.Create))
	mux.HandleFunc("GET /posts/{id}", posts.Get)
	mux.HandleFunc("PATCH /posts/{id}", middleware.RequireAuth(posts.Update))
	mux.HandleFunc("DELETE /posts/{id}", middleware.RequireAuth(posts.Delete))

	mux.HandleFunc("GET /posts/{id}/like", middleware.RequireAuth(toggles.LikeState))
	mux.HandleFunc("POST /posts/{id}/like", middleware.RequireAuth(toggles.Like))

	// ============================================================================
	// CIRCLES
	// ============================================================================

	mux.HandleFunc("GET /circles", circles.List)
	mux.HandleFunc("POST /circles", middleware.RequireAuth(circles.Create))
	mux.HandleFunc("GET /circles/{id}", circles.Get)
	mux.HandleFunc("PATCH /circles/{id}", middleware.RequireAuth(circles.Update))
	mux.HandleFunc("DELETE /circles/{id}", middleware.RequireAuth(circles.Delete))

	mux.HandleFunc("GET /circles/{id}/join", middleware.RequireAuth(toggles.JoinState))
	mux.HandleFunc("POST /circles/{id}/join", middleware.RequireAuth(toggles.Join))

	mux.HandleFunc("GET /circles/{id}/posts", posts.CirclePosts)
	mux.HandleFunc("POST /circles/{id}/posts", middleware.RequireAuth(posts.CreateInCircle))

	// Auth runs before logging so requests are logged with the caller
	return middleware.Chain(mux,
		middleware.Config(app.Cfg),
		middleware.AuthMiddleware(app.Tokens),
		middleware.RequestLogging,
		middleware.CSRFProtection,
	)
}
