package handler

import (
	"net/http"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	tokens      *service.TokenService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		tokens:      tokens,
	}
}

type sessionResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := h.authService.Signup(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.tokens.SetCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "user created successfully",
		Token:   session.Token,
		User:    session.User,
	})
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var in service.SigninInput
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := h.authService.Signin(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.tokens.SetCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "signed in",
		Token:   session.Token,
		User:    session.User,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller identity, or the full account with ?full=true.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	if r.URL.Query().Get("full") != "true" {
		writeJSON(w, http.StatusOK, caller)
		return
	}

	user, err := h.userService.Me(r.Context(), caller)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
