package handler

import (
	"errors"
	"net/http"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/service"
	"github.com/gradnet/gradnet/internal/validation"
)

type UserHandler struct {
	userService   *service.UserService
	avatarService *service.AvatarService
	tokens        *service.TokenService
}

func NewUserHandler(userService *service.UserService, avatarService *service.AvatarService, tokens *service.TokenService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
		tokens:        tokens,
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), r.URL.Query().Get("collegeId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	profile, err := h.userService.Profile(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.UpdateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.userService.Update(r.Context(), caller, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes the caller's account and ends the cookie session.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	err := h.userService.Delete(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.tokens.ClearCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted successfully"})
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	// Form overhead on top of the largest accepted image
	r.Body = http.MaxBytesReader(w, r.Body, validation.ImageConstraints.MaxSize+(1<<20))
	err := r.ParseMultipartForm(validation.ImageConstraints.MaxSize)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	file.Close()

	user, err := h.avatarService.Upload(r.Context(), caller, r.PathValue("id"), header)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
