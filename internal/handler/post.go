package handler

import (
	"net/http"
	"strconv"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// List serves the feed. Circle posts are left out unless includeCirclePosts=true
// or a circleId is given.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.PostFilter{
		UserID:             q.Get("userId"),
		CircleID:           q.Get("circleId"),
		CollegeID:          q.Get("collegeId"),
		IncludeCirclePosts: q.Get("includeCirclePosts") == "true",
		SortBy:             q.Get("sortBy"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		filter.Limit = limit
	}

	posts, err := h.postService.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.CreatePostInput
	if !decodeJSON(w, r, &in) {
		return
	}

	post, err := h.postService.Create(r.Context(), caller, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.UpdatePostInput
	if !decodeJSON(w, r, &in) {
		return
	}

	post, err := h.postService.Update(r.Context(), caller, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	err := h.postService.Delete(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "post deleted successfully"})
}

func (h *PostHandler) CirclePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.CirclePosts(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) CreateInCircle(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	post, err := h.postService.CreateInCircle(r.Context(), caller, r.PathValue("id"), in.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}
