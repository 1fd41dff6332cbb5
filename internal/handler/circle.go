package handler

import (
	"net/http"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/service"
)

type CircleHandler struct {
	circleService *service.CircleService
}

func NewCircleHandler(circleService *service.CircleService) *CircleHandler {
	return &CircleHandler{circleService: circleService}
}

// List filters by collegeId, creator (userId) and member (memberId).
func (h *CircleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	circles, err := h.circleService.List(r.Context(), repository.CircleFilter{
		CollegeID:   q.Get("collegeId"),
		CreatedByID: q.Get("userId"),
		MemberID:    q.Get("memberId"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, circles)
}

func (h *CircleHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.CreateCircleInput
	if !decodeJSON(w, r, &in) {
		return
	}

	circle, err := h.circleService.Create(r.Context(), caller, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, circle)
}

func (h *CircleHandler) Get(w http.ResponseWriter, r *http.Request) {
	circle, err := h.circleService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, circle)
}

func (h *CircleHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.UpdateCircleInput
	if !decodeJSON(w, r, &in) {
		return
	}

	circle, err := h.circleService.Update(r.Context(), caller, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, circle)
}

func (h *CircleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	err := h.circleService.Delete(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "circle deleted successfully"})
}
