package handler

import (
	"net/http"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/service"
)

type ExperienceHandler struct {
	experienceService *service.ExperienceService
}

func NewExperienceHandler(experienceService *service.ExperienceService) *ExperienceHandler {
	return &ExperienceHandler{experienceService: experienceService}
}

func (h *ExperienceHandler) List(w http.ResponseWriter, r *http.Request) {
	experiences, err := h.experienceService.List(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experiences)
}

func (h *ExperienceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.ExperienceInput
	if !decodeJSON(w, r, &in) {
		return
	}

	exp, err := h.experienceService.Create(r.Context(), caller, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (h *ExperienceHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	var in service.UpdateExperienceInput
	if !decodeJSON(w, r, &in) {
		return
	}

	exp, err := h.experienceService.Update(r.Context(), caller, r.PathValue("id"), r.PathValue("expId"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *ExperienceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := ctxkeys.Identity(r.Context())

	err := h.experienceService.Delete(r.Context(), caller, r.PathValue("id"), r.PathValue("expId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "experience deleted successfully"})
}
