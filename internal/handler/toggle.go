package handler

import (
	"net/http"

	"github.com/gradnet/gradnet/internal/ctxkeys"
	"github.com/gradnet/gradnet/internal/service"
)

// ToggleHandler serves the like, follow and join endpoints. GET reports the
// caller's current state, POST flips it.
type ToggleHandler struct {
	toggles *service.ToggleEngine
}

func NewToggleHandler(toggles *service.ToggleEngine) *ToggleHandler {
	return &ToggleHandler{toggles: toggles}
}

func (h *ToggleHandler) LikeState(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.RelationLike, "liked", false)
}

func (h *ToggleHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.RelationLike, "liked", true)
}

func (h *ToggleHandler) FollowState(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.RelationFollow, "isFollowing", false)
}

func (h *ToggleHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.RelationFollow, "isFollowing", true)
}

func (h *ToggleHandler) JoinState(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.RelationMembership, "isMember", false)
}

func (h *ToggleHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, service.RelationMembership, "isMember", true)
}

func (h *ToggleHandler) serve(w http.ResponseWriter, r *http.Request, kind service.RelationKind, activeKey string, flip bool) {
	caller := ctxkeys.Identity(r.Context())
	objectID := r.PathValue("id")

	var (
		result *service.ToggleResult
		err    error
	)
	if flip {
		result, err = h.toggles.Toggle(r.Context(), kind, caller.ID, objectID)
	} else {
		result, err = h.toggles.State(r.Context(), kind, caller.ID, objectID)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := make(map[string]any, len(result.Counts)+1)
	body[activeKey] = result.Active
	for key, n := range result.Counts {
		body[key] = n
	}
	writeJSON(w, http.StatusOK, body)
}
