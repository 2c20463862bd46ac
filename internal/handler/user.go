package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/service"
)

// UserHandler serves public profiles and the follow graph.
type UserHandler struct {
	authSvc *service.AuthService
	follows *service.FollowService
	logger  *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(authSvc *service.AuthService, follows *service.FollowService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		authSvc: authSvc,
		follows: follows,
		logger:  logger,
	}
}

// HandleGet returns a user's public profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// HandleFollowers returns the users following {id}.
//
// HTTP: GET /api/users/{id}/followers
func (h *UserHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	followers, err := h.follows.Followers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"followers": followers})
}

// HandleFollowing returns the users {id} follows.
//
// HTTP: GET /api/users/{id}/following
func (h *UserHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.follows.Following(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"following": following})
}

// HandleFollowStatus reports whether the viewer follows {id}.
//
// HTTP: GET /api/users/{id}/follow
// Auth: required
func (h *UserHandler) HandleFollowStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	isFollowing, err := h.follows.IsFollowing(r.Context(), session.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isFollowing": isFollowing})
}

// HandleFollowAction follows or unfollows {id} on the viewer's behalf.
//
// HTTP: POST /api/users/{id}/follow
// BODY: {"action": "follow"} or {"action": "unfollow"}
// Auth: required
func (h *UserHandler) HandleFollowAction(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	targetID := r.PathValue("id")

	var in struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	switch in.Action {
	case "follow":
		if err := h.follows.Follow(r.Context(), session.UserID, targetID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "followed"})
	case "unfollow":
		if err := h.follows.Unfollow(r.Context(), session.UserID, targetID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "unfollowed"})
	default:
		writeError(w, apperror.ValidationFailed("action", `action must be "follow" or "unfollow"`))
	}
}
