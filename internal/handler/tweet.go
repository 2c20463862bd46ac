package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/service"
)

// TweetHandler manages tweets, likes, and replies.
type TweetHandler struct {
	tweets *service.TweetService
	logger *slog.Logger
}

// NewTweetHandler creates a TweetHandler.
func NewTweetHandler(tweets *service.TweetService, logger *slog.Logger) *TweetHandler {
	return &TweetHandler{tweets: tweets, logger: logger}
}

// viewerID returns the authenticated user's ID, or "" for anonymous
// requests. Routes behind OptionalAuth use this for the isLiked flag.
func viewerID(r *http.Request) string {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return ""
	}
	return session.UserID
}

// HandleFeed returns the timeline, newest first.
//
// HTTP: GET /api/tweets            → everyone's tweets
// HTTP: GET /api/tweets?userId=xyz → one author's tweets
// Auth: optional (anonymous viewers get isLiked=false)
func (h *TweetHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	viewer := viewerID(r)

	if userID := r.URL.Query().Get("userId"); userID != "" {
		feed, err := h.tweets.FeedByUser(r.Context(), viewer, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feed)
		return
	}

	feed, err := h.tweets.Feed(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleFollowingFeed returns tweets by the viewer and everyone they follow.
//
// HTTP: GET /api/tweets/following
// Auth: required
func (h *TweetHandler) HandleFollowingFeed(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	feed, err := h.tweets.FollowingFeed(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleRecommendedFeed returns the last week's tweets ranked by likes.
//
// HTTP: GET /api/tweets/recommended
// Auth: required
func (h *TweetHandler) HandleRecommendedFeed(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	feed, err := h.tweets.RecommendedFeed(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleCreate posts a new tweet.
//
// HTTP: POST /api/tweets
// BODY: {"content": "hello world"}
// Auth: required
func (h *TweetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var in struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.tweets.Create(r.Context(), session.UserID, in.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleGet returns one tweet with its author, like state, and replies.
//
// HTTP: GET /api/tweets/{id}
// Auth: optional
func (h *TweetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.tweets.Get(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleDelete removes a tweet. Only the author may; everyone else gets 403.
//
// HTTP: DELETE /api/tweets/{id}
// Auth: required
func (h *TweetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	if err := h.tweets.Delete(r.Context(), session.UserID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "tweet deleted"})
}

// HandleToggleLike flips the viewer's like on a tweet.
//
// HTTP: POST /api/tweets/{id}/like
// Auth: required
//
// The response reports the resulting state: {"liked": true, "likesCount": 3}.
func (h *TweetHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	state, err := h.tweets.ToggleLike(r.Context(), session.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleUnlike removes the viewer's like. Idempotent.
//
// HTTP: DELETE /api/tweets/{id}/like
// Auth: required
func (h *TweetHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	state, err := h.tweets.Unlike(r.Context(), session.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleCreateReply posts a reply on a tweet.
//
// HTTP: POST /api/tweets/{id}/replies
// BODY: {"content": "nice take"}
// Auth: required
func (h *TweetHandler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var in struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.tweets.CreateReply(r.Context(), session.UserID, r.PathValue("id"), in.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// HandleListReplies returns a tweet's replies, oldest first.
//
// HTTP: GET /api/tweets/{id}/replies
func (h *TweetHandler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.tweets.Replies(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}
